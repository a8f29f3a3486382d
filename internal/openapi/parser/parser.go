package parser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Operation is the slice of an OpenAPI operation clients need to call it.
type Operation struct {
	ID          string   `json:"id"`
	Method      string   `json:"method"`
	Path        string   `json:"path"`
	Summary     string   `json:"summary,omitempty"`
	ContentType string   `json:"contentType,omitempty"`
	Properties  []string `json:"properties,omitempty"`
}

// Options tunes parsing.
type Options struct {
	// Validate runs the kin-openapi document validation after loading.
	Validate bool
	// AllowPartialDocuments tolerates documents without operations.
	AllowPartialDocuments bool
}

// Operations loads raw and returns its operations keyed by operationId.
func Operations(ctx context.Context, raw []byte, opts Options) (map[string]Operation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errors.New("openapi parser: document payload is empty")
	}

	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi parser: load document: %w", err)
	}
	if opts.Validate {
		if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("openapi parser: validate: %w", err)
		}
	}

	operations := make(map[string]Operation)
	if spec.Paths != nil {
		for path, item := range spec.Paths.Map() {
			if item == nil {
				continue
			}
			for method, operation := range item.Operations() {
				collectOperation(operations, method, path, operation)
			}
		}
	}

	if len(operations) == 0 && !opts.AllowPartialDocuments {
		return nil, errors.New("openapi parser: no operations extracted")
	}
	return operations, nil
}

func collectOperation(target map[string]Operation, method, path string, operation *openapi3.Operation) {
	if operation == nil {
		return
	}
	id := strings.TrimSpace(operation.OperationID)
	if id == "" {
		id = strings.ToLower(method) + " " + path
	}
	op := Operation{
		ID:      id,
		Method:  strings.ToUpper(method),
		Path:    path,
		Summary: operation.Summary,
	}
	op.ContentType, op.Properties = requestProperties(operation.RequestBody)
	target[id] = op
}

// requestProperties prefers multipart, then JSON, then any other media type.
func requestProperties(body *openapi3.RequestBodyRef) (string, []string) {
	if body == nil || body.Value == nil || len(body.Value.Content) == 0 {
		return "", nil
	}
	content := body.Value.Content
	for _, mediaType := range []string{"multipart/form-data", "application/json"} {
		if mt, ok := content[mediaType]; ok {
			return mediaType, propertyNames(mt)
		}
	}
	keys := make([]string, 0, len(content))
	for key := range content {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys[0], propertyNames(content[keys[0]])
}

func propertyNames(mt *openapi3.MediaType) []string {
	if mt == nil || mt.Schema == nil || mt.Schema.Value == nil {
		return nil
	}
	names := make([]string, 0, len(mt.Schema.Value.Properties))
	for name := range mt.Schema.Value.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Find returns the operation with the given id, or the first one matching
// method and path when the id is absent.
func Find(operations map[string]Operation, id, method, path string) (Operation, bool) {
	if op, ok := operations[id]; ok {
		return op, true
	}
	if method == "" {
		method = http.MethodGet
	}
	for _, op := range operations {
		if op.Method == strings.ToUpper(method) && op.Path == path {
			return op, true
		}
	}
	return Operation{}, false
}
