// Package openapi describes the demo form HTTP surface as an OpenAPI 3
// document and reads such documents back into callable operations.
package openapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formdemo/internal/openapi/parser"
	"github.com/goliatone/go-formdemo/pkg/model"
)

const (
	OperationSubmit = "submitForm"
	OperationChange = "changeField"
	OperationState  = "getFormState"
	OperationPage   = "getForm"
	OperationHealth = "healthz"

	PathForm   = "/form"
	PathSubmit = "/form/submit"
	PathChange = "/form/change"
	PathState  = "/form/state"
	PathHealth = "/healthz"
	PathSpec   = "/openapi.json"

	schemaRefPrefix = "#/components/schemas/"
)

// Operation is a callable endpoint recovered from a document.
type Operation = parser.Operation

// Options tunes Build.
type Options struct {
	Version string
	// Servers lists base URLs advertised in the document.
	Servers []string
}

// Build produces the OpenAPI document for form, validated before return.
func Build(ctx context.Context, form model.FormModel, opts Options) (*openapi3.T, error) {
	version := opts.Version
	if version == "" {
		version = "1.0.0"
	}

	record := RecordSchema(form)
	ack := openapi3.NewObjectSchema().
		WithProperty("message", openapi3.NewStringSchema()).
		WithProperty("delivered", openapi3.NewBoolSchema())
	event := changeEventSchema(form)

	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       form.Title,
			Description: "Server rendered demo form covering every native input type.",
			Version:     version,
		},
		Components: &openapi3.Components{
			Schemas: openapi3.Schemas{
				"FormState":   openapi3.NewSchemaRef("", record),
				"Ack":         openapi3.NewSchemaRef("", ack),
				"ChangeEvent": openapi3.NewSchemaRef("", event),
			},
		},
	}
	for _, server := range opts.Servers {
		doc.Servers = append(doc.Servers, &openapi3.Server{URL: server})
	}

	recordRef := schemaRef("FormState", record)
	ackRef := schemaRef("Ack", ack)

	doc.Paths = openapi3.NewPaths(
		openapi3.WithPath(PathForm, &openapi3.PathItem{
			Get: &openapi3.Operation{
				OperationID: OperationPage,
				Summary:     "Render the form page",
				Responses:   responses(http.StatusOK, "HTML page", htmlContent()),
			},
		}),
		openapi3.WithPath(PathChange, &openapi3.PathItem{
			Post: &openapi3.Operation{
				OperationID: OperationChange,
				Summary:     "Apply one field change and re-render the form",
				RequestBody: &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().
					WithRequired(true).
					WithContent(openapi3.NewContentWithFormDataSchema(event))},
				Responses: responses(http.StatusOK, "Re-rendered form (fragment for HX-Request)", htmlContent()),
			},
		}),
		openapi3.WithPath(PathSubmit, &openapi3.PathItem{
			Post: &openapi3.Operation{
				OperationID: OperationSubmit,
				Summary:     "Submit the whole form",
				RequestBody: &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().
					WithContent(openapi3.NewContentWithFormDataSchema(record))},
				Responses: responses(http.StatusOK, "Acknowledgement", openapi3.NewContentWithJSONSchemaRef(ackRef)),
			},
		}),
		openapi3.WithPath(PathState, &openapi3.PathItem{
			Get: &openapi3.Operation{
				OperationID: OperationState,
				Summary:     "Current form record",
				Responses:   responses(http.StatusOK, "Form record", openapi3.NewContentWithJSONSchemaRef(recordRef)),
			},
		}),
		openapi3.WithPath(PathHealth, &openapi3.PathItem{
			Get: &openapi3.Operation{
				OperationID: OperationHealth,
				Summary:     "Liveness check",
				Responses:   responses(http.StatusOK, "Healthy", nil),
			},
		}),
	)

	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("openapi: validate document: %w", err)
	}
	return doc, nil
}

// JSON builds the document and encodes it with indentation.
func JSON(ctx context.Context, form model.FormModel, opts Options) ([]byte, error) {
	doc, err := Build(ctx, form, opts)
	if err != nil {
		return nil, err
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("openapi: encode document: %w", err)
	}
	return out, nil
}

// ParseOperations reads a document and returns its operations keyed by id.
func ParseOperations(ctx context.Context, raw []byte) (map[string]Operation, error) {
	return parser.Operations(ctx, raw, parser.Options{Validate: true})
}

// FindOperation looks an operation up by id, falling back to method and
// path.
func FindOperation(operations map[string]Operation, id, method, path string) (Operation, bool) {
	return parser.Find(operations, id, method, path)
}

// RecordSchema describes FormState: one property per field, with enums for
// option lists.
func RecordSchema(form model.FormModel) *openapi3.Schema {
	schema := openapi3.NewObjectSchema()
	schema.Description = "Form record keyed by field name."
	for _, field := range form.Fields {
		schema.WithProperty(field.Name, FieldSchema(field))
	}
	return schema
}

// FieldSchema maps one field to the schema of its stored value.
func FieldSchema(field model.Field) *openapi3.Schema {
	var schema *openapi3.Schema
	switch field.Kind {
	case model.KindCheckbox:
		schema = openapi3.NewBoolSchema()
	case model.KindFile:
		schema = openapi3.NewObjectSchema().
			WithProperty("name", openapi3.NewStringSchema()).
			WithProperty("size", openapi3.NewInt64Schema()).
			WithProperty("contentType", openapi3.NewStringSchema()).
			WithNullable()
	case model.KindRadio:
		schema = openapi3.NewStringSchema().WithEnum(enumValues(field.Options, false)...)
	case model.KindSelect:
		schema = openapi3.NewStringSchema().WithEnum(enumValues(field.Options, true)...)
	case model.KindMultiSelect:
		items := openapi3.NewStringSchema().WithEnum(enumValues(field.Options, false)...)
		schema = openapi3.NewArraySchema().WithItems(items)
	default:
		schema = openapi3.NewStringSchema()
		if format := stringFormat(field.Kind); format != "" {
			schema.WithFormat(format)
		}
	}

	schema.Title = field.Label
	schema.Extensions = map[string]any{"x-input-kind": string(field.Kind)}
	if field.TestID != "" {
		schema.Extensions["x-testid"] = field.TestID
	}
	if field.VisibleWhen != "" {
		schema.Extensions["x-visible-when"] = field.VisibleWhen
	}
	return schema
}

func changeEventSchema(form model.FormModel) *openapi3.Schema {
	kinds := make([]any, 0, len(model.Kinds()))
	for _, kind := range model.Kinds() {
		kinds = append(kinds, string(kind))
	}
	names := make([]any, 0, len(form.Fields))
	for _, name := range form.Names() {
		names = append(names, name)
	}
	schema := openapi3.NewObjectSchema().
		WithProperty("name", openapi3.NewStringSchema().WithEnum(names...)).
		WithProperty("kind", openapi3.NewStringSchema().WithEnum(kinds...)).
		WithProperty("value", openapi3.NewStringSchema()).
		WithProperty("checked", openapi3.NewBoolSchema()).
		WithProperty("selected", openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema())).
		WithProperty("file", openapi3.NewStringSchema().WithFormat("binary"))
	schema.Required = []string{"name"}
	return schema
}

func stringFormat(kind model.InputKind) string {
	switch kind {
	case model.KindEmail:
		return "email"
	case model.KindPassword:
		return "password"
	case model.KindURL:
		return "uri"
	case model.KindDate:
		return "date"
	}
	return ""
}

func enumValues(options []string, allowEmpty bool) []any {
	out := make([]any, 0, len(options)+1)
	if allowEmpty {
		out = append(out, "")
	}
	for _, option := range options {
		out = append(out, option)
	}
	return out
}

func schemaRef(name string, schema *openapi3.Schema) *openapi3.SchemaRef {
	return openapi3.NewSchemaRef(schemaRefPrefix+name, schema)
}

func htmlContent() openapi3.Content {
	return openapi3.NewContentWithSchema(openapi3.NewStringSchema(), []string{"text/html"})
}

func responses(status int, description string, content openapi3.Content) *openapi3.Responses {
	response := openapi3.NewResponse().WithDescription(description)
	if content != nil {
		response.WithContent(content)
	}
	return openapi3.NewResponses(openapi3.WithStatus(status, &openapi3.ResponseRef{Value: response}))
}
