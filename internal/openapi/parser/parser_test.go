package parser

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const document = `{
  "openapi": "3.0.3",
  "info": { "title": "Demo", "version": "1.0.0" },
  "paths": {
    "/form/submit": {
      "post": {
        "operationId": "submitForm",
        "summary": "Submit",
        "requestBody": {
          "content": {
            "application/json": { "schema": { "type": "object", "properties": { "b": { "type": "string" } } } },
            "multipart/form-data": { "schema": { "type": "object", "properties": { "z": { "type": "string" }, "a": { "type": "string" } } } }
          }
        },
        "responses": { "200": { "description": "ok" } }
      }
    },
    "/healthz": {
      "get": { "responses": { "200": { "description": "ok" } } }
    }
  }
}`

func TestOperations(t *testing.T) {
	ops, err := Operations(context.Background(), []byte(document), Options{Validate: true})
	if err != nil {
		t.Fatalf("operations: %v", err)
	}

	want := map[string]Operation{
		"submitForm": {
			ID: "submitForm", Method: "POST", Path: "/form/submit", Summary: "Submit",
			ContentType: "multipart/form-data", Properties: []string{"a", "z"},
		},
		"get /healthz": {ID: "get /healthz", Method: "GET", Path: "/healthz"},
	}
	if diff := cmp.Diff(want, ops); diff != "" {
		t.Fatalf("operations mismatch (-want +got):\n%s", diff)
	}

	if op, ok := Find(ops, "missing", "get", "/healthz"); !ok || op.ID != "get /healthz" {
		t.Fatalf("find by method/path failed: %+v %v", op, ok)
	}
}

func TestOperationsErrors(t *testing.T) {
	if _, err := Operations(context.Background(), nil, Options{}); err == nil {
		t.Fatalf("expected error for empty payload")
	}
	empty := `{"openapi":"3.0.3","info":{"title":"x","version":"1"},"paths":{}}`
	if _, err := Operations(context.Background(), []byte(empty), Options{}); err == nil {
		t.Fatalf("expected error when no operations")
	}
	if _, err := Operations(context.Background(), []byte(empty), Options{AllowPartialDocuments: true}); err != nil {
		t.Fatalf("partial document should be accepted: %v", err)
	}
}
