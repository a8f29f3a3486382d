package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-formdemo/pkg/agent"
	"github.com/goliatone/go-formdemo/pkg/openapi"
	"github.com/goliatone/go-formdemo/pkg/testsupport"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := NewRoot(map[string]string{})
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestRender_PrintsPage(t *testing.T) {
	out, _, err := run(t, "render", "--theme-variant", "dark")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	doc := testsupport.ParseHTML(t, []byte(out))
	if testsupport.FindByID(doc, "myForm") == nil {
		t.Fatalf("form missing:\n%s", out)
	}
	if !strings.Contains(out, "#f9fafb") {
		t.Fatalf("dark variant tokens missing")
	}

	path := filepath.Join(t.TempDir(), "form.html")
	if _, _, err := run(t, "render", "--fragment", "-o", path); err != nil {
		t.Fatalf("render to file: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil || !strings.HasPrefix(string(raw), "<form") {
		t.Fatalf("fragment not written: %v %q", err, raw)
	}
}

func TestRender_AppliesPreset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preset.yaml")
	if err := os.WriteFile(path, []byte("title: Signup\nfields:\n  text:\n    label: Nickname\n"), 0o644); err != nil {
		t.Fatalf("write preset: %v", err)
	}
	out, _, err := run(t, "render", "--preset", path)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "<title>Signup</title>") || !strings.Contains(out, ">Nickname:</label>") {
		t.Fatalf("preset not applied:\n%s", out)
	}

	if _, _, err := run(t, "render", "--preset", filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected missing preset error")
	}
}

func TestOpenAPI_PrintsValidDocument(t *testing.T) {
	out, _, err := run(t, "openapi", "--server", "http://localhost:8080")
	if err != nil {
		t.Fatalf("openapi: %v", err)
	}
	operations, err := openapi.ParseOperations(context.Background(), []byte(out))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(operations) != 5 {
		t.Fatalf("expected 5 operations, got %d", len(operations))
	}
}

func TestAgent_LocalReport(t *testing.T) {
	out, _, err := run(t, "agent", "--local", "--seed", "3", "--log-level", "error")
	if err != nil {
		t.Fatalf("agent: %v", err)
	}
	var report agent.Report
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if !report.Submitted || report.Status != agent.StatusCompleted {
		t.Fatalf("unexpected report: %+v", report)
	}

	if _, _, err := run(t, "agent"); err == nil {
		t.Fatalf("agent without a target should fail")
	}
}

func TestGlobals_RejectInvalidLogFormat(t *testing.T) {
	if _, _, err := run(t, "render", "--log-format", "xml"); err == nil {
		t.Fatalf("expected config validation error")
	}
}
