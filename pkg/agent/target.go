package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-formdemo/pkg/form"
	"github.com/goliatone/go-formdemo/pkg/model"
	"github.com/goliatone/go-formdemo/pkg/openapi"
	"github.com/goliatone/go-formdemo/pkg/render"
	"github.com/goliatone/go-formdemo/pkg/submit"
)

// Target is a form the agent can drive.
type Target interface {
	// Page returns the current form markup.
	Page(ctx context.Context) ([]byte, error)
	// Apply sends one fill and returns the re-rendered form markup.
	Apply(ctx context.Context, fill Fill, hidden map[string]string) ([]byte, error)
	// Submit sends the final submission carrying every fill.
	Submit(ctx context.Context, fills []Fill, hidden map[string]string) (submit.Ack, error)
}

// LocalTarget drives an in-process component.
type LocalTarget struct {
	Component *form.Component
	Renderer  render.Renderer
}

// NewLocalTarget pairs a component with the renderer used for discovery.
func NewLocalTarget(component *form.Component, renderer render.Renderer) *LocalTarget {
	return &LocalTarget{Component: component, Renderer: renderer}
}

func (t *LocalTarget) Page(ctx context.Context) ([]byte, error) {
	return t.Component.Render(ctx, t.Renderer, render.RenderOptions{Fragment: true})
}

func (t *LocalTarget) Apply(ctx context.Context, fill Fill, _ map[string]string) ([]byte, error) {
	t.Component.HandleChange(fill.Event)
	return t.Page(ctx)
}

func (t *LocalTarget) Submit(ctx context.Context, _ []Fill, _ map[string]string) (submit.Ack, error) {
	return t.Component.Submit(ctx), nil
}

// RemoteOption configures a RemoteTarget.
type RemoteOption func(*RemoteTarget)

// WithHTTPClient replaces the default client. Its jar, when nil, is set so
// the session cookie survives between requests.
func WithHTTPClient(client *http.Client) RemoteOption {
	return func(t *RemoteTarget) {
		if client != nil {
			t.client = client
		}
	}
}

// WithPaths overrides the endpoint paths. Blank values keep the defaults.
func WithPaths(page, change, submit string) RemoteOption {
	return func(t *RemoteTarget) {
		if page != "" {
			t.pagePath = page
		}
		if change != "" {
			t.changePath = change
		}
		if submit != "" {
			t.submitPath = submit
		}
	}
}

// RemoteTarget drives a formdemo server over HTTP.
type RemoteTarget struct {
	base       *url.URL
	client     *http.Client
	pagePath   string
	changePath string
	submitPath string
}

// NewRemoteTarget points at baseURL using the default endpoint layout.
func NewRemoteTarget(baseURL string, options ...RemoteOption) (*RemoteTarget, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("agent: parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("agent: base url %q must be absolute", baseURL)
	}

	t := &RemoteTarget{
		base:       base,
		client:     &http.Client{Timeout: 15 * time.Second},
		pagePath:   openapi.PathForm,
		changePath: openapi.PathChange,
		submitPath: openapi.PathSubmit,
	}
	for _, opt := range options {
		if opt != nil {
			opt(t)
		}
	}
	if t.client.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("agent: cookie jar: %w", err)
		}
		t.client.Jar = jar
	}
	return t, nil
}

// Resolve reads the server's OpenAPI document and adopts the paths it
// advertises for the page, change and submit operations.
func (t *RemoteTarget) Resolve(ctx context.Context) error {
	raw, err := t.get(ctx, openapi.PathSpec, "application/json")
	if err != nil {
		return err
	}
	operations, err := openapi.ParseOperations(ctx, raw)
	if err != nil {
		return fmt.Errorf("agent: read api description: %w", err)
	}
	if op, ok := openapi.FindOperation(operations, openapi.OperationPage, http.MethodGet, openapi.PathForm); ok {
		t.pagePath = op.Path
	}
	if op, ok := openapi.FindOperation(operations, openapi.OperationChange, http.MethodPost, openapi.PathChange); ok {
		t.changePath = op.Path
	}
	if op, ok := openapi.FindOperation(operations, openapi.OperationSubmit, http.MethodPost, openapi.PathSubmit); ok {
		t.submitPath = op.Path
	}
	return nil
}

// Paths reports the page, change and submit paths in use.
func (t *RemoteTarget) Paths() (page, change, submit string) {
	return t.pagePath, t.changePath, t.submitPath
}

func (t *RemoteTarget) Page(ctx context.Context) ([]byte, error) {
	return t.get(ctx, t.pagePath, "text/html")
}

func (t *RemoteTarget) Apply(ctx context.Context, fill Fill, hidden map[string]string) ([]byte, error) {
	body, contentType, err := encodeMultipart(hidden, func(w *multipart.Writer) error {
		ev := fill.Event
		fields := [][2]string{{"name", ev.Name}, {"kind", string(ev.Kind)}}
		switch ev.Kind {
		case model.KindCheckbox:
			fields = append(fields, [2]string{"checked", fmt.Sprintf("%t", ev.Checked)})
		case model.KindMultiSelect:
			for _, option := range ev.Selected {
				fields = append(fields, [2]string{"selected", option})
			}
		case model.KindFile:
		default:
			fields = append(fields, [2]string{"value", ev.Value})
		}
		for _, kv := range fields {
			if err := w.WriteField(kv[0], kv[1]); err != nil {
				return err
			}
		}
		if ev.Kind == model.KindFile {
			return writeFiles(w, "file", fill)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	req, err := t.newRequest(ctx, http.MethodPost, t.changePath, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("HX-Request", "true")
	req.Header.Set("Accept", "text/html")
	return t.do(req)
}

// Submit posts every fill the way a browser would post the whole form.
// Unchecked checkboxes are omitted.
func (t *RemoteTarget) Submit(ctx context.Context, fills []Fill, hidden map[string]string) (submit.Ack, error) {
	body, contentType, err := encodeMultipart(hidden, func(w *multipart.Writer) error {
		for _, fill := range fills {
			ev := fill.Event
			switch ev.Kind {
			case model.KindCheckbox:
				if ev.Checked {
					if err := w.WriteField(ev.Name, "true"); err != nil {
						return err
					}
				}
			case model.KindMultiSelect:
				for _, option := range ev.Selected {
					if err := w.WriteField(ev.Name, option); err != nil {
						return err
					}
				}
			case model.KindFile:
				if err := writeFiles(w, ev.Name, fill); err != nil {
					return err
				}
			default:
				if err := w.WriteField(ev.Name, ev.Value); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return submit.Ack{}, err
	}

	req, err := t.newRequest(ctx, http.MethodPost, t.submitPath, body)
	if err != nil {
		return submit.Ack{}, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	raw, err := t.do(req)
	if err != nil {
		return submit.Ack{}, err
	}
	var ack submit.Ack
	if err := json.Unmarshal(raw, &ack); err != nil {
		return submit.Ack{}, fmt.Errorf("agent: decode acknowledgement: %w", err)
	}
	return ack, nil
}

func (t *RemoteTarget) get(ctx context.Context, path, accept string) ([]byte, error) {
	req, err := t.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", accept)
	return t.do(req)
}

func (t *RemoteTarget) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	target := t.base.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("agent: build %s %s: %w", method, path, err)
	}
	return req, nil
}

func (t *RemoteTarget) do(req *http.Request) ([]byte, error) {
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("agent: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("agent: read %s: %w", req.URL.Path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("agent: %s %s: unexpected status %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	return raw, nil
}

func encodeMultipart(hidden map[string]string, write func(*multipart.Writer) error) (*bytes.Buffer, string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for name, value := range hidden {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("agent: encode hidden field %s: %w", name, err)
		}
	}
	if err := write(w); err != nil {
		return nil, "", fmt.Errorf("agent: encode form: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("agent: encode form: %w", err)
	}
	return &body, w.FormDataContentType(), nil
}

func writeFiles(w *multipart.Writer, field string, fill Fill) error {
	for _, handle := range fill.Event.Files {
		part, err := w.CreateFormFile(field, handle.Name)
		if err != nil {
			return err
		}
		if _, err := part.Write(fill.Content); err != nil {
			return err
		}
	}
	return nil
}
