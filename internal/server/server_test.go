package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"

	"github.com/goliatone/go-formdemo/internal/config"
	"github.com/goliatone/go-formdemo/pkg/agent"
	"github.com/goliatone/go-formdemo/pkg/model"
	"github.com/goliatone/go-formdemo/pkg/openapi"
	"github.com/goliatone/go-formdemo/pkg/state"
	"github.com/goliatone/go-formdemo/pkg/submit"
	"github.com/goliatone/go-formdemo/pkg/testsupport"
)

type recordingSink struct {
	mu      sync.Mutex
	records []state.FormState
}

func (s *recordingSink) Submit(_ context.Context, record state.FormState) (submit.Ack, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return submit.Ack{Message: "Form submitted successfully!", Delivered: true}, nil
}

func (s *recordingSink) last(t *testing.T) state.FormState {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.records) == 0 {
		t.Fatalf("no submission recorded")
	}
	return s.records[len(s.records)-1]
}

type harness struct {
	t      *testing.T
	srv    *httptest.Server
	client *http.Client
	sink   *recordingSink
}

func newHarness(t *testing.T, mutate func(*config.Config)) *harness {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	sink := &recordingSink{}
	s, err := New(context.Background(), cfg,
		WithSink(sink),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	jar, _ := cookiejar.New(nil)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &harness{t: t, srv: srv, client: client, sink: sink}
}

func (h *harness) do(req *http.Request) (*http.Response, []byte) {
	h.t.Helper()
	resp, err := h.client.Do(req)
	if err != nil {
		h.t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		h.t.Fatalf("read body: %v", err)
	}
	return resp, body
}

func (h *harness) get(path string) (*http.Response, []byte) {
	h.t.Helper()
	req, _ := http.NewRequest(http.MethodGet, h.srv.URL+path, nil)
	return h.do(req)
}

func (h *harness) post(path string, values url.Values, headers map[string]string) (*http.Response, []byte) {
	h.t.Helper()
	req, _ := http.NewRequest(http.MethodPost, h.srv.URL+path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	return h.do(req)
}

// csrf loads the page and returns the session token.
func (h *harness) csrf() string {
	h.t.Helper()
	_, body := h.get(openapi.PathForm)
	input := testsupport.FindAll(testsupport.ParseHTML(h.t, body), func(n *html.Node) bool {
		name, _ := testsupport.Attr(n, "name")
		return n.Data == "input" && name == CSRFFieldName
	})
	if len(input) != 1 {
		h.t.Fatalf("expected one csrf input, got %d", len(input))
	}
	token, _ := testsupport.Attr(input[0], "value")
	return token
}

func TestServer_IndexRedirectsAndPageRenders(t *testing.T) {
	h := newHarness(t, nil)

	resp, _ := h.get("/")
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != openapi.PathForm {
		t.Fatalf("expected redirect to /form, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	resp, body := h.get(openapi.PathForm)
	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
		t.Fatalf("unexpected response %d %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if len(resp.Cookies()) != 1 || resp.Cookies()[0].Name != "formdemo_session" || !resp.Cookies()[0].HttpOnly {
		t.Fatalf("session cookie missing: %+v", resp.Cookies())
	}

	doc := testsupport.ParseHTML(t, body)
	if testsupport.FindByID(doc, "myForm") == nil || testsupport.FindByTestID(doc, "submit-button") == nil {
		t.Fatalf("form chrome missing")
	}
	if testsupport.FindByTestID(doc, "extraInfo-input") != nil {
		t.Fatalf("extraInfo must start hidden")
	}
	if h.csrf() == "" {
		t.Fatalf("csrf token should be rendered")
	}

	if resp, _ := h.get("/missing"); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown path status = %d", resp.StatusCode)
	}
}

func TestServer_ChangeRevealsExtraInfoAsFragment(t *testing.T) {
	h := newHarness(t, nil)
	token := h.csrf()

	resp, body := h.post(openapi.PathChange, url.Values{
		"name": {model.CheckboxField}, "kind": {"checkbox"}, "checked": {"true"}, CSRFFieldName: {token},
	}, map[string]string{"HX-Request": "true"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("change status = %d: %s", resp.StatusCode, body)
	}
	if bytes.Contains(body, []byte("<html")) || !bytes.HasPrefix(bytes.TrimSpace(body), []byte("<form")) {
		t.Fatalf("HX requests should get the bare form:\n%s", body)
	}
	doc := testsupport.ParseHTML(t, body)
	if testsupport.FindByTestID(doc, "extraInfo-input") == nil {
		t.Fatalf("extraInfo should be rendered once checked")
	}

	h.post(openapi.PathChange, url.Values{
		"name": {model.ExtraInfoField}, "value": {"kept"}, CSRFFieldName: {token},
	}, nil)

	_, raw := h.get(openapi.PathState)
	var record map[string]any
	if err := json.Unmarshal(raw, &record); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if record["checkbox"] != true || record["extraInfo"] != "kept" {
		t.Fatalf("state not updated: %v", record)
	}
}

func TestServer_RejectsBadRequests(t *testing.T) {
	h := newHarness(t, nil)
	token := h.csrf()

	cases := []struct {
		name   string
		method string
		path   string
		values url.Values
		want   int
	}{
		{"missing token", http.MethodPost, openapi.PathChange, url.Values{"name": {"text"}, "value": {"x"}}, http.StatusForbidden},
		{"wrong token", http.MethodPost, openapi.PathSubmit, url.Values{CSRFFieldName: {"nope"}}, http.StatusForbidden},
		{"missing name", http.MethodPost, openapi.PathChange, url.Values{CSRFFieldName: {token}}, http.StatusBadRequest},
		{"get change", http.MethodGet, openapi.PathChange, nil, http.StatusMethodNotAllowed},
		{"post form", http.MethodPost, openapi.PathForm, nil, http.StatusMethodNotAllowed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, _ := http.NewRequest(tc.method, h.srv.URL+tc.path, strings.NewReader(tc.values.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			resp, _ := h.do(req)
			if resp.StatusCode != tc.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.want)
			}
		})
	}
}

func TestServer_CSRFCanBeDisabled(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) { cfg.Server.CSRF = false })
	resp, _ := h.post(openapi.PathChange, url.Values{"name": {"text"}, "value": {"free"}}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestServer_SubmitJSONAndHTML(t *testing.T) {
	h := newHarness(t, nil)
	token := h.csrf()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	_ = w.WriteField(CSRFFieldName, token)
	_ = w.WriteField("text", "hello")
	_ = w.WriteField("checkbox", "on")
	_ = w.WriteField("multiselect", "Feature 2")
	_ = w.WriteField("multiselect", "Feature 3")
	part, _ := w.CreateFormFile("file", "notes.txt")
	_, _ = part.Write([]byte("abc"))
	_ = w.Close()

	req, _ := http.NewRequest(http.MethodPost, h.srv.URL+openapi.PathSubmit, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	resp, raw := h.do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit status = %d: %s", resp.StatusCode, raw)
	}
	var ack submit.Ack
	if err := json.Unmarshal(raw, &ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if diff := cmp.Diff(submit.Ack{Message: "Form submitted successfully!", Delivered: true}, ack); diff != "" {
		t.Fatalf("ack mismatch (-want +got):\n%s", diff)
	}

	record := h.sink.last(t)
	if v, _ := record.Get("text"); v.String() != "hello" {
		t.Fatalf("text = %q", v.String())
	}
	if v, _ := record.Get("multiselect"); !cmp.Equal(v.Selected(), []string{"Feature 2", "Feature 3"}) {
		t.Fatalf("multiselect = %v", v.Selected())
	}
	if v, _ := record.Get("file"); v.File() == nil || v.File().Name != "notes.txt" || v.File().Size != 3 {
		t.Fatalf("file = %+v", v.File())
	}
	if record.Len() != len(model.DemoForm().Fields) {
		t.Fatalf("record should hold every field, got %d", record.Len())
	}

	resp, page := h.post(openapi.PathSubmit, url.Values{CSRFFieldName: {token}}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("html submit status = %d", resp.StatusCode)
	}
	confirmation := testsupport.FindByTestID(testsupport.ParseHTML(t, page), "confirmation")
	if !strings.Contains(testsupport.Text(confirmation), "Form submitted successfully!") {
		t.Fatalf("confirmation missing:\n%s", page)
	}
}

func TestServer_StaticEndpoints(t *testing.T) {
	h := newHarness(t, nil)

	resp, body := h.get(openapi.PathHealth)
	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Fatalf("healthz = %d %q", resp.StatusCode, body)
	}

	resp, body = h.get("/assets/formdemo.css")
	if resp.StatusCode != http.StatusOK || !bytes.Contains(body, []byte("--fd-")) {
		t.Fatalf("stylesheet not served: %d", resp.StatusCode)
	}

	_, raw := h.get(openapi.PathSpec)
	operations, err := openapi.ParseOperations(context.Background(), raw)
	if err != nil {
		t.Fatalf("parse served document: %v", err)
	}
	if _, ok := openapi.FindOperation(operations, openapi.OperationSubmit, http.MethodPost, openapi.PathSubmit); !ok {
		t.Fatalf("submit operation missing from %v", operations)
	}
}

func TestServer_AgentEndpointAndRemoteAgent(t *testing.T) {
	h := newHarness(t, nil)
	token := h.csrf()

	resp, raw := h.post(PathAgent, url.Values{CSRFFieldName: {token}}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("agent status = %d: %s", resp.StatusCode, raw)
	}
	var report agent.Report
	if err := json.Unmarshal(raw, &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if !report.Submitted || len(report.Fields) != len(model.DemoForm().Fields) {
		t.Fatalf("unexpected report: %+v", report)
	}

	target, err := agent.NewRemoteTarget(h.srv.URL)
	if err != nil {
		t.Fatalf("remote target: %v", err)
	}
	if err := target.Resolve(context.Background()); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	remote, err := agent.New(target, agent.WithSeed(9)).Run(context.Background())
	if err != nil {
		t.Fatalf("remote run: %v", err)
	}
	if !remote.Submitted {
		t.Fatalf("remote run should submit: %+v", remote)
	}
	record := h.sink.last(t)
	if v, _ := record.Get(model.ExtraInfoField); v.String() == "" {
		t.Fatalf("remote agent should fill the revealed extraInfo")
	}
}

func TestServer_ServeShutsDownOnCancel(t *testing.T) {
	cfg := config.Default()
	cfg.Server.ShutdownGrace = time.Second
	s, err := New(context.Background(), cfg, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, listener) }()

	healthURL := "http://" + listener.Addr().String() + openapi.PathHealth
	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := http.Get(healthURL)
		if err == nil {
			resp.Body.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never came up: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Fatalf("serve returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("serve did not return after cancel")
	}
}

func TestServer_AgentRunLeavesSessionRecordAlone(t *testing.T) {
	h := newHarness(t, nil)
	token := h.csrf()

	h.post(openapi.PathChange, url.Values{"name": {"text"}, "value": {"mine"}, CSRFFieldName: {token}}, nil)
	_, before := h.get(openapi.PathState)

	resp, raw := h.post(PathAgent, url.Values{CSRFFieldName: {token}}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("agent status = %d: %s", resp.StatusCode, raw)
	}

	_, after := h.get(openapi.PathState)
	var want, got map[string]any
	if err := json.Unmarshal(before, &want); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if err := json.Unmarshal(after, &got); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if want["text"] != "mine" {
		t.Fatalf("change not applied: %v", want)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("agent run changed the session record (-want +got):\n%s", diff)
	}
}
