package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-formdemo/pkg/state"
)

// HTTPSink POSTs the record as JSON to URL.
type HTTPSink struct {
	URL     string
	Client  *http.Client
	Headers map[string]string
	Message string
}

// NewHTTPSink builds an HTTPSink with a client using timeout.
func NewHTTPSink(url string, timeout time.Duration) *HTTPSink {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSink{
		URL:    strings.TrimSpace(url),
		Client: &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSink) Submit(ctx context.Context, record state.FormState) (Ack, error) {
	if s.URL == "" {
		return Ack{}, fmt.Errorf("submit: http sink url is empty")
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return Ack{}, fmt.Errorf("submit: encode record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(payload))
	if err != nil {
		return Ack{}, fmt.Errorf("submit: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for key, value := range s.Headers {
		req.Header.Set(key, value)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Ack{}, fmt.Errorf("submit: post %s: %w", s.URL, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Ack{}, fmt.Errorf("submit: post %s: unexpected status %d", s.URL, resp.StatusCode)
	}

	message := s.Message
	var remote Ack
	if len(body) > 0 && json.Unmarshal(body, &remote) == nil && remote.Message != "" {
		message = remote.Message
	}
	if message == "" {
		message = DefaultMessage
	}
	return Ack{Message: message, Delivered: true}, nil
}
