// Package submit delivers a completed form record to a sink and reports the
// acknowledgement shown to the user.
package submit

import (
	"context"
	"errors"
	"log/slog"

	"github.com/goliatone/go-formdemo/pkg/state"
)

// DefaultMessage is the acknowledgement shown after a submission.
const DefaultMessage = "Form submitted successfully!"

// Ack is the result of handing a record to a sink.
type Ack struct {
	// Message is the user-facing confirmation.
	Message string `json:"message"`
	// Delivered is false when the sink could not forward the record.
	Delivered bool `json:"delivered"`
}

// Sink receives the complete record on submission.
type Sink interface {
	Submit(ctx context.Context, record state.FormState) (Ack, error)
}

// Func adapts a function into a Sink.
type Func func(ctx context.Context, record state.FormState) (Ack, error)

func (f Func) Submit(ctx context.Context, record state.FormState) (Ack, error) {
	return f(ctx, record)
}

// LogSink logs the record and returns the default acknowledgement.
type LogSink struct {
	Logger  *slog.Logger
	Message string
}

// NewLogSink builds a LogSink writing to logger (slog.Default when nil).
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{Logger: logger}
}

func (s *LogSink) Submit(ctx context.Context, record state.FormState) (Ack, error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "Form submitted", slog.Any("record", record))

	message := s.Message
	if message == "" {
		message = DefaultMessage
	}
	return Ack{Message: message, Delivered: true}, nil
}

// Multi fans a record out to every sink in order. The first acknowledgement
// message wins; delivery is reported only when every sink succeeded.
type Multi []Sink

func (m Multi) Submit(ctx context.Context, record state.FormState) (Ack, error) {
	ack := Ack{Delivered: true}
	var errs []error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		got, err := sink.Submit(ctx, record)
		if err != nil {
			errs = append(errs, err)
			ack.Delivered = false
			continue
		}
		if ack.Message == "" {
			ack.Message = got.Message
		}
		if !got.Delivered {
			ack.Delivered = false
		}
	}
	if ack.Message == "" {
		ack.Message = DefaultMessage
	}
	return ack, errors.Join(errs...)
}
