// Package audit publishes decision events to an external sink. The
// authoritative decision log lives in the submission store; sinks are a
// best-effort feed for downstream consumers, so publish failures are
// logged and never fail the review that produced the event.
package audit

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/probitylab/screener/pkg/submission"
)

// DecisionEvent wraps a decision record with a unique event id for
// downstream deduplication.
type DecisionEvent struct {
	EventID string                    `json:"event_id"`
	Record  submission.DecisionRecord `json:"record"`
}

// NewEvent assigns a fresh event id to a decision record.
func NewEvent(rec submission.DecisionRecord) DecisionEvent {
	return DecisionEvent{
		EventID: uuid.NewString(),
		Record:  rec,
	}
}

// Sink receives decision events.
type Sink interface {
	// Publish delivers one decision event.
	Publish(ctx context.Context, event DecisionEvent) error

	// Close releases any resources held by the sink.
	Close() error
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) Publish(context.Context, DecisionEvent) error { return nil }
func (NopSink) Close() error                                 { return nil }

// LogSink writes decision events to the logger. It is the default sink when
// no broker is configured.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a sink that logs each decision event.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Publish(_ context.Context, event DecisionEvent) error {
	s.logger.Info("decision recorded",
		zap.String("event_id", event.EventID),
		zap.Int("submission_id", event.Record.SubmissionID),
		zap.String("final_decision", string(event.Record.FinalDecision)),
		zap.Float64("final_score", event.Record.FinalScore),
		zap.Float64("ai_score", event.Record.AIScore),
	)
	return nil
}

func (s *LogSink) Close() error { return nil }
