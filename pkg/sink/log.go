package sink

import (
	"context"

	"github.com/goliatone/go-formcollect/pkg/collect"
	"github.com/goliatone/go-formcollect/pkg/logger"
)

// Log writes each submission to a structured logger with secrets masked.
type Log struct {
	lggr    logger.Logger
	secrets collect.Names
}

// NewLog returns a Log sink. secrets names the fields to redact; nil masks the
// password pair.
func NewLog(lggr logger.Logger, secrets collect.Names) *Log {
	if secrets == nil {
		secrets = collect.NewNames("password", "confirm-password")
	}
	return &Log{lggr: logger.OrNop(lggr).Named("sink.log"), secrets: secrets}
}

// Deliver logs the submission at info level.
func (l *Log) Deliver(_ context.Context, submission Submission) error {
	l.lggr.Infow("submission accepted",
		"id", submission.ID,
		"form", submission.Form,
		"received_at", submission.ReceivedAt,
		"data", Redact(submission.Record, l.secrets).Map(),
	)
	return nil
}
