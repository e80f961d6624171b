// Package sink delivers accepted submissions to downstream consumers: the
// structured log, an HTTP endpoint or a SQL table.
package sink

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/goliatone/go-formcollect/pkg/collect"
)

// IDPrefix is prepended to every generated submission ID.
const IDPrefix = "sub"

// RedactedValue replaces secret values in records that leave the process.
const RedactedValue = "[REDACTED]"

// Submission is one accepted record handed to a Sink.
type Submission struct {
	ID         string         `json:"id"`
	Form       string         `json:"form"`
	Record     collect.Record `json:"data"`
	ReceivedAt time.Time      `json:"received_at"`
}

// Sink receives accepted submissions. Deliver must not retain Record after it
// returns unless it clones it.
type Sink interface {
	Deliver(ctx context.Context, submission Submission) error
}

// Func adapts a function to the Sink interface.
type Func func(ctx context.Context, submission Submission) error

// Deliver calls f.
func (f Func) Deliver(ctx context.Context, submission Submission) error {
	if f == nil {
		return nil
	}
	return f(ctx, submission)
}

// NewID returns a sortable unique submission ID such as sub_2ZpV....
//
// This uses ksuid so IDs order by creation time.
func NewID() string {
	return IDPrefix + "_" + ksuid.New().String()
}

// Redact returns a copy of record with the values of secret fields masked.
// Empty secrets stay empty so downstream consumers can still tell them apart.
func Redact(record collect.Record, secrets collect.Names) collect.Record {
	out := record.Clone()
	for name := range secrets {
		value, ok := out[name]
		if !ok {
			continue
		}
		if value.IsMulti() {
			masked := make([]string, value.Len())
			for i := range masked {
				masked[i] = RedactedValue
			}
			out[name] = collect.Multi(masked...)
			continue
		}
		if value.String() != "" {
			out[name] = collect.Single(RedactedValue)
		}
	}
	return out
}

type multi struct {
	sinks []Sink
}

// Multi delivers to every sink in order and joins their errors. A failing
// sink does not stop later ones.
func Multi(sinks ...Sink) Sink {
	filtered := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			filtered = append(filtered, s)
		}
	}
	return &multi{sinks: filtered}
}

func (m *multi) Deliver(ctx context.Context, submission Submission) error {
	var errs []error
	for i, s := range m.sinks {
		if err := s.Deliver(ctx, submission); err != nil {
			errs = append(errs, fmt.Errorf("sink %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// Memory keeps delivered submissions in memory. It backs tests and the
// prompt command's dry runs.
type Memory struct {
	mu          sync.Mutex
	submissions []Submission
	err         error
}

// NewMemory returns an empty Memory sink.
func NewMemory() *Memory {
	return &Memory{}
}

// FailWith makes subsequent deliveries return err without recording.
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Deliver records a copy of submission.
func (m *Memory) Deliver(_ context.Context, submission Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	submission.Record = submission.Record.Clone()
	m.submissions = append(m.submissions, submission)
	return nil
}

// All returns the recorded submissions in delivery order.
func (m *Memory) All() []Submission {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Submission(nil), m.submissions...)
}

// Len reports how many submissions were recorded.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.submissions)
}
