package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/goliatone/go-formcollect/pkg/logger"
	"github.com/goliatone/go-formcollect/pkg/validation"
)

const (
	defaultHTTPAttempts = 3
	defaultHTTPDelay    = 200 * time.Millisecond
	defaultHTTPTimeout  = 10 * time.Second
	maxErrorBody        = 64 << 10
)

// RejectedError reports a 4xx answer from the downstream endpoint. Issues
// holds the field errors decoded from the response body, if any.
type RejectedError struct {
	StatusCode int
	Issues     []validation.Issue
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("sink: downstream rejected submission with status %d", e.StatusCode)
}

// HTTPOption customises an HTTP sink.
type HTTPOption func(*HTTP)

// WithHTTPClient overrides the client used for deliveries.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(h *HTTP) {
		if h == nil || client == nil {
			return
		}
		h.client = client
	}
}

// WithAttempts sets how many times a delivery is tried. Zero keeps the
// default.
func WithAttempts(attempts uint) HTTPOption {
	return func(h *HTTP) {
		if h == nil || attempts == 0 {
			return
		}
		h.attempts = attempts
	}
}

// WithDelay sets the fixed delay between attempts.
func WithDelay(delay time.Duration) HTTPOption {
	return func(h *HTTP) {
		if h == nil || delay < 0 {
			return
		}
		h.delay = delay
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) HTTPOption {
	return func(h *HTTP) {
		if h == nil || strings.TrimSpace(key) == "" {
			return
		}
		h.headers.Set(key, value)
	}
}

// WithHTTPLogger sets the logger used for retry notices.
func WithHTTPLogger(lggr logger.Logger) HTTPOption {
	return func(h *HTTP) {
		if h == nil || lggr == nil {
			return
		}
		h.lggr = lggr.Named("sink.http")
	}
}

// HTTP posts submissions as JSON to a fixed URL. Network errors and 5xx
// answers are retried; 4xx answers are final and surface as *RejectedError.
type HTTP struct {
	url      string
	client   *http.Client
	attempts uint
	delay    time.Duration
	headers  http.Header
	lggr     logger.Logger
}

// NewHTTP returns an HTTP sink posting to target.
func NewHTTP(target string, opts ...HTTPOption) (*HTTP, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, errors.New("sink: http target url is required")
	}
	h := &HTTP{
		url:      target,
		client:   &http.Client{Timeout: defaultHTTPTimeout},
		attempts: defaultHTTPAttempts,
		delay:    defaultHTTPDelay,
		headers:  make(http.Header),
		lggr:     logger.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h, nil
}

// Deliver posts submission, retrying transient failures.
func (h *HTTP) Deliver(ctx context.Context, submission Submission) error {
	body, err := json.Marshal(submission)
	if err != nil {
		return fmt.Errorf("sink: encode submission: %w", err)
	}

	return retry.Do(
		func() error {
			return h.post(ctx, body)
		},
		retry.Context(ctx),
		retry.Attempts(h.attempts),
		retry.Delay(h.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			h.lggr.Warnw("retrying submission delivery", "id", submission.ID, "attempt", n+1, "err", err)
		}),
	)
}

func (h *HTTP) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return retry.Unrecoverable(fmt.Errorf("sink: build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for key, values := range h.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("sink: post %s: %w", h.url, err)
	}
	defer resp.Body.Close()

	payload, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests:
		return retry.Unrecoverable(&RejectedError{
			StatusCode: resp.StatusCode,
			Issues:     decodeIssues(payload),
		})
	default:
		return fmt.Errorf("sink: post %s: unexpected status %d", h.url, resp.StatusCode)
	}
}

// decodeIssues reads {"errors": {...}} or {"message": "..."} bodies. Error
// values may be a string or a list of strings.
func decodeIssues(payload []byte) []validation.Issue {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	var body struct {
		Errors  map[string]json.RawMessage `json:"errors"`
		Message string                     `json:"message"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil
	}

	messages := make(map[string][]string, len(body.Errors)+1)
	for path, raw := range body.Errors {
		var list []string
		if err := json.Unmarshal(raw, &list); err == nil {
			messages[path] = append(messages[path], list...)
			continue
		}
		var single string
		if err := json.Unmarshal(raw, &single); err == nil {
			messages[path] = append(messages[path], single)
		}
	}
	if strings.TrimSpace(body.Message) != "" {
		messages[""] = append(messages[""], body.Message)
	}
	return validation.IssuesFromPayload(messages)
}
