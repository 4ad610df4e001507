// Package advisory wraps the external text classifier. Every failure mode,
// including missing credentials, collapses into "unavailable" here, so
// callers only ever see a value or its absence.
package advisory

import (
	"context"
	"time"

	"opsportal/internal/metrics"
	"opsportal/internal/model"
	"opsportal/internal/sideeffect"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// UrgencyEstimate is the classifier's suggestion for a submitted request.
type UrgencyEstimate struct {
	Urgency    model.Urgency `json:"urgency"`
	Confidence float64       `json:"confidence"`
	Reasoning  string        `json:"reasoning"`
}

// NotesContext describes the request an approval note is drafted for.
type NotesContext struct {
	Kind       string
	Subject    string
	Amount     decimal.Decimal
	Department string
}

// Backend is a classifier transport. Errors are reported as-is; Client
// turns them into unavailability.
type Backend interface {
	ClassifyUrgency(ctx context.Context, text string) (UrgencyEstimate, error)
	DraftApprovalNotes(ctx context.Context, nc NotesContext) (string, error)
}

const (
	outcomeOK          = "ok"
	outcomeUnavailable = "unavailable"
)

// Client is constructed once at startup. A nil backend means the classifier
// is not configured, which is a normal state.
type Client struct {
	backend Backend
	timeout time.Duration
	log     logrus.FieldLogger
}

func NewClient(backend Backend, timeout time.Duration, log logrus.FieldLogger) *Client {
	return &Client{backend: backend, timeout: timeout, log: log.WithField("component", "advisory")}
}

// Disabled returns a client that always reports unavailable.
func Disabled(log logrus.FieldLogger) *Client {
	return NewClient(nil, 0, log)
}

func (c *Client) Enabled() bool { return c != nil && c.backend != nil }

// SuggestUrgency returns false when no estimate could be obtained.
func (c *Client) SuggestUrgency(ctx context.Context, text string) (UrgencyEstimate, bool) {
	if !c.Enabled() {
		metrics.RecordSideEffect(metrics.EffectClassify, outcomeUnavailable)
		return UrgencyEstimate{}, false
	}
	est, err := sideeffect.Call(ctx, c.timeout, func(ctx context.Context) (UrgencyEstimate, error) {
		return c.backend.ClassifyUrgency(ctx, text)
	})
	if err != nil {
		c.log.WithError(err).WithField("effect", metrics.EffectClassify).Warn("urgency classification unavailable")
		metrics.RecordSideEffect(metrics.EffectClassify, outcomeUnavailable)
		return UrgencyEstimate{}, false
	}
	metrics.RecordSideEffect(metrics.EffectClassify, outcomeOK)
	return est, true
}

// DraftApprovalNotes returns false when no usable note was produced.
func (c *Client) DraftApprovalNotes(ctx context.Context, nc NotesContext) (string, bool) {
	if !c.Enabled() {
		metrics.RecordSideEffect(metrics.EffectDraftNotes, outcomeUnavailable)
		return "", false
	}
	notes, err := sideeffect.Call(ctx, c.timeout, func(ctx context.Context) (string, error) {
		return c.backend.DraftApprovalNotes(ctx, nc)
	})
	if err == nil && notes == "" {
		err = errEmptyResponse
	}
	if err != nil {
		c.log.WithError(err).WithField("effect", metrics.EffectDraftNotes).Warn("approval note drafting unavailable")
		metrics.RecordSideEffect(metrics.EffectDraftNotes, outcomeUnavailable)
		return "", false
	}
	metrics.RecordSideEffect(metrics.EffectDraftNotes, outcomeOK)
	return notes, true
}
