// Package notify delivers SMS notifications. Delivery is best effort: every
// send produces a Result, never an error the caller has to propagate.
package notify

import (
	"context"
	"errors"
	"strings"
	"time"

	"opsportal/internal/metrics"
	"opsportal/internal/sideeffect"

	"github.com/sirupsen/logrus"
)

type Outcome string

const (
	OutcomeSent        Outcome = "sent"
	OutcomeUnavailable Outcome = "unavailable"
	OutcomeFailed      Outcome = "failed"
)

var ErrNoRecipient = errors.New("notify: recipient has no phone number")

// Result is what the dispatcher reports for a single message.
type Result struct {
	Outcome   Outcome
	MessageID string
	Err       error
}

func (r Result) Sent() bool { return r.Outcome == OutcomeSent }

// Transport sends one SMS and returns the provider message id.
type Transport interface {
	Send(ctx context.Context, to, body string) (string, error)
}

type Dispatcher struct {
	transport Transport
	timeout   time.Duration
	log       logrus.FieldLogger
}

func NewDispatcher(transport Transport, timeout time.Duration, log logrus.FieldLogger) *Dispatcher {
	return &Dispatcher{transport: transport, timeout: timeout, log: log.WithField("component", "notify")}
}

// Disabled returns a dispatcher that reports every message as unavailable.
func Disabled(log logrus.FieldLogger) *Dispatcher {
	return NewDispatcher(nil, 0, log)
}

func (d *Dispatcher) Enabled() bool { return d != nil && d.transport != nil }

// Notify sends body to the phone number to.
func (d *Dispatcher) Notify(ctx context.Context, to, body string) Result {
	to = strings.TrimSpace(to)
	var res Result
	switch {
	case !d.Enabled():
		res = Result{Outcome: OutcomeUnavailable}
	case to == "":
		res = Result{Outcome: OutcomeUnavailable, Err: ErrNoRecipient}
	default:
		id, err := sideeffect.Call(ctx, d.timeout, func(ctx context.Context) (string, error) {
			return d.transport.Send(ctx, to, body)
		})
		if err != nil {
			res = Result{Outcome: OutcomeFailed, Err: err}
		} else {
			res = Result{Outcome: OutcomeSent, MessageID: id}
		}
	}

	metrics.RecordSideEffect(metrics.EffectSMS, string(res.Outcome))
	entry := d.log.WithFields(logrus.Fields{"to": maskPhone(to), "outcome": res.Outcome})
	switch res.Outcome {
	case OutcomeSent:
		entry.WithField("message_id", res.MessageID).Info("sms sent")
	case OutcomeFailed:
		entry.WithError(res.Err).Warn("sms delivery failed")
	default:
		entry.Debug("sms skipped")
	}
	return res
}

// NotifyAll sends the same body to every recipient, skipping duplicates.
func (d *Dispatcher) NotifyAll(ctx context.Context, recipients []string, body string) []Result {
	seen := make(map[string]bool, len(recipients))
	results := make([]Result, 0, len(recipients))
	for _, to := range recipients {
		to = strings.TrimSpace(to)
		if to == "" || seen[to] {
			continue
		}
		seen[to] = true
		results = append(results, d.Notify(ctx, to, body))
	}
	return results
}

func maskPhone(p string) string {
	if len(p) <= 4 {
		return p
	}
	return strings.Repeat("*", len(p)-4) + p[len(p)-4:]
}
