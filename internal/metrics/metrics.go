package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Side effect names.
const (
	EffectClassify   = "classify_urgency"
	EffectDraftNotes = "draft_notes"
	EffectSMS        = "sms"
	EffectBroadcast  = "broadcast"
)

// Decision results.
const (
	ResultTransitioned = "transitioned"
	ResultNoop         = "noop"
)

var (
	requestsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_requests_submitted_total",
			Help: "Total number of persisted request submissions",
		},
		[]string{"kind"},
	)

	decisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_decisions_total",
			Help: "Total number of decision attempts by result",
		},
		[]string{"kind", "decision", "result"},
	)

	sideEffects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_side_effects_total",
			Help: "Advisory and notification calls by outcome",
		},
		[]string{"effect", "outcome"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portal_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

func init() {
	prometheus.MustRegister(requestsSubmitted, decisions, sideEffects, httpDuration)
}

func RecordSubmission(kind string) {
	requestsSubmitted.WithLabelValues(kind).Inc()
}

func RecordDecision(kind, decision, result string) {
	decisions.WithLabelValues(kind, decision, result).Inc()
}

func RecordSideEffect(effect, outcome string) {
	sideEffects.WithLabelValues(effect, outcome).Inc()
}

func RecordHTTPRequest(method, path string, status int, elapsed time.Duration) {
	httpDuration.WithLabelValues(method, path, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
