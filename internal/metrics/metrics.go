// Package metrics exposes Prometheus collectors for the HTTP surface and the
// application pipeline. A nil *Recorder is valid and records nothing.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Recorder struct {
	requests      *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	applications  *prometheus.CounterVec
	decisions     *prometheus.CounterVec
	counterDrifts prometheus.Counter
}

func New(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hirelink",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hirelink",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		applications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hirelink",
			Name:      "applications_total",
			Help:      "Application submissions by outcome.",
		}, []string{"outcome"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hirelink",
			Name:      "application_decisions_total",
			Help:      "Recruiter status decisions by status.",
		}, []string{"status"}),
		counterDrifts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hirelink",
			Name:      "applicant_counter_repairs_total",
			Help:      "Postings whose cached applicant counter was repaired.",
		}),
	}

	collectors := []prometheus.Collector{r.requests, r.latency, r.applications, r.decisions, r.counterDrifts}
	for i, c := range collectors {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return nil, err
			}
			collectors[i] = are.ExistingCollector
		}
	}
	r.requests = collectors[0].(*prometheus.CounterVec)
	r.latency = collectors[1].(*prometheus.HistogramVec)
	r.applications = collectors[2].(*prometheus.CounterVec)
	r.decisions = collectors[3].(*prometheus.CounterVec)
	r.counterDrifts = collectors[4].(prometheus.Counter)
	return r, nil
}

func (r *Recorder) ObserveRequest(route, method string, status int, d time.Duration) {
	if r == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	r.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	r.latency.WithLabelValues(route, method).Observe(d.Seconds())
}

// Application outcomes.
const (
	OutcomeAccepted  = "accepted"
	OutcomeDuplicate = "duplicate"
	OutcomeRejected  = "rejected"
)

func (r *Recorder) ApplicationSubmitted(outcome string) {
	if r == nil {
		return
	}
	r.applications.WithLabelValues(outcome).Inc()
}

func (r *Recorder) StatusDecided(status string) {
	if r == nil {
		return
	}
	r.decisions.WithLabelValues(status).Inc()
}

func (r *Recorder) CounterRepaired(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.counterDrifts.Add(float64(n))
}
