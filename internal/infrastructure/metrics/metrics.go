// Package metrics holds the Prometheus collectors of Timory Hub.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/timory/timory-hub/internal/domain/engagement"
)

// Recorder implements the metric sinks of the engagement service, the
// scheduler and the HTTP layer.
type Recorder struct {
	likesToggled    *prometheus.CounterVec
	viewsRecorded   *prometheus.CounterVec
	counterAdjusted *prometheus.CounterVec
	jobDuration     *prometheus.HistogramVec
	jobFailures     *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		likesToggled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timory_likes_toggled_total",
			Help: "Like toggles by target group and direction",
		}, []string{"group", "direction"}),
		viewsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timory_views_recorded_total",
			Help: "View attempts by target group, new or repeat",
		}, []string{"group", "result"}),
		counterAdjusted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timory_counter_adjust_total",
			Help: "Counter adjustments by entity and outcome",
		}, []string{"entity", "result"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "timory_batch_job_duration_seconds",
			Help:    "Batch job run time",
			Buckets: []float64{.05, .1, .5, 1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"job"}),
		jobFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timory_batch_job_failures_total",
			Help: "Failed batch job runs",
		}, []string{"job"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timory_http_requests_total",
			Help: "HTTP requests by route pattern and status",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "timory_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}

	reg.MustRegister(
		r.likesToggled,
		r.viewsRecorded,
		r.counterAdjusted,
		r.jobDuration,
		r.jobFailures,
		r.httpRequests,
		r.httpDuration,
	)
	return r
}

// LikeToggled records a toggle; modifier is +1, -1 or 0 for a lost race.
func (r *Recorder) LikeToggled(group engagement.Group, modifier int) {
	direction := "raced"
	switch {
	case modifier > 0:
		direction = "added"
	case modifier < 0:
		direction = "removed"
	}
	r.likesToggled.WithLabelValues(string(group), direction).Inc()
}

func (r *Recorder) ViewRecorded(group engagement.Group, created bool) {
	result := "repeat"
	if created {
		result = "new"
	}
	r.viewsRecorded.WithLabelValues(string(group), result).Inc()
}

func (r *Recorder) CounterAdjusted(entity string, err error) {
	r.counterAdjusted.WithLabelValues(entity, outcome(err)).Inc()
}

// JobFinished records one scheduler run.
func (r *Recorder) JobFinished(job string, d time.Duration, err error) {
	r.jobDuration.WithLabelValues(job).Observe(d.Seconds())
	if err != nil {
		r.jobFailures.WithLabelValues(job).Inc()
	}
}

// ObserveHTTP records one request against its route pattern.
func (r *Recorder) ObserveHTTP(route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	r.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
