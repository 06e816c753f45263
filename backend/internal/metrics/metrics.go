package metrics

import (
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Standard Prometheus collectors for the crisis service
var (
	// crisis_assessments_total{severity=none|low|medium|high}
	AssessmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crisis_assessments_total",
		Help: "Number of texts classified, by severity tier",
	}, []string{"severity"})

	// crisis_keyword_hits_total{category=suicidal|self_harm|crisis|urgent}
	KeywordHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crisis_keyword_hits_total",
		Help: "Number of matched phrases, by phrase category",
	}, []string{"category"})

	// crisis_dampened_total (counter): assessments with prevention context
	DampenedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crisis_dampened_total",
		Help: "Number of assessments whose confidence was capped by prevention context",
	})

	// crisis_dispatch_total{channel=voice|text, outcome=success|failure|fallback}
	DispatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crisis_dispatch_total",
		Help: "Emergency dispatch attempts, by channel and outcome",
	}, []string{"channel", "outcome"})

	// crisis_followups_scheduled_total (counter)
	FollowUpsScheduled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crisis_followups_scheduled_total",
		Help: "Number of follow-ups scheduled after a crisis",
	})

	// crisis_request_latency_seconds (histogram): API request duration
	LatencyHistogram = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crisis_request_latency_seconds",
		Help:    "API request processing latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)

// RecordAssessment increments the severity counter
func RecordAssessment(severity string) {
	AssessmentsTotal.WithLabelValues(severity).Inc()
}

// RecordKeywordHits adds n hits for a phrase category
func RecordKeywordHits(category string, n int) {
	if n > 0 {
		KeywordHits.WithLabelValues(category).Add(float64(n))
	}
}

// RecordDampened increments the dampener counter
func RecordDampened() {
	DampenedTotal.Inc()
}

// RecordDispatch increments the dispatch counter
func RecordDispatch(channel, outcome string) {
	DispatchTotal.WithLabelValues(channel, outcome).Inc()
}

// RecordFollowUp increments the follow-up counter
func RecordFollowUp() {
	FollowUpsScheduled.Inc()
}

// ObserveLatency records the duration of a request to route
func ObserveLatency(route string, seconds float64) {
	LatencyHistogram.WithLabelValues(route).Observe(seconds)
}

// Init logs that the collectors are registered (promauto registers them on import)
func Init() {
	log.Println("[metrics] Prometheus collectors initialized")
}
