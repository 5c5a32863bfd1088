package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptwizard_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "promptwizard_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	PromptsBuiltTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "promptwizard_prompts_built_total",
			Help: "Total number of prompts assembled offline.",
		},
	)

	EnhancementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptwizard_enhancements_total",
			Help: "Total number of enhancement attempts by outcome.",
		},
		[]string{"outcome"},
	)

	QuotaDenialsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptwizard_quota_denials_total",
			Help: "Total number of quota denials by reason.",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		PromptsBuiltTotal,
		EnhancementsTotal,
		QuotaDenialsTotal,
	)
}
