package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kkal_http_requests_total",
			Help: "Total number of admin HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kkal_http_request_duration_seconds",
			Help:    "Admin HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	UpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kkal_telegram_updates_total",
			Help: "Total number of Telegram updates processed.",
		},
		[]string{"type"},
	)

	IntakesRecordedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kkal_intakes_recorded_total",
			Help: "Total number of intake events applied to the ledger.",
		},
	)

	ParseFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kkal_parse_failures_total",
			Help: "Total number of messages without a recognizable quantity.",
		},
	)

	ResetsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kkal_resets_total",
			Help: "Total number of daily-counter resets by origin.",
		},
		[]string{"origin"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		UpdatesTotal,
		IntakesRecordedTotal,
		ParseFailuresTotal,
		ResetsTotal,
	)
}
