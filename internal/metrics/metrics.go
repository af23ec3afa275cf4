package metrics

import (
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CommandRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recapbot_command_runs_total",
		Help: "Total command invocations",
	}, []string{"command"})
	CommandErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recapbot_command_errors_total",
		Help: "Total failed command invocations",
	}, []string{"command"})
	RunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "recapbot_run_duration_seconds",
		Help:    "Report run duration seconds",
		Buckets: prometheus.DefBuckets,
	})
	PagesFetched = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recapbot_pages_fetched_total",
		Help: "History pages fetched from the source API",
	})
	EventsFetched = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recapbot_events_fetched_total",
		Help: "In-window events yielded by the fetcher",
	})
	RateLimitWaits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recapbot_rate_limit_waits_total",
		Help: "Rate-limit pauses before retrying a page",
	})
	EventsClassified = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recapbot_events_classified_total",
		Help: "Events seen by the classifier",
	}, []string{"result"})
	Deliveries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recapbot_deliveries_total",
		Help: "Reports delivered, by kind (post, schedule)",
	}, []string{"kind"})
)

func init() {
	prometheus.MustRegister(CommandRuns, CommandErrors, RunDuration, PagesFetched, EventsFetched, RateLimitWaits, EventsClassified, Deliveries)
}

// StartServer starts a metrics HTTP server on addr (e.g., ":9090").
func StartServer(addr string) {
	if addr == "" {
		addr = os.Getenv("METRICS_ADDR")
	}
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	go func() { _ = http.ListenAndServe(addr, mux) }()
}

func IncCommandRun(cmd string)   { CommandRuns.WithLabelValues(cmd).Inc() }
func IncCommandError(cmd string) { CommandErrors.WithLabelValues(cmd).Inc() }

// ObserveRunDuration records a run duration
func ObserveRunDuration(start time.Time) {
	RunDuration.Observe(time.Since(start).Seconds())
}

// IncClassified counts a classifier verdict ("counted" or "skipped").
func IncClassified(counted bool) {
	if counted {
		EventsClassified.WithLabelValues("counted").Inc()
		return
	}
	EventsClassified.WithLabelValues("skipped").Inc()
}

func IncDelivery(kind string) { Deliveries.WithLabelValues(kind).Inc() }
