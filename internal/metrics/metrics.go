// Package metrics содержит метрики Prometheus сервиса автолотереи.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry содержит коллекторы сервиса.
var Registry = prometheus.NewRegistry()

var (
	importBatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "carlottery",
			Subsystem: "import",
			Name:      "batches_total",
			Help:      "Total number of statement import batches.",
		},
		[]string{"status"},
	)

	importRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "carlottery",
			Subsystem: "import",
			Name:      "rows_total",
			Help:      "Statement rows processed by outcome.",
		},
		[]string{"outcome"},
	)

	ticketsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "carlottery",
			Name:      "tickets_created_total",
			Help:      "Total number of issued lottery tickets.",
		},
	)

	importDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "carlottery",
			Subsystem: "import",
			Name:      "duration_seconds",
			Help:      "Duration of statement import batches.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "carlottery",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)
)

func init() {
	Registry.MustRegister(
		importBatches,
		importRows,
		ticketsCreated,
		importDuration,
		httpRequests,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Исходы обработки строки выписки.
const (
	OutcomeTickets      = "tickets"
	OutcomeDuplicate    = "duplicate"
	OutcomeInsufficient = "insufficient"
	OutcomeNoPhone      = "no_phone"
)

// ImportCounts содержит итоги одного импорта для метрик.
type ImportCounts struct {
	WithTickets  int
	Duplicate    int
	Insufficient int
	NoPhone      int
	Tickets      int
}

// ObserveImport учитывает завершённый импорт. При err != nil учитывается только статус и длительность.
func ObserveImport(counts ImportCounts, duration time.Duration, err error) {
	importDuration.Observe(duration.Seconds())

	if err != nil {
		importBatches.WithLabelValues("failed").Inc()
		return
	}

	importBatches.WithLabelValues("committed").Inc()
	importRows.WithLabelValues(OutcomeTickets).Add(float64(counts.WithTickets))
	importRows.WithLabelValues(OutcomeDuplicate).Add(float64(counts.Duplicate))
	importRows.WithLabelValues(OutcomeInsufficient).Add(float64(counts.Insufficient))
	importRows.WithLabelValues(OutcomeNoPhone).Add(float64(counts.NoPhone))
	ticketsCreated.Add(float64(counts.Tickets))
}

// TicketIssued учитывает билет, выданный вручную.
func TicketIssued() {
	ticketsCreated.Inc()
}

// Handler возвращает HTTP-обработчик с зарегистрированными метриками.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler считает HTTP-запросы по шаблону маршрута chi.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
