package metrics

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlightGauge   prometheus.Gauge

	AppointmentsTotal   *prometheus.CounterVec
	SlotConflictsTotal  prometheus.Counter
	PrescriptionsIssued prometheus.Counter
	PaymentLinksTotal   *prometheus.CounterVec
	PaymentEventsTotal  *prometheus.CounterVec
	ChatChannelsCreated prometheus.Counter
	SideEffectFailures  *prometheus.CounterVec

	DBQueryDuration *prometheus.HistogramVec
	DBConnections   prometheus.Gauge

	AuditEntriesTotal  prometheus.Counter
	AuditBufferDropped prometheus.Counter
}

// NewCollector registers every metric on reg. Tests pass a fresh
// prometheus.NewRegistry(); the server passes prometheus.DefaultRegisterer.
func NewCollector(serviceName string, reg prometheus.Registerer) *Collector {
	ns := strings.ReplaceAll(serviceName, "-", "_")
	factory := promauto.With(reg)

	return &Collector{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path, and status code.",
		}, []string{"method", "path", "status"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "path", "status"}),

		InFlightGauge: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),

		AppointmentsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "booking",
			Name:      "appointments_total",
			Help:      "Appointment lifecycle events by kind.",
		}, []string{"event"}),

		SlotConflictsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "booking",
			Name:      "slot_unavailable_total",
			Help:      "Bookings and reschedules rejected because the slot was taken.",
		}),

		PrescriptionsIssued: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "clinical",
			Name:      "prescriptions_issued_total",
			Help:      "Total prescriptions written to medical records.",
		}),

		PaymentLinksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "payment",
			Name:      "links_total",
			Help:      "Payment link requests by outcome.",
		}, []string{"outcome"}),

		PaymentEventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "payment",
			Name:      "events_total",
			Help:      "Payment callbacks applied to medical records by resulting status.",
		}, []string{"status"}),

		ChatChannelsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "booking",
			Name:      "chat_channels_created_total",
			Help:      "Chat channels opened after appointment completion.",
		}),

		SideEffectFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "booking",
			Name:      "side_effect_failures_total",
			Help:      "Best-effort side effects that failed, by kind. Alert if rising.",
		}, []string{"kind"}),

		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database query latency distribution.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		}, []string{"operation", "table"}),

		DBConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Subsystem: "db",
			Name:      "open_connections",
			Help:      "Current number of open database connections.",
		}),

		AuditEntriesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "audit",
			Name:      "entries_total",
			Help:      "Total audit log entries written.",
		}),

		AuditBufferDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "audit",
			Name:      "buffer_dropped_total",
			Help:      "Audit entries dropped due to full buffer. Alert if non-zero.",
		}),
	}
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
