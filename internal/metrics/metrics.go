// Package metrics exposes Prometheus instrumentation for the
// scheduling engine: replan activity, gateway outcomes, deliveries and
// sync migrations.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine's counters on a private registry so tests
// can construct isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	ReplansTotal                prometheus.Counter
	ScheduleAttemptsTotal       prometheus.Counter
	ScheduleFailuresTotal       prometheus.Counter
	NotificationsDeliveredTotal prometheus.Counter
	DeliveryFailuresTotal       prometheus.Counter
	MigrationsTotal             prometheus.Counter
	SyncFailuresTotal           prometheus.Counter
}

// New creates a Metrics instance with all counters registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ReplansTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "billdue_replans_total",
			Help: "Number of notification replan cycles executed.",
		}),
		ScheduleAttemptsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "billdue_schedule_attempts_total",
			Help: "Number of per-bill schedule calls issued to the gateway.",
		}),
		ScheduleFailuresTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "billdue_schedule_failures_total",
			Help: "Number of gateway schedule calls that failed.",
		}),
		NotificationsDeliveredTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "billdue_notifications_delivered_total",
			Help: "Number of notifications handed to the delivery sink.",
		}),
		DeliveryFailuresTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "billdue_delivery_failures_total",
			Help: "Number of notification deliveries that failed.",
		}),
		MigrationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "billdue_sync_migrations_total",
			Help: "Number of local-to-remote migrations completed.",
		}),
		SyncFailuresTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "billdue_sync_failures_total",
			Help: "Number of failed session sync transitions.",
		}),
	}
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
