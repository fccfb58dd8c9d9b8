package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	ResortsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ladder_resorts_total", Help: "Completed resort passes by ticker and side"},
		[]string{"ticker", "side"},
	)
	ResortFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ladder_resort_failures_total", Help: "Resort passes that failed by ticker and side"},
		[]string{"ticker", "side"},
	)
	ResortRequestsCoalescedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ladder_resort_requests_coalesced_total", Help: "Resort requests folded into an already pending one"},
		[]string{"ticker", "side"},
	)
	ResortDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "ladder_resort_duration_seconds", Help: "Time spent building one sorted view", Buckets: prometheus.ExponentialBuckets(1e-5, 4, 10)},
		[]string{"ticker", "side"},
	)
	ViewDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "ladder_view_depth", Help: "Entries in the last published view"},
		[]string{"ticker", "side"},
	)
	MutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ladder_mutations_total", Help: "Applied book mutations by ticker and operation"},
		[]string{"ticker", "op"},
	)
)

// Init registers every collector on a fresh registry.
func Init(logger zerolog.Logger) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	toRegister := []prometheus.Collector{
		ResortsTotal, ResortFailuresTotal, ResortRequestsCoalescedTotal,
		ResortDurationSeconds, ViewDepth, MutationsTotal,
		collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range toRegister {
		if err := reg.Register(c); err != nil {
			logger.Warn().Err(err).Msg("unable to register collector")
		}
	}
	logger.Info().Msg("prometheus metrics initialized")
	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
