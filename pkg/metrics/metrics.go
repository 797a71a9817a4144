package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// DispatchCycles counts completed dispatch cycles per outcome:
	// ok, abandoned, stopped.
	DispatchCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alertify_dispatch_cycles_total",
		Help: "Completed alert dispatch cycles by outcome.",
	}, []string{"result"})

	// Sends counts individual channel sends by delivery code.
	Sends = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alertify_sends_total",
		Help: "Channel sends by channel and delivery code.",
	}, []string{"channel", "code"})

	// SkippedTicks counts timer ticks dropped by the single-flight guard.
	SkippedTicks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alertify_ticks_skipped_total",
		Help: "Dispatch ticks dropped because a cycle was still in flight.",
	})

	// ActiveRepeaters tracks repeaters currently in the Running state.
	ActiveRepeaters = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "alertify_active_repeaters",
		Help: "Alert repeaters currently running.",
	})
)

// Handler exposes the default prometheus registry for gin.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
