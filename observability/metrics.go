package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	ticks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "animlayers",
			Subsystem: "controller",
			Name:      "ticks_total",
			Help:      "Total controller ticks.",
		},
	)
	tickDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "animlayers",
			Subsystem: "controller",
			Name:      "tick_duration_seconds",
			Help:      "Wall time spent computing one tick.",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		},
	)
	layerWeight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "animlayers",
			Subsystem: "mixer",
			Name:      "layer_weight",
			Help:      "Input weight applied to each layer on the last tick.",
		},
		[]string{"layer"},
	)
	commands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "animlayers",
			Subsystem: "commands",
			Name:      "total",
			Help:      "Commands applied, by source, type and outcome.",
		},
		[]string{"source", "type", "success"},
	)
	frames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "animlayers",
			Subsystem: "stream",
			Name:      "frames_total",
			Help:      "Frames handed to the broker, by outcome.",
		},
		[]string{"success"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "animlayers",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests. command is set on POST /command.",
		},
		[]string{"method", "path", "command", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "animlayers",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(ticks, tickDuration, layerWeight, commands, frames, httpRequests, httpDuration)
	})
}

func RecordTick(duration time.Duration, weights []float64) {
	RegisterMetrics()
	ticks.Inc()
	tickDuration.Observe(duration.Seconds())
	for i, w := range weights {
		layerWeight.WithLabelValues(strconv.Itoa(i)).Set(w)
	}
}

// ForgetLayer drops the weight series of a removed layer.
func ForgetLayer(id int) {
	RegisterMetrics()
	layerWeight.DeleteLabelValues(strconv.Itoa(id))
}

func RecordCommand(source, kind string, success bool) {
	RegisterMetrics()
	commands.WithLabelValues(source, kind, strconv.FormatBool(success)).Inc()
}

func RecordFrame(success bool) {
	RegisterMetrics()
	frames.WithLabelValues(strconv.FormatBool(success)).Inc()
}

func RecordHTTPRequest(method, path, command string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, command, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}
