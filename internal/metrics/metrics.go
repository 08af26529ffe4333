// Package metrics exposes prometheus counters for inbound frame handling.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

type Metrics struct {
	frames   *prometheus.CounterVec
	outbound *prometheus.CounterVec
}

// New creates the counters and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		frames: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "nostrwire",
				Subsystem: "inbound",
				Name:      "frames_total",
				Help:      "Inbound frames by classification outcome.",
			},
			[]string{"outcome", "mode"},
		),
		outbound: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "nostrwire",
				Subsystem: "outbound",
				Name:      "messages_total",
				Help:      "Outbound messages by label.",
			},
			[]string{"label"},
		),
	}
	for _, c := range []prometheus.Collector{m.frames, m.outbound} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveFrame counts one inbound frame. A nil receiver is a no-op.
func (m *Metrics) ObserveFrame(outcome, mode string) {
	if m == nil {
		return
	}
	m.frames.WithLabelValues(outcome, mode).Inc()
}

// ObserveOutbound counts one sent message. A nil receiver is a no-op.
func (m *Metrics) ObserveOutbound(label string) {
	if m == nil {
		return
	}
	m.outbound.WithLabelValues(label).Inc()
}

// FrameCount returns the current count for an outcome and mode.
func (m *Metrics) FrameCount(outcome, mode string) float64 {
	if m == nil {
		return 0
	}
	return counterValue(m.frames.WithLabelValues(outcome, mode))
}

// Handler serves the metrics gathered from g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func counterValue(c prometheus.Counter) float64 {
	var pb dto.Metric
	if err := c.Write(&pb); err != nil {
		return 0
	}
	return pb.GetCounter().GetValue()
}
