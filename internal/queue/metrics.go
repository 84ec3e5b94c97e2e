//
// Date: 2026-02-15
// Copyright (c) 2026. All rights reserved.
//

package queue

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics mirrors a Queue's counters into Prometheus collectors so
// operators running many clients in one process can scrape aggregate
// backpressure. Registration is a no-op when no registerer is supplied to
// NewMetrics, keeping Prometheus entirely optional.
type Metrics struct {
	dataMessages  prometheus.Counter
	textMessages  prometheus.Counter
	droppedFrames prometheus.Counter
	malformed     prometheus.Counter
	queueDepth    prometheus.Gauge
}

// NewMetrics constructs and registers a Queue's Prometheus collectors under
// the given client label (distinguishing multiple clients in one process).
// If reg is nil, the collectors are created but never registered, so
// Observe calls remain cheap and side-effect-free for scraping.
func NewMetrics(reg prometheus.Registerer, clientLabel string) *Metrics {
	constLabels := prometheus.Labels{"client": clientLabel}

	m := &Metrics{
		dataMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "realtime_data_messages_total",
			Help:        "Total binary data messages received.",
			ConstLabels: constLabels,
		}),
		textMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "realtime_text_messages_total",
			Help:        "Total text control/ack messages received.",
			ConstLabels: constLabels,
		}),
		droppedFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "realtime_dropped_frames_total",
			Help:        "Total frames dropped due to queue overflow.",
			ConstLabels: constLabels,
		}),
		malformed: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "realtime_malformed_frames_total",
			Help:        "Total frames that failed to decode.",
			ConstLabels: constLabels,
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "realtime_queue_depth",
			Help:        "Current number of frames buffered in the event queue.",
			ConstLabels: constLabels,
		}),
	}

	if reg != nil {
		reg.MustRegister(m.dataMessages, m.textMessages, m.droppedFrames, m.malformed, m.queueDepth)
	}

	return m
}

// onPush records one incoming frame, counted as data or text, plus whether
// it was dropped for overflow.
func (m *Metrics) onPush(isText, dropped bool) {
	if m == nil {
		return
	}
	if isText {
		m.textMessages.Inc()
	} else {
		m.dataMessages.Inc()
	}
	if dropped {
		m.droppedFrames.Inc()
	}
}

// onMalformed records one frame that failed to decode.
func (m *Metrics) onMalformed() {
	if m == nil {
		return
	}
	m.malformed.Inc()
}

// setDepth records the current queue depth.
func (m *Metrics) setDepth(depth int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(depth))
}
