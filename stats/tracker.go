// Package stats provides Prometheus counters and latencies for the device
// execution cycle.
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package stats

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Tracker accumulates per-device round and transport metrics. A nil Tracker
// is valid and disables collection.
type Tracker struct {
	rounds   prometheus.Counter
	sendErrs prometheus.Counter
	recvErrs prometheus.Counter
	dropped  prometheus.Counter
	roundLat prometheus.Histogram
}

// New registers and returns a Tracker labeled with the device id.
func New(deviceID int32) *Tracker {
	constLabels := prometheus.Labels{"device": strconv.Itoa(int(deviceID))}
	t := &Tracker{
		rounds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rufi", Name: "rounds_total",
			Help: "Rounds executed.", ConstLabels: constLabels,
		}),
		sendErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rufi", Name: "send_errors_total",
			Help: "Transport send failures.", ConstLabels: constLabels,
		}),
		recvErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rufi", Name: "receive_errors_total",
			Help: "Transport receive and deserialize failures.", ConstLabels: constLabels,
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rufi", Name: "dropped_messages_total",
			Help: "Messages dropped on update-channel overflow.", ConstLabels: constLabels,
		}),
		roundLat: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rufi", Name: "round_duration_seconds",
			Help: "Round execution latency.", ConstLabels: constLabels,
			Buckets: prometheus.DefBuckets,
		}),
	}
	prometheus.MustRegister(t.rounds, t.sendErrs, t.recvErrs, t.dropped, t.roundLat)
	return t
}

func (t *Tracker) Round(d time.Duration) {
	if t == nil {
		return
	}
	t.rounds.Inc()
	t.roundLat.Observe(d.Seconds())
}

func (t *Tracker) SendError() {
	if t == nil {
		return
	}
	t.sendErrs.Inc()
}

func (t *Tracker) ReceiveError() {
	if t == nil {
		return
	}
	t.recvErrs.Inc()
}

func (t *Tracker) Dropped() {
	if t == nil {
		return
	}
	t.dropped.Inc()
}
