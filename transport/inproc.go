// Package transport adapts the platform's byte-level network boundary to
// concrete pub-sub substrates (MQTT broker, plain HTTP push).
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package transport

import (
	"sync"

	"github.com/NVIDIA/rufi/platform"
	"github.com/NVIDIA/rufi/stats"
)

// Hub is an in-process pub-sub fabric: a broker stand-in for simulations and
// tests. Topic ids and delivery semantics mirror the MQTT transport -
// at-most-once, bounded per-subscriber channels, oldest-drop on overflow.
type Hub struct {
	mtx  sync.Mutex
	subs map[int32][]*Inproc
}

func NewHub() *Hub { return &Hub{subs: make(map[int32][]*Inproc)} }

// NewNetwork attaches one device to the hub.
func (h *Hub) NewNetwork(self int32, tracker *stats.Tracker) *Inproc {
	return &Inproc{
		hub:     h,
		self:    self,
		updates: make(chan platform.Update, updateChCap),
		tracker: tracker,
	}
}

// Inproc is a device's endpoint on a Hub.
type Inproc struct {
	hub     *Hub
	updates chan platform.Update
	tracker *stats.Tracker
	self    int32
}

// interface guard
var _ platform.Network = (*Inproc)(nil)

func (n *Inproc) Subscribe(ids []int32) error {
	n.hub.mtx.Lock()
	for _, id := range ids {
		n.hub.subs[id] = append(n.hub.subs[id], n)
	}
	n.hub.mtx.Unlock()
	return nil
}

func (n *Inproc) Send(payload []byte) error {
	n.hub.mtx.Lock()
	subs := append([]*Inproc(nil), n.hub.subs[n.self]...)
	n.hub.mtx.Unlock()
	for _, sub := range subs {
		push(sub.updates, platform.Update{Data: payload}, sub.tracker)
	}
	return nil
}

func (n *Inproc) Updates() <-chan platform.Update { return n.updates }

func (n *Inproc) Close() error { return nil }
