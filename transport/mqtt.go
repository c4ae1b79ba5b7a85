// Package transport adapts the platform's byte-level network boundary to
// concrete pub-sub substrates (MQTT broker, plain HTTP push).
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package transport

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"github.com/teris-io/shortid"

	"github.com/NVIDIA/rufi/platform"
	"github.com/NVIDIA/rufi/stats"
)

const (
	// each device publishes on its own topic and subscribes to its neighbors'
	topicFmt = "hello-rufi/%d/subscriptions"

	updateChCap = 100 // bounded updates channel; overflow drops oldest
	inflightCap = 10  // client-side message channel depth

	connectTimeout = 10 * time.Second
	keepAlive      = 5 * time.Second
	disconnectWait = 250 // ms
)

func Topic(id int32) string { return fmt.Sprintf(topicFmt, id) }

// MQTT is the reference transport: QoS at-most-once over a broker.
type MQTT struct {
	client  mqtt.Client
	updates chan platform.Update
	tracker *stats.Tracker
	self    int32
}

// interface guard
var _ platform.Network = (*MQTT)(nil)

// NewMQTT connects to the broker. The client id carries a short random
// suffix so that a restarted device does not take over its own dangling
// broker session.
func NewMQTT(broker string, self int32, tracker *stats.Tracker) (*MQTT, error) {
	suffix, err := shortid.Generate()
	if err != nil {
		return nil, errors.Wrap(err, "mqtt: client id")
	}
	n := &MQTT{
		updates: make(chan platform.Update, updateChCap),
		tracker: tracker,
		self:    self,
	}
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(fmt.Sprintf("device#%d-%s", self, suffix)).
		SetKeepAlive(keepAlive).
		SetAutoReconnect(true).
		SetMessageChannelDepth(inflightCap)
	n.client = mqtt.NewClient(opts)

	token := n.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, errors.Errorf("mqtt: connect to %s timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, errors.Wrapf(err, "mqtt: connect to %s", broker)
	}
	return n, nil
}

func (n *MQTT) Subscribe(ids []int32) error {
	filters := make(map[string]byte, len(ids))
	for _, id := range ids {
		filters[Topic(id)] = 0 // at-most-once
	}
	token := n.client.SubscribeMultiple(filters, n.onMessage)
	token.Wait()
	return errors.Wrapf(token.Error(), "mqtt: subscribe %v", ids)
}

func (n *MQTT) Send(payload []byte) error {
	token := n.client.Publish(Topic(n.self), 0, false, payload)
	token.Wait()
	return errors.Wrap(token.Error(), "mqtt: publish")
}

func (n *MQTT) Updates() <-chan platform.Update { return n.updates }

func (n *MQTT) Close() error {
	n.client.Disconnect(disconnectWait)
	return nil
}

func (n *MQTT) onMessage(_ mqtt.Client, m mqtt.Message) {
	push(n.updates, platform.Update{Data: m.Payload()}, n.tracker)
}

// push never blocks the transport callback: a full channel sheds its oldest
// update first.
func push(ch chan platform.Update, u platform.Update, tracker *stats.Tracker) {
	select {
	case ch <- u:
		return
	default:
	}
	select {
	case <-ch:
		tracker.Dropped()
	default:
	}
	select {
	case ch <- u:
	default:
		tracker.Dropped()
	}
}
