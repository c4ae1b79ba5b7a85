// Package platform runs the aggregate execution cycle of one device: drain
// the mailbox, build the round context, run the program, publish the export.
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package platform

import (
	"time"

	"github.com/NVIDIA/rufi/core"
)

// Update is one incoming unit from the transport: either a raw wire message
// or an asynchronously surfaced receive error.
type Update struct {
	Data []byte
	Err  error
}

// Network is the byte-level transport boundary. Implementations deliver
// incoming messages on a bounded channel; the platform never blocks on it
// outside the cooperative variant.
type Network interface {
	// Subscribe adds the given device ids to the reception set.
	Subscribe(ids []int32) error
	// Send publishes one wire message on the device's own topic.
	Send(payload []byte) error
	// Updates is the stream of incoming messages and receive errors.
	Updates() <-chan Update
	Close() error
}

// Discovery provides the current neighbor set.
type Discovery interface {
	DiscoverNeighbors() []int32
}

// NbrSensorSetup populates the per-neighbor sensors for a round.
type NbrSensorSetup interface {
	NbrSensorSetup(nbrs []int32) core.NbrSensors
}

// Time abstracts the inter-round sleep.
type Time interface {
	Sleep(d time.Duration)
}

// ExportHook observes the Export produced by each round.
type ExportHook func(*core.Export)
