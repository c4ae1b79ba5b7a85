// Package platform runs the aggregate execution cycle of one device: drain
// the mailbox, build the round context, run the program, publish the export.
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package platform

import (
	"github.com/NVIDIA/rufi/core"
)

// Messages is one mailbox snapshot: at most one message per neighbor.
type Messages map[int32]Message

// AsStates projects a snapshot onto the neighbor -> Export map consumed by
// the round context.
func (ms Messages) AsStates() core.Exports {
	states := make(core.Exports, len(ms))
	for id, msg := range ms {
		states[id] = msg.Export
	}
	return states
}

// Mailbox collapses incoming per-neighbor messages under a policy. Draining
// an empty mailbox is legal and yields an empty snapshot; under non-memoryless
// policies re-entrant drains consume the ordered store and may differ.
type Mailbox interface {
	Enqueue(msg Message)
	Messages() Messages
}

// memoryless keeps one slot per neighbor, overwritten on enqueue.
type memoryless struct {
	msgs Messages
}

// NewMemoryless returns the memory-less policy: only the last message
// received from each neighbor is kept.
func NewMemoryless() Mailbox { return &memoryless{msgs: make(Messages)} }

func (mb *memoryless) Enqueue(msg Message) { mb.msgs[msg.Source] = msg }

func (mb *memoryless) Messages() Messages {
	snap := make(Messages, len(mb.msgs))
	for id, msg := range mb.msgs {
		snap[id] = msg
	}
	return snap
}
