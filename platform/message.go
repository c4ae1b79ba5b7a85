// Package platform runs the aggregate execution cycle of one device: drain
// the mailbox, build the round context, run the program, publish the export.
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package platform

import (
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/NVIDIA/rufi/core"
)

// Message is the unit exchanged between devices: one Export per publish.
type Message struct {
	Source    int32        `json:"source"`
	Export    *core.Export `json:"export"`
	Timestamp time.Time    `json:"timestamp"`
}

func NewMessage(source int32, export *core.Export, timestamp time.Time) Message {
	return Message{Source: source, Export: export, Timestamp: timestamp}
}

func (m *Message) Marshal() ([]byte, error) { return jsoniter.Marshal(m) }

func (m *Message) Unmarshal(b []byte) error { return jsoniter.Unmarshal(b, m) }
