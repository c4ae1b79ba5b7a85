// Package core implements the aggregate computing engine: alignment paths,
// per-round exports, and the round virtual machine.
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package core

import (
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/NVIDIA/rufi/cmn/debug"
)

// Path names a syntactic point of the program as traversed so far. It behaves
// as an immutable stack of slots: the head is the most recently entered slot.
// Two devices align at a construct iff they reach it via matching Paths.
//
// The zero value is the root (empty) Path.
type Path struct {
	slots []Slot // in push order; head = slots[len-1]
}

// NewPath builds a Path by pushing the given slots in order, i.e. the last
// argument becomes the head.
func NewPath(slots ...Slot) Path {
	if len(slots) == 0 {
		return Path{}
	}
	p := Path{slots: make([]Slot, len(slots))}
	copy(p.slots, slots)
	return p
}

// Push returns a new Path with slot as its head.
func (p Path) Push(slot Slot) Path {
	slots := make([]Slot, len(p.slots)+1)
	copy(slots, p.slots)
	slots[len(p.slots)] = slot
	return Path{slots: slots}
}

// Pull returns the Path with its head removed. Pulling the root is a
// programming error.
func (p Path) Pull() Path {
	debug.Assert(!p.IsRoot(), "pull on root path")
	if p.IsRoot() {
		return p
	}
	return Path{slots: p.slots[:len(p.slots)-1]}
}

func (p Path) IsRoot() bool { return len(p.slots) == 0 }

func (p Path) Len() int { return len(p.slots) }

func (p Path) Head() (Slot, bool) {
	if p.IsRoot() {
		return Slot{}, false
	}
	return p.slots[len(p.slots)-1], true
}

func (p Path) Matches(other Path) bool {
	if len(p.slots) != len(other.slots) {
		return false
	}
	for i := range p.slots {
		if p.slots[i] != other.slots[i] {
			return false
		}
	}
	return true
}

// Slots returns the slot sequence in push order (head last).
func (p Path) Slots() []Slot {
	slots := make([]Slot, len(p.slots))
	copy(slots, p.slots)
	return slots
}

// String renders the Path head-first: P://Nbr(0)/FoldHood(0)/Rep(0)
func (p Path) String() string {
	var sb strings.Builder
	sb.WriteString("P://")
	for i := len(p.slots) - 1; i >= 0; i-- {
		if i != len(p.slots)-1 {
			sb.WriteByte('/')
		}
		sb.WriteString(p.slots[i].String())
	}
	return sb.String()
}

// wire form: array of slots, head first
func (p Path) MarshalJSON() ([]byte, error) {
	reversed := make([]Slot, len(p.slots))
	for i, s := range p.slots {
		reversed[len(p.slots)-1-i] = s
	}
	return jsoniter.Marshal(reversed)
}

func (p *Path) UnmarshalJSON(b []byte) error {
	var reversed []Slot
	if err := jsoniter.Unmarshal(b, &reversed); err != nil {
		return err
	}
	p.slots = make([]Slot, len(reversed))
	for i, s := range reversed {
		p.slots[len(reversed)-1-i] = s
	}
	return nil
}
