// Package core implements the aggregate computing engine: alignment paths,
// per-round exports, and the round virtual machine.
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package core

import (
	"github.com/NVIDIA/rufi/cmn/debug"
)

type frame struct {
	path      Path
	index     int32
	neighbour int32
	folding   bool
}

// VMStatus is the mutable traversal cursor of a round: the current alignment
// Path, the sibling counter at the current level, the neighbor currently
// being folded over, and a save/restore stack.
//
// Invariant: Push balances with Pop along every exit path; after a round the
// status is back to its initial state.
type VMStatus struct {
	frame
	stack []frame
}

func (st *VMStatus) Path() Path    { return st.path }
func (st *VMStatus) Index() int32  { return st.index }
func (st *VMStatus) Depth() int    { return len(st.stack) }
func (st *VMStatus) IsFolding() bool { return st.folding }

func (st *VMStatus) Neighbour() (int32, bool) { return st.neighbour, st.folding }

func (st *VMStatus) FoldInto(neighbour int32) {
	st.neighbour, st.folding = neighbour, true
}

func (st *VMStatus) FoldOut() {
	st.neighbour, st.folding = 0, false
}

// Push saves the current (path, index, neighbour) frame.
func (st *VMStatus) Push() { st.stack = append(st.stack, st.frame) }

// Pop restores the most recently saved frame; underflow is a programming
// error.
func (st *VMStatus) Pop() {
	debug.Assert(len(st.stack) > 0, "status stack underflow")
	st.frame = st.stack[len(st.stack)-1]
	st.stack = st.stack[:len(st.stack)-1]
}

// Nest enters a child frame at slot.
func (st *VMStatus) Nest(slot Slot) {
	st.path = st.path.Push(slot)
	st.index = 0
}

// IncIndex advances to the next sibling site at the current level.
func (st *VMStatus) IncIndex() { st.index++ }

func (st *VMStatus) restoreNeighbour(neighbour int32, folding bool) {
	st.neighbour, st.folding = neighbour, folding
}
