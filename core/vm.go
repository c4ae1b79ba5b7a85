// Package core implements the aggregate computing engine: alignment paths,
// per-round exports, and the round virtual machine.
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package core

import (
	"sort"

	"github.com/NVIDIA/rufi/cmn/debug"
)

// RoundVM binds the per-round Context (read-only), the traversal cursor, and
// the Export under construction. One RoundVM is created per round and drives a
// single-threaded, sequential evaluation of the program.
type RoundVM struct {
	ctx         *Context
	status      VMStatus
	exportStack []*Export // top is current
	isolated    bool
}

func NewRoundVM(ctx *Context) *RoundVM { return &RoundVM{ctx: ctx} }

// NewExportStack pushes a fresh Export; must be called before the round.
func (vm *RoundVM) NewExportStack() { vm.exportStack = append(vm.exportStack, NewExport()) }

// ExportData returns the current Export.
func (vm *RoundVM) ExportData() *Export {
	debug.Assert(len(vm.exportStack) > 0, "no export stack")
	return vm.exportStack[len(vm.exportStack)-1]
}

func (vm *RoundVM) Context() *Context { return vm.ctx }
func (vm *RoundVM) SelfID() int32     { return vm.ctx.SelfID() }
func (vm *RoundVM) Index() int32      { return vm.status.Index() }
func (vm *RoundVM) Isolated() bool    { return vm.isolated }

// Neighbor returns the neighbor currently being folded over, if any.
func (vm *RoundVM) Neighbor() (int32, bool) { return vm.status.Neighbour() }

// RegisterRoot records v at the root Path of the current Export.
func (vm *RoundVM) RegisterRoot(v any) { vm.ExportData().Put(Path{}, v) }

// UnlessFoldingOnOthers reports whether the VM is not folding at all, or is
// folding on the device itself.
func (vm *RoundVM) UnlessFoldingOnOthers() bool {
	n, folding := vm.status.Neighbour()
	return !folding || n == vm.SelfID()
}

// OnlyWhenFoldingOnSelf reports whether the VM is folding on the device
// itself.
func (vm *RoundVM) OnlyWhenFoldingOnSelf() bool {
	n, folding := vm.status.Neighbour()
	return folding && n == vm.SelfID()
}

// Nest is the alignment pillar: it enters the child frame at slot, evaluates
// body there, and - when write is set - records body's value at the resulting
// Path in the current Export. A Path already populated keeps its first-written
// value, and the recorded value is what Nest returns. When inc is set the
// restored frame's sibling counter advances so the following site gets a
// distinct slot index.
func Nest[A any](vm *RoundVM, slot Slot, write, inc bool, body func(*RoundVM) A) A {
	vm.status.Push()
	vm.status.Nest(slot)
	val := body(vm)

	res := val
	if write {
		path := vm.status.Path()
		if prev, err := GetAs[A](vm.ExportData(), path); err == nil {
			res = prev
		} else {
			vm.ExportData().Put(path, val)
		}
	}
	vm.status.Pop()
	if inc {
		vm.status.IncIndex()
	}
	return res
}

// Locally evaluates body with the folding neighbor temporarily cleared, so
// that subexpressions do not behave as reads of a neighbor's export.
func Locally[A any](vm *RoundVM, body func(*RoundVM) A) A {
	n, folding := vm.status.Neighbour()
	vm.status.FoldOut()
	res := body(vm)
	vm.status.restoreNeighbour(n, folding)
	return res
}

// FoldedEval evaluates body with the given neighbor bound, computing that
// neighbor's contribution to a fold; the status is restored verbatim on exit.
func FoldedEval[A any](vm *RoundVM, id int32, body func(*RoundVM) A) A {
	vm.status.Push()
	vm.status.FoldInto(id)
	res := body(vm)
	vm.status.Pop()
	return res
}

// Isolate evaluates body with alignment lookups disabled: AlignedNeighbours
// returns no one for the duration.
func Isolate[A any](vm *RoundVM, body func(*RoundVM) A) A {
	was := vm.isolated
	vm.isolated = true
	res := body(vm)
	vm.isolated = was
	return res
}

// AlignedNeighbours returns the ids whose latest Export holds a value at the
// current Path readable as A; at the root Path every neighbor is aligned.
// Self comes first, the rest in ascending order (the fold order is part of
// the engine's determinism contract). Empty while isolated.
func AlignedNeighbours[A any](vm *RoundVM) []int32 {
	if vm.isolated {
		return nil
	}
	var (
		path = vm.status.Path()
		rest = make([]int32, 0, len(vm.ctx.Exports()))
	)
	for id, e := range vm.ctx.Exports() {
		if id == vm.SelfID() {
			continue
		}
		if !path.IsRoot() {
			if _, err := GetAs[A](e, path); err != nil {
				continue
			}
		}
		rest = append(rest, id)
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	return append([]int32{vm.SelfID()}, rest...)
}

// PreviousRoundVal reads the device's own last-round value at the current
// Path.
func PreviousRoundVal[A any](vm *RoundVM) (A, error) {
	return ReadExportValue[A](vm.ctx, vm.SelfID(), vm.status.Path())
}

// NeighborVal reads the current folding neighbor's value at the current Path;
// it fails when not folding.
func NeighborVal[A any](vm *RoundVM) (A, error) {
	n, folding := vm.status.Neighbour()
	if !folding {
		var zero A
		return zero, NewErrBadValue("not folding")
	}
	return ReadExportValue[A](vm.ctx, n, vm.status.Path())
}

// LocalSense reads a local sensor typed-as A.
func LocalSense[A any](vm *RoundVM, id SensorID) (A, bool) {
	v, ok := vm.ctx.LocalSense(id)
	if !ok {
		var zero A
		return zero, false
	}
	t, ok := v.(A)
	return t, ok
}

// NbrSense reads the given sensor of the current folding neighbor typed-as A.
func NbrSense[A any](vm *RoundVM, id SensorID) (A, bool) {
	n, folding := vm.status.Neighbour()
	if !folding {
		var zero A
		return zero, false
	}
	v, ok := vm.ctx.NbrSense(id, n)
	if !ok {
		var zero A
		return zero, false
	}
	t, ok := v.(A)
	return t, ok
}
