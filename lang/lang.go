// Package lang provides the aggregate operators: the alignment rules of the
// language are encoded here, on top of the core round VM.
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package lang

import (
	"github.com/NVIDIA/rufi/core"
)

// Lift wraps a constant into an expression.
func Lift[A any](v A) func(*core.RoundVM) A {
	return func(*core.RoundVM) A { return v }
}

// Mid yields the id of the current device. No alignment slot.
func Mid(vm *core.RoundVM) int32 { return vm.SelfID() }

// Nbr observes the value of expr across neighbors. When folding on another
// device it reads that device's last Export at the aligned Path, falling back
// to the local value of expr on a miss; outside folding (or folding on self)
// it evaluates expr locally and records the result.
func Nbr[A any](vm *core.RoundVM, expr func(*core.RoundVM) A) A {
	return core.Nest(vm, core.Nbr(vm.Index()), vm.UnlessFoldingOnOthers(), true,
		func(vm *core.RoundVM) A {
			if n, folding := vm.Neighbor(); folding && n != vm.SelfID() {
				if val, err := core.NeighborVal[A](vm); err == nil {
					return val
				}
			}
			return expr(vm)
		})
}

// Rep iteratively updates expr at each device using the last computed value:
// fun is applied to the previous round's value at the aligned Path, or to
// init's value on the very first round.
func Rep[A any](vm *core.RoundVM, init func(*core.RoundVM) A, fun func(*core.RoundVM, A) A) A {
	return core.Nest(vm, core.Rep(vm.Index()), vm.UnlessFoldingOnOthers(), true,
		func(vm *core.RoundVM) A {
			if prev, err := core.PreviousRoundVal[A](vm); err == nil {
				return fun(vm, prev)
			}
			return fun(vm, init(vm))
		})
}

// Foldhood aggregates expr over the aligned neighborhood: expr is evaluated
// once per aligned neighbor (self included) with that neighbor bound, and the
// contributions are folded left-to-right from init's value with aggr.
func Foldhood[A any](vm *core.RoundVM, init func(*core.RoundVM) A, aggr func(A, A) A, expr func(*core.RoundVM) A) A {
	return core.Nest(vm, core.FoldHood(vm.Index()), true, true,
		func(vm *core.RoundVM) A {
			seed := core.Locally(vm, init)
			ids := core.AlignedNeighbours[A](vm)
			field := make([]A, 0, len(ids))
			for _, id := range ids {
				field = append(field, core.FoldedEval(vm, id, expr))
			}
			// the combiner runs on the assembled field; no alignment lookups
			return core.Isolate(vm, func(*core.RoundVM) A {
				acc := seed
				for _, v := range field {
					acc = aggr(acc, v)
				}
				return acc
			})
		})
}

// Branch partitions the domain: cond is evaluated locally and exactly one of
// thn/els runs (the non-taken branch leaves no trace in the Export). When
// folding on another device the branch taken is the one observable in that
// device's Export at the aligned Path; a device absent there is not in this
// branch, and its contribution degrades to the locally-selected value.
func Branch[A any](vm *core.RoundVM, cond func(*core.RoundVM) bool, thn, els func(*core.RoundVM) A) A {
	return core.Nest(vm, core.Branch(vm.Index()), vm.UnlessFoldingOnOthers(), true,
		func(vm *core.RoundVM) A {
			tag := core.Locally(vm, cond)
			if n, folding := vm.Neighbor(); folding && n != vm.SelfID() {
				if val, err := core.NeighborVal[A](vm); err == nil {
					return val
				}
			}
			if tag {
				return core.Locally(vm, thn)
			}
			return core.Locally(vm, els)
		})
}
