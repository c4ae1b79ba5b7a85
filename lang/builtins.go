// Package lang provides the aggregate operators: the alignment rules of the
// language are encoded here, on top of the core round VM.
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package lang

import (
	"github.com/NVIDIA/rufi/core"
)

// Mux evaluates cond, th and el, returning the value selected by cond. Unlike
// Branch, both alternatives run and populate the Export - the whole field
// stays aligned on both subexpressions.
func Mux[A any](vm *core.RoundVM, cond func(*core.RoundVM) bool, th, el func(*core.RoundVM) A) A {
	flag := cond(vm)
	thVal := th(vm)
	elVal := el(vm)
	if flag {
		return thVal
	}
	return elVal
}

// FoldhoodPlus is Foldhood with self excluded from the neighbor
// contributions: self's expr value is replaced by init.
func FoldhoodPlus[A any](vm *core.RoundVM, init func(*core.RoundVM) A, aggr func(A, A) A, expr func(*core.RoundVM) A) A {
	return Foldhood(vm, init, aggr, func(vm *core.RoundVM) A {
		selfID := Mid(vm)
		nbrID := Nbr(vm, Mid)
		return Mux(vm,
			func(*core.RoundVM) bool { return selfID == nbrID },
			init, expr)
	})
}
