// Package lang provides the aggregate operators: the alignment rules of the
// language are encoded here, on top of the core round VM.
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package lang

import (
	"github.com/NVIDIA/rufi/core"
)

// Round runs program once against the VM's Context and registers the
// top-level result at the root Path. Post-condition: the current Export holds
// the root entry plus one entry per alignment Path the program visited, and
// the VM status is back to its initial state.
func Round[A any](vm *core.RoundVM, program func(*core.RoundVM) A) A {
	res := program(vm)
	vm.RegisterRoot(res)
	root, err := core.RootAs[A](vm.ExportData())
	if err != nil {
		return res
	}
	return root
}
