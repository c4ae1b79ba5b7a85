// Package programs carries reference aggregate programs.
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package programs_test

import (
	"testing"

	"github.com/NVIDIA/rufi/core"
	"github.com/NVIDIA/rufi/programs"
	"github.com/NVIDIA/rufi/tools"
	"github.com/NVIDIA/rufi/tools/tassert"
)

const lineLen = 5

// every device of [1]--[2]--[3]--[4]--[5] converges to its hop distance
// from the source
func TestGradientSingleSource(t *testing.T) {
	expected := map[int32]map[int32]float64{
		1: {1: 0, 2: 1, 3: 2, 4: 3, 5: 4},
		2: {1: 1, 2: 0, 3: 1, 4: 2, 5: 3},
		3: {1: 2, 2: 1, 3: 0, 4: 1, 5: 2},
		4: {1: 3, 2: 2, 3: 1, 4: 0, 5: 1},
		5: {1: 4, 2: 3, 3: 2, 4: 1, 5: 0},
	}
	for source := int32(1); source <= lineLen; source++ {
		tp := tools.Line(lineLen)
		tp.SetSource(source, true)
		tools.RunSchedule(tp, tools.FairSchedule(tp.Devices, 10), programs.Gradient)
		roots := tools.Roots[float64](t, tp)
		for d, want := range expected[source] {
			tassert.Errorf(t, roots[d] == want,
				"source %d, device %d: got %v, want %v", source, d, roots[d], want)
		}
	}
}

func TestGradientMultipleSources(t *testing.T) {
	tp := tools.Line(lineLen)
	tp.SetSource(1, true)
	tp.SetSource(5, true)
	tools.RunSchedule(tp, tools.FairSchedule(tp.Devices, 5), programs.Gradient)
	roots := tools.Roots[float64](t, tp)
	expected := map[int32]float64{1: 0, 2: 1, 3: 2, 4: 1, 5: 0}
	for d, want := range expected {
		tassert.Errorf(t, roots[d] == want, "device %d: got %v, want %v", d, roots[d], want)
	}
}

// the converged export carries exactly the gradient's alignment paths
func TestGradientExportShape(t *testing.T) {
	tp := tools.Line(lineLen)
	tp.SetSource(2, true)
	tools.RunSchedule(tp, tools.FairSchedule(tp.Devices, 5), programs.Gradient)

	want := map[string]bool{
		core.NewPath().String():                                           true,
		core.NewPath(core.Rep(0)).String():                                true,
		core.NewPath(core.Rep(0), core.FoldHood(0)).String():              true,
		core.NewPath(core.Rep(0), core.FoldHood(0), core.Nbr(0)).String(): true,
		core.NewPath(core.Rep(0), core.FoldHood(0), core.Nbr(1)).String(): true,
	}
	for _, d := range tp.Devices {
		export := tp.States[d].Exports[d]
		paths := export.Paths()
		tassert.Fatalf(t, len(paths) == len(want), "device %d: %d paths (%v)", d, len(paths), paths)
		for _, p := range paths {
			tassert.Errorf(t, want[p.String()], "device %d: unexpected path %s", d, p)
		}
	}

	roots := tools.Roots[float64](t, tp)
	expected := map[int32]float64{1: 1, 2: 0, 3: 1, 4: 2, 5: 3}
	for d, want := range expected {
		tassert.Errorf(t, roots[d] == want, "device %d: got %v, want %v", d, roots[d], want)
	}
}
