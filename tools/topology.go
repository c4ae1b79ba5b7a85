// Package tools provides an in-process multi-device simulator and common
// helpers for tests: topologies, fair schedules, and program-equivalence
// checks.
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package tools

import (
	"testing"

	"github.com/NVIDIA/rufi/core"
	"github.com/NVIDIA/rufi/lang"
)

const (
	SourceSensor   = core.SensorID("source")
	NbrRangeSensor = core.SensorID("nbr_range")
)

type (
	// DeviceState is everything one simulated device carries across rounds.
	DeviceState struct {
		SelfID      int32
		Exports     core.Exports
		LocalSensor core.LocalSensors
		NbrSensor   core.NbrSensors
	}

	Topology struct {
		Devices []int32
		Nbrs    map[int32][]int32
		States  map[int32]*DeviceState
	}
)

func abs(x int32) int32 {
	if x < 0 {
		return -x
	}
	return x
}

// NewTopology builds a topology over the given devices with the neighbor
// relation nbrs (expected to include the device itself). Every device gets
// "source" = false and a per-neighbor "nbr_range" distance.
func NewTopology(devices []int32, nbrs func(int32) []int32) *Topology {
	tp := &Topology{
		Devices: devices,
		Nbrs:    make(map[int32][]int32, len(devices)),
		States:  make(map[int32]*DeviceState, len(devices)),
	}
	for _, d := range devices {
		ns := nbrs(d)
		ranges := make(map[int32]any, len(ns))
		for _, n := range ns {
			ranges[n] = abs(d - n)
		}
		tp.Nbrs[d] = ns
		tp.States[d] = &DeviceState{
			SelfID:      d,
			Exports:     core.Exports{},
			LocalSensor: core.LocalSensors{SourceSensor: false},
			NbrSensor:   core.NbrSensors{NbrRangeSensor: ranges},
		}
	}
	return tp
}

// Line is the [1] -- [2] -- ... -- [n] topology.
func Line(n int32) *Topology {
	devices := make([]int32, 0, n)
	for d := int32(1); d <= n; d++ {
		devices = append(devices, d)
	}
	return NewTopology(devices, func(d int32) []int32 {
		ns := make([]int32, 0, 3)
		for _, c := range []int32{d - 1, d, d + 1} {
			if c >= 1 && c <= n {
				ns = append(ns, c)
			}
		}
		return ns
	})
}

// FullyConnected is the clique over the given devices.
func FullyConnected(devices []int32) *Topology {
	return NewTopology(devices, func(int32) []int32 { return devices })
}

// SetSource flips the "source" sensor of one device.
func (tp *Topology) SetSource(id int32, on bool) {
	tp.States[id].LocalSensor[SourceSensor] = on
}

// RunOnDevice executes one round on device d and delivers the resulting
// Export to d's neighbors (simulated message passing).
func RunOnDevice[A any](tp *Topology, d int32, program func(*core.RoundVM) A) A {
	st := tp.States[d]
	ctx := core.NewContext(d, st.LocalSensor, st.NbrSensor, st.Exports)
	vm := core.NewRoundVM(ctx)
	vm.NewExportStack()
	res := lang.Round(vm, program)

	export := vm.ExportData()
	st.Exports[d] = export
	for _, nbr := range tp.Nbrs[d] {
		tp.States[nbr].Exports[d] = export
	}
	return res
}

// RunSchedule runs the program on each device in schedule order.
func RunSchedule[A any](tp *Topology, schedule []int32, program func(*core.RoundVM) A) {
	for _, d := range schedule {
		RunOnDevice(tp, d, program)
	}
}

// FairSchedule repeats the device list rounds times.
func FairSchedule(devices []int32, rounds int) []int32 {
	schedule := make([]int32, 0, len(devices)*rounds)
	for i := 0; i < rounds; i++ {
		schedule = append(schedule, devices...)
	}
	return schedule
}

// Roots reads every device's current root value typed-as A.
func Roots[A any](tb testing.TB, tp *Topology) map[int32]A {
	roots := make(map[int32]A, len(tp.Devices))
	for _, d := range tp.Devices {
		export, ok := tp.States[d].Exports[d]
		if !ok {
			tb.Fatalf("device %d: no export yet", d)
		}
		v, err := core.RootAs[A](export)
		if err != nil {
			tb.Fatalf("device %d: root: %v", d, err)
		}
		roots[d] = v
	}
	return roots
}

// AssertEquivalence runs two structurally different programs over identical
// topologies and schedules, requiring identical results at every execution.
func AssertEquivalence[A comparable](tb testing.TB, mkTopo func() *Topology, schedule []int32,
	program1, program2 func(*core.RoundVM) A) {
	tp1, tp2 := mkTopo(), mkTopo()
	for i, d := range schedule {
		r1 := RunOnDevice(tp1, d, program1)
		r2 := RunOnDevice(tp2, d, program2)
		if r1 != r2 {
			tb.Fatalf("programs diverge at step %d on device %d: %v != %v", i, d, r1, r2)
		}
	}
}

// AssertEquivalenceIsolated is the no-communication variant: every execution
// sees an empty context, so only the local traversal semantics are compared.
func AssertEquivalenceIsolated[A comparable](tb testing.TB, schedule []int32,
	program1, program2 func(*core.RoundVM) A) {
	runIsolated := func(d int32, program func(*core.RoundVM) A) A {
		vm := core.NewRoundVM(core.NewContext(d, nil, nil, nil))
		vm.NewExportStack()
		return lang.Round(vm, program)
	}
	for i, d := range schedule {
		r1 := runIsolated(d, program1)
		r2 := runIsolated(d, program2)
		if r1 != r2 {
			tb.Fatalf("programs diverge at step %d on device %d: %v != %v", i, d, r1, r2)
		}
	}
}
