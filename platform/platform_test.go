// Package platform runs the aggregate execution cycle of one device: drain
// the mailbox, build the round context, run the program, publish the export.
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package platform_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/NVIDIA/rufi/core"
	"github.com/NVIDIA/rufi/lang"
	"github.com/NVIDIA/rufi/platform"
	"github.com/NVIDIA/rufi/programs"
	"github.com/NVIDIA/rufi/tools/tassert"
	"github.com/NVIDIA/rufi/transport"
)

type (
	lineDiscovery struct{ self, max int32 }
	emptySetup    struct{}
)

func (d lineDiscovery) DiscoverNeighbors() []int32 {
	nbrs := make([]int32, 0, 3)
	for _, c := range []int32{d.self - 1, d.self, d.self + 1} {
		if c >= 1 && c <= d.max {
			nbrs = append(nbrs, c)
		}
	}
	return nbrs
}

func (emptySetup) NbrSensorSetup([]int32) core.NbrSensors { return core.NbrSensors{} }

func gradientProgram(vm *core.RoundVM) any { return programs.Gradient(vm) }

// linePlatforms builds n devices on a line over one in-process hub; mkMailbox
// may be nil for the default memoryless policy.
func linePlatforms(t *testing.T, n int32, source int32, mkMailbox func() platform.Mailbox,
	last []float64) []*platform.Platform {
	hub := transport.NewHub()
	plats := make([]*platform.Platform, 0, n)
	for id := int32(1); id <= n; id++ {
		id := id
		var mbx platform.Mailbox
		if mkMailbox != nil {
			mbx = mkMailbox()
		}
		ctx := core.NewContext(id,
			core.LocalSensors{programs.SourceSensor: id == source}, nil, nil)
		plats = append(plats, platform.New(&platform.Args{
			Mailbox:   mbx,
			Network:   hub.NewNetwork(id, nil),
			Context:   ctx,
			Discovery: lineDiscovery{self: id, max: n},
			Setup:     emptySetup{},
			Period:    time.Millisecond,
			Hooks: []platform.ExportHook{func(e *core.Export) {
				if v, err := core.RootAs[float64](e); err == nil {
					last[id] = v
				}
			}},
		}))
	}
	return plats
}

// five platforms on a line, source at device 1, scheduled round-robin: the
// published exports must carry the devices to the converged gradient
func TestPlatformGradientConvergence(t *testing.T) {
	const (
		devices = 5
		sweeps  = 15
	)
	last := make([]float64, devices+1)
	plats := linePlatforms(t, devices, 1, nil, last)
	for sweep := 0; sweep < sweeps; sweep++ {
		for _, p := range plats {
			tassert.CheckFatal(t, p.RunNCycles(gradientProgram, 1))
		}
	}
	expected := []float64{0, 1, 2, 3, 4} // device 1 is the source
	for id := int32(1); id <= devices; id++ {
		tassert.Errorf(t, last[id] == expected[id-1],
			"device %d: got %v, want %v", id, last[id], expected[id-1])
	}
}

// same field, least-recent mailboxes: older snapshots delay, but do not
// derail, convergence
func TestPlatformGradientLeastRecentMailbox(t *testing.T) {
	const (
		devices = 5
		sweeps  = 30
	)
	last := make([]float64, devices+1)
	plats := linePlatforms(t, devices, 1, func() platform.Mailbox {
		mbx, err := platform.NewLeastRecent()
		tassert.CheckFatal(t, err)
		return mbx
	}, last)
	for sweep := 0; sweep < sweeps; sweep++ {
		for _, p := range plats {
			tassert.CheckFatal(t, p.RunNCycles(gradientProgram, 1))
		}
	}
	expected := []float64{0, 1, 2, 3, 4}
	for id := int32(1); id <= devices; id++ {
		tassert.Errorf(t, last[id] == expected[id-1],
			"device %d: got %v, want %v", id, last[id], expected[id-1])
	}
}

// the cooperative variant runs its n rounds and stops
func TestPlatformAsync(t *testing.T) {
	var (
		hub    = transport.NewHub()
		rounds int
	)
	ctx := core.NewContext(1, core.LocalSensors{programs.SourceSensor: false}, nil, nil)
	p := platform.New(&platform.Args{
		Network:   hub.NewNetwork(1, nil),
		Context:   ctx,
		Discovery: lineDiscovery{self: 1, max: 1},
		Setup:     emptySetup{},
		Period:    time.Millisecond,
		Hooks: []platform.ExportHook{func(*core.Export) {
			rounds++
		}},
	})
	program := func(vm *core.RoundVM) any {
		return lang.Rep(vm, lang.Lift(0), func(_ *core.RoundVM, x int) int { return x + 1 })
	}
	cctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	tassert.CheckFatal(t, p.RunAsync(cctx, program, 3))
	tassert.Errorf(t, rounds == 3, "got %d rounds", rounds)
}

// a send failure costs one publish, nothing else
func TestPlatformSendFailure(t *testing.T) {
	failing := &failNet{updates: make(chan platform.Update, 1)}
	ctx := core.NewContext(1, nil, nil, nil)
	p := platform.New(&platform.Args{
		Network:   failing,
		Context:   ctx,
		Discovery: lineDiscovery{self: 1, max: 1},
		Setup:     emptySetup{},
		Period:    time.Millisecond,
	})
	err := p.RunNCycles(func(vm *core.RoundVM) any { return 1 }, 3)
	tassert.CheckFatal(t, err)
	tassert.Errorf(t, failing.sends == 3, "got %d send attempts", failing.sends)
}

// an initial subscription failure propagates to the caller
func TestPlatformSubscribeFailure(t *testing.T) {
	failing := &failNet{updates: make(chan platform.Update, 1), subErr: errFail}
	p := platform.New(&platform.Args{
		Network:   failing,
		Context:   core.NewContext(1, nil, nil, nil),
		Discovery: lineDiscovery{self: 1, max: 1},
		Setup:     emptySetup{},
	})
	err := p.RunNCycles(func(vm *core.RoundVM) any { return 1 }, 3)
	tassert.Errorf(t, err != nil, "expected the initial subscription error")
}

// undecodable incoming bytes are dropped, the loop keeps going
func TestPlatformBadMessageDropped(t *testing.T) {
	hub := transport.NewHub()
	network := hub.NewNetwork(1, nil)
	p := platform.New(&platform.Args{
		Network:   network,
		Context:   core.NewContext(1, nil, nil, nil),
		Discovery: lineDiscovery{self: 1, max: 1},
		Setup:     emptySetup{},
		Period:    time.Millisecond,
	})
	tassert.CheckFatal(t, network.Subscribe([]int32{1}))
	tassert.CheckFatal(t, network.Send([]byte("not json")))
	err := p.RunNCycles(func(vm *core.RoundVM) any { return 1 }, 2)
	tassert.CheckFatal(t, err)
}

type failNet struct {
	updates chan platform.Update
	subErr  error
	sends   int
}

func (n *failNet) Subscribe([]int32) error { return n.subErr }
func (n *failNet) Send([]byte) error {
	n.sends++
	return errFail
}
func (n *failNet) Updates() <-chan platform.Update { return n.updates }
func (n *failNet) Close() error                    { return nil }

var errFail = errors.New("transport down")
