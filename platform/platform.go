// Package platform runs the aggregate execution cycle of one device: drain
// the mailbox, build the round context, run the program, publish the export.
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package platform

import (
	"time"

	"github.com/pkg/errors"

	"github.com/NVIDIA/rufi/cmn/mono"
	"github.com/NVIDIA/rufi/cmn/nlog"
	"github.com/NVIDIA/rufi/core"
	"github.com/NVIDIA/rufi/lang"
	"github.com/NVIDIA/rufi/stats"
)

// Program is one aggregate program as run by the platform; the typed result
// is observable through the Export (root entry) and the per-Export hooks.
type Program func(vm *core.RoundVM) any

const dfltPeriod = time.Second

type (
	// Args bundles the collaborators of a Platform.
	Args struct {
		Mailbox   Mailbox
		Network   Network
		Context   *core.Context
		Discovery Discovery
		Setup     NbrSensorSetup
		Time      Time
		Hooks     []ExportHook
		Tracker   *stats.Tracker // optional
		Period    time.Duration
	}

	// Platform executes the cycle of one device: discover, drain, round,
	// publish, ingest, sleep.
	Platform struct {
		mailbox    Mailbox
		network    Network
		ctx        *core.Context
		discovery  Discovery
		setup      NbrSensorSetup
		time       Time
		hooks      []ExportHook
		tracker    *stats.Tracker
		period     time.Duration
		discovered map[int32]struct{}
	}
)

func New(args *Args) *Platform {
	p := &Platform{
		mailbox:    args.Mailbox,
		network:    args.Network,
		ctx:        args.Context,
		discovery:  args.Discovery,
		setup:      args.Setup,
		time:       args.Time,
		hooks:      args.Hooks,
		tracker:    args.Tracker,
		period:     args.Period,
		discovered: make(map[int32]struct{}),
	}
	if p.mailbox == nil {
		p.mailbox = NewMemoryless()
	}
	if p.time == nil {
		p.time = SysTime{}
	}
	if p.period == 0 {
		p.period = dfltPeriod
	}
	return p
}

// RunForever repeats the cycle until the process dies; it returns only on an
// initial subscription error.
func (p *Platform) RunForever(program Program) error {
	if err := p.preCycle(true); err != nil {
		return err
	}
	for {
		p.cycle(p.mailbox, program, true)
		p.time.Sleep(p.period)
		p.preCycle(false)
	}
}

// RunNCycles bounds the loop to n iterations.
func (p *Platform) RunNCycles(program Program, n int) error {
	for i := 0; i < n; i++ {
		if err := p.preCycle(i == 0 && len(p.discovered) == 0); err != nil {
			return err
		}
		p.cycle(p.mailbox, program, true)
		if i < n-1 {
			p.time.Sleep(p.period)
		}
	}
	return nil
}

// preCycle discovers the current neighbor set and subscribes to the delta.
// A subscription failure during initial setup propagates; afterwards the loop
// continues with the previous neighbor set.
func (p *Platform) preCycle(initial bool) error {
	nbrs := p.discovery.DiscoverNeighbors()
	delta := nbrs[:0:0]
	for _, n := range nbrs {
		if _, ok := p.discovered[n]; !ok {
			delta = append(delta, n)
		}
	}
	if len(delta) == 0 {
		return nil
	}
	if err := p.network.Subscribe(delta); err != nil {
		if initial {
			return errors.Wrap(err, "initial subscription")
		}
		nlog.Warningf("subscribe %v failed, continuing with previous neighbor set: %v", delta, err)
		return nil
	}
	for _, n := range delta {
		p.discovered[n] = struct{}{}
	}
	return nil
}

// cycle is steps 2-6 of one iteration; when drain is set, incoming transport
// updates are ingested into the mailbox at the end (the cooperative variant
// ingests them concurrently instead).
func (p *Platform) cycle(mbx Mailbox, program Program, drain bool) {
	started := mono.NanoTime()

	states := mbx.Messages().AsStates()
	nbrs := make([]int32, 0, len(states))
	for id := range states {
		nbrs = append(nbrs, id)
	}
	var nbrSensors core.NbrSensors
	if p.setup != nil {
		nbrSensors = p.setup.NbrSensorSetup(nbrs)
	}

	ctx := core.NewContext(p.ctx.SelfID(), p.ctx.LocalSensors(), nbrSensors, states)
	vm := core.NewRoundVM(ctx)
	vm.NewExportStack()
	result := lang.Round(vm, program)
	export := vm.ExportData()

	for _, hook := range p.hooks {
		hook(export)
	}
	p.tracker.Round(mono.Since(started))
	nlog.Infof("device %d: round done, output %v", p.ctx.SelfID(), result)

	p.publish(export)
	if drain {
		p.ingest(mbx)
	}
}

// publish wraps the Export into a wire message and sends it on the device's
// topic; failures cost this round's visibility to neighbors, nothing else.
func (p *Platform) publish(export *core.Export) {
	msg := NewMessage(p.ctx.SelfID(), export, time.Now())
	payload, err := msg.Marshal()
	if err != nil {
		nlog.Errorf("device %d: cannot serialize export: %v", p.ctx.SelfID(), err)
		p.tracker.SendError()
		return
	}
	if err := p.network.Send(payload); err != nil {
		nlog.Errorf("device %d: send: %v", p.ctx.SelfID(), err)
		p.tracker.SendError()
	}
}

// ingest polls the transport without blocking and enqueues whatever arrived.
func (p *Platform) ingest(mbx Mailbox) {
	for {
		select {
		case u := <-p.network.Updates():
			p.enqueueUpdate(mbx, u)
		default:
			return
		}
	}
}

func (p *Platform) enqueueUpdate(mbx Mailbox, u Update) {
	if u.Err != nil {
		nlog.Warningf("device %d: receive: %v", p.ctx.SelfID(), u.Err)
		p.tracker.ReceiveError()
		return
	}
	var msg Message
	if err := msg.Unmarshal(u.Data); err != nil {
		nlog.Warningf("device %d: dropping undecodable message: %v", p.ctx.SelfID(), err)
		p.tracker.ReceiveError()
		return
	}
	mbx.Enqueue(msg)
}

// SysTime sleeps on the system clock.
type SysTime struct{}

func (SysTime) Sleep(d time.Duration) { time.Sleep(d) }
