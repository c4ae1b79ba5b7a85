// Package main is the reference device runtime: it runs the gradient program
// on a line of five devices glued by an MQTT broker.
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli"

	"github.com/NVIDIA/rufi/cmn/nlog"
	"github.com/NVIDIA/rufi/core"
	"github.com/NVIDIA/rufi/platform"
	"github.com/NVIDIA/rufi/programs"
	"github.com/NVIDIA/rufi/stats"
	"github.com/NVIDIA/rufi/transport"
)

const (
	cyclesShort  = 100
	cyclesMedium = 300
	cyclesLong   = 500

	dfltBroker = "tcp://test.mosquitto.org:1883"

	// the reference topology: [1] -- [2] -- [3] -- [4] -- [5]
	firstDevice, lastDevice = 1, 5
)

type (
	lineDiscovery struct{ self int32 }
	emptySetup    struct{}
)

func (d lineDiscovery) DiscoverNeighbors() []int32 {
	nbrs := make([]int32, 0, 3)
	for _, c := range []int32{d.self - 1, d.self, d.self + 1} {
		if c >= firstDevice && c <= lastDevice {
			nbrs = append(nbrs, c)
		}
	}
	return nbrs
}

func (emptySetup) NbrSensorSetup([]int32) core.NbrSensors { return core.NbrSensors{} }

func main() {
	app := cli.NewApp()
	app.Name = "rufi"
	app.Usage = "aggregate computing device runtime (reference gradient)"
	app.ArgsUsage = "DEVICE_ID"
	app.Flags = []cli.Flag{
		cli.BoolFlag{Name: "t", Usage: "this device is a gradient source"},
		cli.BoolFlag{Name: "f", Usage: "this device is not a gradient source (default)"},
		cli.BoolFlag{Name: "s", Usage: fmt.Sprintf("run %d cycles", cyclesShort)},
		cli.BoolFlag{Name: "m", Usage: fmt.Sprintf("run %d cycles", cyclesMedium)},
		cli.BoolFlag{Name: "l", Usage: fmt.Sprintf("run %d cycles", cyclesLong)},
		cli.StringFlag{Name: "broker", Value: dfltBroker, Usage: "MQTT broker URL"},
		cli.DurationFlag{Name: "period", Value: time.Second, Usage: "inter-round sleep"},
		cli.StringFlag{Name: "metrics", Usage: "Prometheus exposition address (off when empty)"},
	}
	app.Action = run
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.NewExitError("missing positional DEVICE_ID", 2)
	}
	id, err := strconv.ParseInt(c.Args().First(), 10, 32)
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("bad device id %q: %v", c.Args().First(), err), 2)
	}
	var (
		self     = int32(id)
		isSource = c.Bool("t") && !c.Bool("f")
		cycles   int
	)
	switch {
	case c.Bool("s"):
		cycles = cyclesShort
	case c.Bool("m"):
		cycles = cyclesMedium
	case c.Bool("l"):
		cycles = cyclesLong
	}

	nlog.SetTitle(fmt.Sprintf("rufi-%d", self))
	tracker := stats.New(self)
	if addr := c.String("metrics"); addr != "" {
		go func() {
			if err := http.ListenAndServe(addr, promhttp.Handler()); err != nil {
				nlog.Errorf("metrics endpoint: %v", err)
			}
		}()
	}

	network, err := transport.NewMQTT(c.String("broker"), self, tracker)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	defer network.Close()

	ctx := core.NewContext(self, core.LocalSensors{programs.SourceSensor: isSource}, nil, nil)
	p := platform.New(&platform.Args{
		Mailbox:   platform.NewMemoryless(),
		Network:   network,
		Context:   ctx,
		Discovery: lineDiscovery{self: self},
		Setup:     emptySetup{},
		Time:      platform.SysTime{},
		Tracker:   tracker,
		Period:    c.Duration("period"),
		Hooks: []platform.ExportHook{
			func(e *core.Export) {
				if v, err := core.RootAs[float64](e); err == nil {
					nlog.Infof("device %d: gradient %v", self, v)
				}
			},
		},
	})

	program := func(vm *core.RoundVM) any { return programs.Gradient(vm) }
	if cycles > 0 {
		if err := p.RunNCycles(program, cycles); err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		nlog.Flush(true)
		return nil
	}
	if err := p.RunForever(program); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	return nil
}
