// Package core implements the aggregate computing engine: alignment paths,
// per-round exports, and the round virtual machine.
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package core

import (
	"testing"

	"github.com/NVIDIA/rufi/tools/tassert"
)

func testContext() *Context {
	e := NewExport()
	e.Put(NewPath(Rep(0), Nbr(0)), 10)
	return NewContext(7,
		LocalSensors{Sensor("test"): 10},
		NbrSensors{Sensor("test"): {0: 10}},
		Exports{0: e},
	)
}

func TestContextFields(t *testing.T) {
	ctx := testContext()
	tassert.Errorf(t, ctx.SelfID() == 7, "self id: got %d", ctx.SelfID())
	tassert.Errorf(t, len(ctx.Exports()) == 1, "exports: got %d", len(ctx.Exports()))
	tassert.Errorf(t, len(ctx.LocalSensors()) == 1, "local sensors: got %d", len(ctx.LocalSensors()))
	tassert.Errorf(t, len(ctx.NbrSensors()) == 1, "nbr sensors: got %d", len(ctx.NbrSensors()))
}

func TestContextPutExport(t *testing.T) {
	ctx := testContext()
	e := NewExport()
	e.Put(NewPath(Branch(0), Nbr(0)), 5)
	ctx.PutExport(1, e)
	tassert.Errorf(t, len(ctx.Exports()) == 2, "exports: got %d", len(ctx.Exports()))
}

func TestContextReadExportValue(t *testing.T) {
	ctx := testContext()
	v, err := ReadExportValue[int](ctx, 0, NewPath(Rep(0), Nbr(0)))
	tassert.CheckFatal(t, err)
	tassert.Errorf(t, v == 10, "got %d", v)

	_, err = ReadExportValue[int](ctx, 1, NewPath())
	tassert.Errorf(t, IsErrNotFound(err), "unknown device: want not-found, got %v", err)
	_, err = ReadExportValue[int](ctx, 0, NewPath())
	tassert.Errorf(t, IsErrNotFound(err), "unpopulated path: want not-found, got %v", err)
}

func TestContextSense(t *testing.T) {
	ctx := testContext()
	v, ok := ctx.LocalSense(Sensor("test"))
	tassert.Fatalf(t, ok, "expected local sensor value")
	tassert.Errorf(t, v.(int) == 10, "got %v", v)

	_, ok = ctx.LocalSense(Sensor("missing"))
	tassert.Errorf(t, !ok, "missing sensor must not be found")

	nv, ok := ctx.NbrSense(Sensor("test"), 0)
	tassert.Fatalf(t, ok, "expected nbr sensor value")
	tassert.Errorf(t, nv.(int) == 10, "got %v", nv)

	_, ok = ctx.NbrSense(Sensor("test"), 3)
	tassert.Errorf(t, !ok, "unknown neighbor must not be found")
}
