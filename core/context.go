// Package core implements the aggregate computing engine: alignment paths,
// per-round exports, and the round virtual machine.
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package core

type (
	LocalSensors map[SensorID]any
	NbrSensors   map[SensorID]map[int32]any
	Exports      map[int32]*Export
)

// Context is the immutable per-round input snapshot: the device's own id, the
// values of its local sensors, the per-neighbor sensor values, and the latest
// Export received from each neighbor - including the device's own previous
// Export, which rep reads its feedback value from.
type Context struct {
	selfID      int32
	localSensor LocalSensors
	nbrSensor   NbrSensors
	exports     Exports
}

func NewContext(selfID int32, local LocalSensors, nbr NbrSensors, exports Exports) *Context {
	if local == nil {
		local = LocalSensors{}
	}
	if nbr == nil {
		nbr = NbrSensors{}
	}
	if exports == nil {
		exports = Exports{}
	}
	return &Context{selfID: selfID, localSensor: local, nbrSensor: nbr, exports: exports}
}

func (c *Context) SelfID() int32              { return c.selfID }
func (c *Context) Exports() Exports           { return c.exports }
func (c *Context) LocalSensors() LocalSensors { return c.localSensor }
func (c *Context) NbrSensors() NbrSensors     { return c.nbrSensor }

// PutExport adds (or replaces) the latest Export of the given device.
func (c *Context) PutExport(id int32, e *Export) { c.exports[id] = e }

// LocalSense returns the raw value of the given local sensor.
func (c *Context) LocalSense(id SensorID) (any, bool) {
	v, ok := c.localSensor[id]
	return v, ok
}

// NbrSense returns the raw value of the given sensor for the given neighbor.
func (c *Context) NbrSense(id SensorID, nbr int32) (any, bool) {
	m, ok := c.nbrSensor[id]
	if !ok {
		return nil, false
	}
	v, ok := m[nbr]
	return v, ok
}

// ReadExportValue is the primitive lookup behind nbr and rep: the value at
// path in the latest Export of device id.
func ReadExportValue[T any](c *Context, id int32, path Path) (T, error) {
	e, ok := c.exports[id]
	if !ok {
		var zero T
		return zero, NewErrNotFound("export of %d", id)
	}
	return GetAs[T](e, path)
}
