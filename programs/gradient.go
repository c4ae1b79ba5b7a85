// Package programs carries reference aggregate programs.
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package programs

import (
	"math"

	"github.com/NVIDIA/rufi/core"
	"github.com/NVIDIA/rufi/lang"
)

// SourceSensor flags the gradient source on a device.
const SourceSensor = core.SensorID("source")

// Gradient computes the hop distance from the nearest source. Sources hold
// 0; everyone else holds one more than the minimum across neighbors, +Inf
// until a source becomes reachable.
func Gradient(vm *core.RoundVM) float64 {
	isSource := func(vm *core.RoundVM) bool {
		v, _ := core.LocalSense[bool](vm, SourceSensor)
		return v
	}
	return lang.Rep(vm, lang.Lift(math.Inf(1)), func(vm *core.RoundVM, d float64) float64 {
		return lang.Mux(vm, isSource,
			lang.Lift(0.0),
			func(vm *core.RoundVM) float64 {
				return lang.FoldhoodPlus(vm, lang.Lift(math.Inf(1)), math.Min,
					func(vm *core.RoundVM) float64 {
						return lang.Nbr(vm, lang.Lift(d)) + 1.0
					})
			})
	})
}
