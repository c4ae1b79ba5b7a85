// Package core implements the aggregate computing engine: alignment paths,
// per-round exports, and the round virtual machine.
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package core

// SensorID names a (virtual) sensor of the device.
type SensorID string

func Sensor(name string) SensorID { return SensorID(name) }
