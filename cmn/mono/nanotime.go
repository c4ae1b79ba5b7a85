//go:build !mono

// Package mono provides low-level monotonic time
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package mono

import "time"

var started = time.Now()

// NanoTime returns the number of monotonic nanoseconds since process start.
func NanoTime() int64 { return int64(time.Since(started)) }
