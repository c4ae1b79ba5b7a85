//go:build debug

// Package debug provides debug utilities
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package debug

import (
	"fmt"
	"strings"

	"github.com/NVIDIA/rufi/cmn/nlog"
)

func ON() bool { return true }

func Assert(cond bool, a ...any) {
	if !cond {
		msg := "DEBUG PANIC"
		if len(a) > 0 {
			msg += ": " + fmt.Sprint(a...)
		}
		nlog.Errorln(msg)
		nlog.Flush(true)
		panic(msg)
	}
}

func Assertf(cond bool, f string, a ...any) {
	if !cond {
		Assert(false, fmt.Sprintf(f, a...))
	}
}

func AssertNoErr(err error) {
	if err != nil {
		Assert(false, err)
	}
}

func AssertFunc(f func() bool, a ...any) { Assert(f(), a...) }

func Infof(f string, a ...any) {
	nlog.InfoDepth(1, fmt.Sprintf("[DEBUG] "+strings.TrimSuffix(f, "\n"), a...))
}
