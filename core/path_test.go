// Package core implements the aggregate computing engine: alignment paths,
// per-round exports, and the round virtual machine.
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package core

import (
	"testing"

	jsoniter "github.com/json-iterator/go"

	"github.com/NVIDIA/rufi/tools/tassert"
)

func TestPathIsRoot(t *testing.T) {
	tassert.Errorf(t, NewPath().IsRoot(), "empty path must be root")
	tassert.Errorf(t, (Path{}).IsRoot(), "zero path must be root")
	tassert.Errorf(t, !NewPath(Rep(0), Nbr(0)).IsRoot(), "non-empty path must not be root")
}

func TestPathHead(t *testing.T) {
	path := NewPath(Rep(0), Nbr(0), Nbr(1), Branch(0))
	head, ok := path.Head()
	tassert.Fatalf(t, ok, "expected a head")
	tassert.Errorf(t, head == Branch(0), "head: got %s", head)

	_, ok = NewPath().Head()
	tassert.Errorf(t, !ok, "root has no head")
}

func TestPathPush(t *testing.T) {
	path := NewPath(Rep(0), Nbr(0), Nbr(1))
	pushed := path.Push(Branch(0))
	tassert.Errorf(t, pushed.Matches(NewPath(Rep(0), Nbr(0), Nbr(1), Branch(0))), "push: got %s", pushed)
	// the receiver is unchanged
	tassert.Errorf(t, path.Matches(NewPath(Rep(0), Nbr(0), Nbr(1))), "push must not mutate: got %s", path)
}

func TestPathPull(t *testing.T) {
	path := NewPath(Rep(0), Nbr(0), Nbr(1), Branch(0))
	pulled := path.Pull()
	tassert.Errorf(t, pulled.Matches(NewPath(Rep(0), Nbr(0), Nbr(1))), "pull: got %s", pulled)
}

func TestPathString(t *testing.T) {
	path := NewPath(Rep(0), Nbr(0), Nbr(1), Branch(0))
	want := "P://Branch(0)/Nbr(1)/Nbr(0)/Rep(0)"
	tassert.Errorf(t, path.String() == want, "got %s, want %s", path, want)
	tassert.Errorf(t, NewPath().String() == "P://", "root renders as P://, got %s", NewPath())
}

func TestPathMatches(t *testing.T) {
	path := NewPath(Rep(0), Nbr(0), Nbr(1), Branch(0))
	tassert.Errorf(t, path.Matches(NewPath(Rep(0), Nbr(0), Nbr(1), Branch(0))), "identical paths must match")
	tassert.Errorf(t, !path.Matches(NewPath(Nbr(0), Nbr(1), Branch(0))), "prefix must not match")
	tassert.Errorf(t, !path.Matches(NewPath()), "root must not match a non-root path")
}

func TestPathJSON(t *testing.T) {
	for _, path := range []Path{
		NewPath(),
		NewPath(Rep(0)),
		NewPath(Rep(0), FoldHood(0), Nbr(0), Nbr(1)),
	} {
		b, err := jsoniter.Marshal(path)
		tassert.CheckFatal(t, err)
		var back Path
		tassert.CheckFatal(t, jsoniter.Unmarshal(b, &back))
		tassert.Errorf(t, back.Matches(path), "round trip: got %s, want %s", back, path)
	}
	// head first on the wire
	b, err := jsoniter.Marshal(NewPath(Rep(0), Nbr(1)))
	tassert.CheckFatal(t, err)
	tassert.Errorf(t, string(b) == `[{"Nbr":1},{"Rep":0}]`, "wire form: got %s", string(b))
}

func TestPathAsMapKey(t *testing.T) {
	m := map[string]int{
		NewPath(Rep(0)).String():         1,
		NewPath(Rep(0), Nbr(0)).String(): 2,
	}
	tassert.Errorf(t, m[NewPath(Rep(0)).String()] == 1, "key lookup failed")
	tassert.Errorf(t, m[NewPath(Rep(0), Nbr(0)).String()] == 2, "key lookup failed")
}
