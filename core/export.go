// Package core implements the aggregate computing engine: alignment paths,
// per-round exports, and the round virtual machine.
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package core

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

// Export is the Path-indexed record of one round's results: the root entry
// carries the program's top-level value, and each inner entry carries the
// value an aggregate operator returned at that alignment point. Exports are
// logically append-only within a round and shipped to neighbors verbatim.
type Export struct {
	m map[string]entry // keyed by Path.String()
}

type entry struct {
	path  Path
	value any
}

func NewExport() *Export { return &Export{m: make(map[string]entry)} }

// Put records value at path, overwriting any previous entry.
func (e *Export) Put(path Path, value any) { e.m[path.String()] = entry{path, value} }

// Get returns the raw stored value at path.
func (e *Export) Get(path Path) (any, bool) {
	en, ok := e.m[path.String()]
	return en.value, ok
}

func (e *Export) Len() int { return len(e.m) }

// Paths returns the set of populated Paths (unordered).
func (e *Export) Paths() []Path {
	paths := make([]Path, 0, len(e.m))
	for _, en := range e.m {
		paths = append(paths, en.path)
	}
	return paths
}

// GetAs reads the entry at path typed-as T. A direct type assertion is tried
// first; if the stored value is a string (the post-deserialization form), it
// is parsed into the requested primitive domain. Failing both is a value-level
// miss, never a panic.
func GetAs[T any](e *Export, path Path) (T, error) {
	var zero T
	v, ok := e.Get(path)
	if !ok {
		return zero, NewErrNotFound("value at %s", path)
	}
	if t, ok := v.(T); ok {
		return t, nil
	}
	if s, ok := v.(string); ok {
		if t, ok := parseInto[T](s); ok {
			return t, nil
		}
	}
	return zero, NewErrBadValue("cannot read value at %s as %T", path, zero)
}

// RootAs reads the root entry typed-as T (the non-panicking variant).
func RootAs[T any](e *Export) (T, error) { return GetAs[T](e, Path{}) }

// Root reads the root entry typed-as T and panics on a miss or a type
// mismatch; prefer RootAs.
func Root[T any](e *Export) T {
	v, err := RootAs[T](e)
	if err != nil {
		panic(err)
	}
	return v
}

// Equals compares key sets and values over the primitive domains; any
// non-primitive value makes the comparison false.
func (e *Export) Equals(other *Export) bool {
	if other == nil || len(e.m) != len(other.m) {
		return false
	}
	for key, en := range e.m {
		oen, ok := other.m[key]
		if !ok {
			return false
		}
		a, aok := stringify(en.value)
		b, bok := stringify(oen.value)
		if !aok || !bok || a != b {
			return false
		}
	}
	return true
}

func (e *Export) String() string {
	b, err := e.MarshalJSON()
	if err != nil {
		return "export[err: " + err.Error() + "]"
	}
	return string(b)
}

// wire form: { "<path-json>": "<stringified-primitive>", ... }
func (e *Export) MarshalJSON() ([]byte, error) {
	wire := make(map[string]string, len(e.m))
	for _, en := range e.m {
		key, err := jsoniter.Marshal(en.path)
		if err != nil {
			return nil, err
		}
		val, ok := stringify(en.value)
		if !ok {
			return nil, errors.Errorf("export: cannot serialize %T at %s", en.value, en.path)
		}
		wire[string(key)] = val
	}
	return jsoniter.Marshal(wire)
}

// Deserialized values are stored in their string form and parsed on demand
// (see GetAs).
func (e *Export) UnmarshalJSON(b []byte) error {
	var wire map[string]string
	if err := jsoniter.Unmarshal(b, &wire); err != nil {
		return err
	}
	e.m = make(map[string]entry, len(wire))
	for key, val := range wire {
		var path Path
		if err := jsoniter.Unmarshal([]byte(key), &path); err != nil {
			return errors.Wrapf(err, "export: bad path key %q", key)
		}
		e.Put(path, val)
	}
	return nil
}
