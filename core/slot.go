// Package core implements the aggregate computing engine: alignment paths,
// per-round exports, and the round virtual machine.
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package core

import (
	"fmt"
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

// Kind enumerates the language constructs that produce alignment slots.
type Kind uint8

const (
	KindNbr Kind = iota
	KindRep
	KindFoldHood
	KindBranch
	KindExchange
)

var kindNames = [...]string{"Nbr", "Rep", "FoldHood", "Branch", "Exchange"}

func (k Kind) String() string { return kindNames[k] }

// Slot tags one construct site of the program. The index disambiguates
// sibling sites of the same kind at the same nesting level.
type Slot struct {
	Kind  Kind
	Index int32
}

func Nbr(index int32) Slot      { return Slot{KindNbr, index} }
func Rep(index int32) Slot      { return Slot{KindRep, index} }
func FoldHood(index int32) Slot { return Slot{KindFoldHood, index} }
func Branch(index int32) Slot   { return Slot{KindBranch, index} }
func Exchange(index int32) Slot { return Slot{KindExchange, index} }

func (s Slot) String() string { return s.Kind.String() + "(" + strconv.Itoa(int(s.Index)) + ")" }

// wire form: one-key object, e.g. {"Nbr":0}
func (s Slot) MarshalJSON() ([]byte, error) {
	return []byte(`{"` + s.Kind.String() + `":` + strconv.Itoa(int(s.Index)) + `}`), nil
}

func (s *Slot) UnmarshalJSON(b []byte) error {
	var m map[string]int32
	if err := jsoniter.Unmarshal(b, &m); err != nil {
		return err
	}
	if len(m) != 1 {
		return fmt.Errorf("slot: expected one-key object, got %q", string(b))
	}
	for name, index := range m {
		kind, ok := kindOf(name)
		if !ok {
			return fmt.Errorf("slot: unknown kind %q", name)
		}
		s.Kind, s.Index = kind, index
	}
	return nil
}

func kindOf(name string) (Kind, bool) {
	for i, kn := range kindNames {
		if kn == name {
			return Kind(i), true
		}
	}
	return 0, false
}
