// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package replay feeds a recorded instruction trace into a taint engine. A
// trace is a yaml list of events, one per executed instruction, carrying the
// operation name and the real operands the engine needs (branch decisions,
// addresses, call targets). It stands in for the host instrumentation layer
// in the CLI and in tests.
package replay

import (
	"fmt"
	"os"

	"github.com/awslabs/ar-wasm-taint/analysis/taint"
	"gopkg.in/yaml.v3"
)

// An Event is one recorded instruction callback. Only the fields relevant to
// the operation are set; the zero value of the others is ignored.
type Event struct {
	// Op is the operation name, e.g. "binary", "br_if", "local.get", "call"
	Op string `yaml:"op"`

	// Func and Instr locate the instruction in the module
	Func  uint32 `yaml:"func"`
	Instr int    `yaml:"instr"`

	// Kind is the block kind for begin/end: "block", "loop", "if" or
	// "function" (empty means "block")
	Kind string `yaml:"kind,omitempty"`

	// Taken is the real branch decision for br_if
	Taken bool `yaml:"taken,omitempty"`

	// Cond is the real condition for select
	Cond bool `yaml:"cond,omitempty"`

	// Offset and Base describe a memory access: static offset and dynamic
	// base address operand
	Offset uint32 `yaml:"offset,omitempty"`
	Base   uint32 `yaml:"base,omitempty"`

	// Index is the local or global variable index
	Index uint32 `yaml:"index,omitempty"`

	// Target, Args and Indirect describe a call instruction
	Target   *Target `yaml:"target,omitempty"`
	Args     int     `yaml:"args,omitempty"`
	Indirect bool    `yaml:"indirect,omitempty"`

	// Results is the real return value count for call_post
	Results int `yaml:"results,omitempty"`
}

// Target is the call target of a call event.
type Target struct {
	Index  uint32 `yaml:"index"`
	Name   string `yaml:"name,omitempty"`
	Module string `yaml:"module,omitempty"`
}

func (ev Event) location() taint.Location {
	return taint.Location{FuncIndex: ev.Func, Instr: ev.Instr}
}

// ParseTrace decodes a yaml trace.
func ParseTrace(b []byte) ([]Event, error) {
	var events []Event
	if err := yaml.Unmarshal(b, &events); err != nil {
		return nil, fmt.Errorf("could not unmarshal trace: %w", err)
	}
	return events, nil
}

// LoadTrace reads and decodes a yaml trace file.
func LoadTrace(filename string) ([]Event, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read trace file: %w", err)
	}
	return ParseTrace(b)
}

// Run replays the events into the engine, in order. It stops at the first
// failing event: a handler error means the shadow state cannot be trusted
// beyond that point.
func Run(eng *taint.Engine, events []Event) error {
	for i, ev := range events {
		if err := step(eng, ev); err != nil {
			return fmt.Errorf("replay stopped at event %d (%s at %s): %w",
				i, ev.Op, ev.location(), err)
		}
	}
	return nil
}

func step(eng *taint.Engine, ev Event) error {
	loc := ev.location()
	switch ev.Op {
	case "if":
		return eng.If(loc)
	case "br":
		return eng.Br(loc)
	case "br_if":
		return eng.BrIf(loc, ev.Taken)
	case "br_table":
		return eng.BrTable(loc)
	case "begin":
		kind, err := blockKind(ev.Kind)
		if err != nil {
			return err
		}
		return eng.Begin(loc, kind)
	case "end":
		kind, err := blockKind(ev.Kind)
		if err != nil {
			return err
		}
		return eng.End(loc, kind)
	case "return":
		return eng.Return(loc)
	case "drop":
		return eng.Drop(loc)
	case "select":
		return eng.Select(loc, ev.Cond)
	case "const":
		return eng.Const(loc)
	case "unary":
		return eng.Unary(loc)
	case "binary":
		return eng.Binary(loc)
	case "load":
		return eng.Load(loc, taint.MemArg{Offset: ev.Offset}, ev.Base)
	case "store":
		return eng.Store(loc, taint.MemArg{Offset: ev.Offset}, ev.Base)
	case "memory.size":
		return eng.MemorySize(loc)
	case "memory.grow":
		return eng.MemoryGrow(loc)
	case "local.get":
		return eng.Local(loc, taint.LocalGet, ev.Index)
	case "local.set":
		return eng.Local(loc, taint.LocalSet, ev.Index)
	case "local.tee":
		return eng.Local(loc, taint.LocalTee, ev.Index)
	case "global.get":
		return eng.Global(loc, taint.GlobalGet, ev.Index)
	case "global.set":
		return eng.Global(loc, taint.GlobalSet, ev.Index)
	case "call":
		if ev.Target == nil {
			return fmt.Errorf("call event has no target")
		}
		target := taint.CallTarget{
			Index:  ev.Target.Index,
			Name:   ev.Target.Name,
			Module: ev.Target.Module,
		}
		return eng.CallPre(loc, target, ev.Args, ev.Indirect)
	case "call_post":
		return eng.CallPost(loc, ev.Results)
	default:
		return fmt.Errorf("unknown trace op %q", ev.Op)
	}
}

func blockKind(s string) (taint.BlockKind, error) {
	switch s {
	case "", "block":
		return taint.KindBlock, nil
	case "loop":
		return taint.KindLoop, nil
	case "if":
		return taint.KindIf, nil
	case "function":
		return taint.KindFunction, nil
	default:
		return 0, fmt.Errorf("unknown block kind %q", s)
	}
}
