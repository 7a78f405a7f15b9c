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

package taint

import (
	"github.com/awslabs/ar-wasm-taint/analysis/config"
	"github.com/hashicorp/go-set"
)

// An Engine shadows the execution of one module session. It owns all shadow
// state and is driven by the host instrumentation layer, one callback per
// executed instruction, single-threaded and synchronous with real execution.
// Engines are not safe for concurrent use; one engine per session.
type Engine struct {
	cfg    *config.Config
	logger *config.LogGroup

	stack   *callStack
	memory  *ShadowMemory
	globals *ShadowGlobals

	flows  *Flows
	events []Event
	seen   *set.Set[string]
	alarms int
}

// NewEngine returns an engine configured with the source/sink policy in cfg.
// The engine starts with the root frame in place, ready for the first
// instruction of the top-level execution context.
func NewEngine(cfg *config.Config, logger *config.LogGroup) *Engine {
	return &Engine{
		cfg:     cfg,
		logger:  logger,
		stack:   newCallStack(),
		memory:  NewShadowMemory(),
		globals: NewShadowGlobals(),
		flows:   NewFlows(),
		seen:    set.New[string](8),
	}
}

// Reset discards all shadow state and collected results, returning the
// engine to its session-start state.
func (e *Engine) Reset() {
	e.stack = newCallStack()
	e.memory.Reset()
	e.globals.Reset()
	e.flows = NewFlows()
	e.events = nil
	e.seen = set.New[string](8)
	e.alarms = 0
}

// Events returns the diagnostic events collected so far, in emission order.
func (e *Engine) Events() []Event {
	return e.events
}

// Flows returns the source-to-sink flows recorded so far.
func (e *Engine) Flows() *Flows {
	return e.flows
}

// Memory exposes the shadow linear memory, e.g. for the host to seed taint
// of pre-initialized data segments.
func (e *Engine) Memory() *ShadowMemory {
	return e.memory
}

// Globals exposes the shadow global store, e.g. for the host to seed the
// taint of initial global contents.
func (e *Engine) Globals() *ShadowGlobals {
	return e.globals
}

func (e *Engine) underflow(loc Location, kind string) error {
	return &StackUnderflowError{Loc: loc, Kind: kind}
}

func (e *Engine) popValue(loc Location) (*Value, error) {
	v, ok := e.stack.top().popValue()
	if !ok {
		return nil, e.underflow(loc, "value")
	}
	return v, nil
}

func (e *Engine) pushValue(loc Location, v *Value) error {
	if !e.stack.top().pushValue(v) {
		return e.underflow(loc, "block")
	}
	return nil
}

// If handles the test of a conditional construct: the condition is consumed
// and its taint discarded. Explicit flow only: a branch decision never taints
// anything.
func (e *Engine) If(loc Location) error {
	_, err := e.popValue(loc)
	return err
}

// Br handles an unconditional branch: the current block scope ends.
func (e *Engine) Br(loc Location) error {
	if _, ok := e.stack.top().popBlock(); !ok {
		return e.underflow(loc, "block")
	}
	return nil
}

// BrIf handles a conditional branch: the condition is consumed and
// discarded, and the current block is popped only if the real condition was
// true.
func (e *Engine) BrIf(loc Location, taken bool) error {
	if _, err := e.popValue(loc); err != nil {
		return err
	}
	if !taken {
		return nil
	}
	if _, ok := e.stack.top().popBlock(); !ok {
		return e.underflow(loc, "block")
	}
	return nil
}

// BrTable handles an indexed branch: the index operand is consumed and
// discarded, then the current block is popped unconditionally.
func (e *Engine) BrTable(loc Location) error {
	if _, err := e.popValue(loc); err != nil {
		return err
	}
	if _, ok := e.stack.top().popBlock(); !ok {
		return e.underflow(loc, "block")
	}
	return nil
}

// Begin handles the start of a block, loop, if-arm or function body: a new
// empty block scope is pushed on the current frame.
func (e *Engine) Begin(loc Location, kind BlockKind) error {
	e.logger.Debugf("begin %s at %s (frame depth %d)", kind, loc, e.stack.depth())
	e.stack.top().pushBlock()
	return nil
}

// End handles the end of a block scope. If the block produced exactly one
// residual value, that value transfers to the parent block; otherwise
// nothing propagates. When the function-level block ends, its residuals are
// kept on the frame for CallPost to mirror as return values.
func (e *Engine) End(loc Location, kind BlockKind) error {
	f := e.stack.top()
	vals, ok := f.popBlock()
	if !ok {
		return e.underflow(loc, "block")
	}
	if len(f.blocks) == 0 {
		f.results = vals
		return nil
	}
	if len(vals) == 1 {
		f.pushValue(vals[0])
	}
	return nil
}

// Return is a marker only: the residual values of the frame's blocks are
// what End and CallPost propagate.
func (e *Engine) Return(loc Location) error {
	e.logger.Debugf("return at %s", loc)
	return nil
}

// Drop consumes one value and discards it.
func (e *Engine) Drop(loc Location) error {
	_, err := e.popValue(loc)
	return err
}

// Select consumes the condition and both candidate values, and pushes the
// taint of the operand the real machine chose. The host supplies the real
// condition; its taint is discarded (explicit flow only), so only the chosen
// operand's taint propagates.
func (e *Engine) Select(loc Location, condTrue bool) error {
	if _, err := e.popValue(loc); err != nil { // condition
		return err
	}
	second, err := e.popValue(loc)
	if err != nil {
		return err
	}
	first, err := e.popValue(loc)
	if err != nil {
		return err
	}
	chosen := second
	if condTrue {
		chosen = first
	}
	return e.pushValue(loc, chosen)
}

// Const handles a constant push: constants introduce no taint.
func (e *Engine) Const(loc Location) error {
	return e.pushValue(loc, NewValue())
}

// Unary handles a one-operand operator: the operand's taint propagates
// unchanged into a new value.
func (e *Engine) Unary(loc Location) error {
	v, err := e.popValue(loc)
	if err != nil {
		return err
	}
	return e.pushValue(loc, derived(v))
}

// Binary handles a two-operand operator: the result's taint is the join of
// both operands.
func (e *Engine) Binary(loc Location) error {
	op2, err := e.popValue(loc)
	if err != nil {
		return err
	}
	op1, err := e.popValue(loc)
	if err != nil {
		return err
	}
	return e.pushValue(loc, Join(op1, op2))
}

// Load handles a memory load: the address operand is consumed (its taint
// discarded), and the taint stored at the effective address is pushed.
func (e *Engine) Load(loc Location, arg MemArg, base uint32) error {
	if _, err := e.popValue(loc); err != nil {
		return err
	}
	addr := arg.EffectiveAddress(base)
	v := e.memory.Load(addr)
	e.logger.Tracef("load %#x -> %s at %s", addr, v.Label(), loc)
	return e.pushValue(loc, v)
}

// Store handles a memory store: the value operand's taint is written to the
// effective address; the address operand is consumed and discarded.
func (e *Engine) Store(loc Location, arg MemArg, base uint32) error {
	v, err := e.popValue(loc)
	if err != nil {
		return err
	}
	if _, err := e.popValue(loc); err != nil { // address operand
		return err
	}
	addr := arg.EffectiveAddress(base)
	e.logger.Tracef("store %#x <- %s at %s", addr, v.Label(), loc)
	e.memory.Store(addr, v)
	return nil
}

// MemorySize handles the page count query: the result is untainted.
func (e *Engine) MemorySize(loc Location) error {
	return e.pushValue(loc, NewValue())
}

// MemoryGrow handles a memory grow: the requested page count is consumed and
// the untainted previous size is pushed.
func (e *Engine) MemoryGrow(loc Location) error {
	if _, err := e.popValue(loc); err != nil {
		return err
	}
	return e.pushValue(loc, NewValue())
}

// Local handles the local variable sub-operations. The enumeration is
// matched exhaustively; an unknown variant is an error, never a no-op.
func (e *Engine) Local(loc Location, op LocalOp, index uint32) error {
	f := e.stack.top()
	switch op {
	case LocalGet:
		return e.pushValue(loc, f.getLocal(index))
	case LocalSet:
		v, err := e.popValue(loc)
		if err != nil {
			return err
		}
		f.setLocal(index, v)
		return nil
	case LocalTee:
		v, ok := f.peekValue()
		if !ok {
			return e.underflow(loc, "value")
		}
		f.setLocal(index, v)
		return nil
	default:
		return &UnknownVariantError{Loc: loc, Class: "local", Code: int(op)}
	}
}

// Global handles the global variable sub-operations, against the shadow
// global store.
func (e *Engine) Global(loc Location, op GlobalOp, index uint32) error {
	switch op {
	case GlobalGet:
		return e.pushValue(loc, e.globals.Load(index))
	case GlobalSet:
		v, err := e.popValue(loc)
		if err != nil {
			return err
		}
		e.globals.Store(index, v)
		return nil
	default:
		return &UnknownVariantError{Loc: loc, Class: "global", Code: int(op)}
	}
}
