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

// A block owns the operand sub-stack of one structured control scope. The
// number of values in the innermost block mirrors the real operand stack
// depth within that scope at every instruction boundary.
type block struct {
	values []*Value
}

// A frame is the shadow state of one function invocation: its block scopes
// (innermost last) and its locals. results holds the residual values of the
// function-level block once it has been popped, so a later call-post can
// mirror them onto the caller's stack.
type frame struct {
	blocks  []*block
	locals  []*Value
	results []*Value
}

// currentBlock returns the innermost block, or false if the frame has no
// blocks (only possible after the function-level block was popped).
func (f *frame) currentBlock() (*block, bool) {
	if len(f.blocks) == 0 {
		return nil, false
	}
	return f.blocks[len(f.blocks)-1], true
}

func (f *frame) pushBlock() {
	f.blocks = append(f.blocks, &block{})
}

// popBlock removes the innermost block and returns its values in push order.
func (f *frame) popBlock() ([]*Value, bool) {
	b, ok := f.currentBlock()
	if !ok {
		return nil, false
	}
	f.blocks = f.blocks[:len(f.blocks)-1]
	return b.values, true
}

func (f *frame) pushValue(v *Value) bool {
	b, ok := f.currentBlock()
	if !ok {
		return false
	}
	b.values = append(b.values, v)
	return true
}

func (f *frame) popValue() (*Value, bool) {
	b, ok := f.currentBlock()
	if !ok || len(b.values) == 0 {
		return nil, false
	}
	v := b.values[len(b.values)-1]
	b.values = b.values[:len(b.values)-1]
	return v, true
}

// peekValue returns the top value of the innermost block without removing it.
func (f *frame) peekValue() (*Value, bool) {
	b, ok := f.currentBlock()
	if !ok || len(b.values) == 0 {
		return nil, false
	}
	return b.values[len(b.values)-1], true
}

// getLocal returns the taint value of local index. An unset slot is
// initialized with a fresh untainted value; the value is stored so that the
// slot and whatever holds the returned pointer share taint from then on.
func (f *frame) getLocal(index uint32) *Value {
	f.growLocals(index)
	if f.locals[index] == nil {
		f.locals[index] = NewValue()
	}
	return f.locals[index]
}

// setLocal stores v in local index, auto-extending the locals array.
func (f *frame) setLocal(index uint32, v *Value) {
	f.growLocals(index)
	f.locals[index] = v
}

func (f *frame) growLocals(index uint32) {
	for uint32(len(f.locals)) <= index {
		f.locals = append(f.locals, nil)
	}
}

// callStack is the shadow call stack. It always holds at least the root
// frame, which represents the outermost execution context and is never
// popped during normal execution.
type callStack struct {
	frames []*frame
}

func newCallStack() *callStack {
	cs := &callStack{}
	cs.pushFrame()
	return cs
}

// pushFrame appends a frame with one initial empty block and empty locals,
// and returns it.
func (cs *callStack) pushFrame() *frame {
	f := &frame{}
	f.pushBlock()
	cs.frames = append(cs.frames, f)
	return f
}

// popFrame removes and returns the top frame. It refuses to pop the root
// frame: a host that tries is desynchronized from the engine.
func (cs *callStack) popFrame() (*frame, bool) {
	if len(cs.frames) <= 1 {
		return nil, false
	}
	f := cs.frames[len(cs.frames)-1]
	cs.frames = cs.frames[:len(cs.frames)-1]
	return f, true
}

// top returns the current frame.
func (cs *callStack) top() *frame {
	return cs.frames[len(cs.frames)-1]
}

// depth returns the number of frames, equal to the call nesting depth plus
// one for the root frame.
func (cs *callStack) depth() int {
	return len(cs.frames)
}
