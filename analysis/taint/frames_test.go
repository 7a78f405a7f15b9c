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

import "testing"

func TestCallStackStartsWithRootFrame(t *testing.T) {
	cs := newCallStack()
	if cs.depth() != 1 {
		t.Errorf("expected depth 1, got %d", cs.depth())
	}
	if cs.top() == nil {
		t.Fatal("root frame should exist")
	}
}

func TestPopFrameRefusesRoot(t *testing.T) {
	cs := newCallStack()
	if _, ok := cs.popFrame(); ok {
		t.Error("popFrame should refuse to pop the root frame")
	}
	cs.pushFrame()
	if _, ok := cs.popFrame(); !ok {
		t.Error("popFrame should pop a non-root frame")
	}
	if cs.depth() != 1 {
		t.Errorf("expected depth 1 after pop, got %d", cs.depth())
	}
}

func TestFrameValueStack(t *testing.T) {
	cs := newCallStack()
	f := cs.top()

	if _, ok := f.popValue(); ok {
		t.Error("popValue on empty block should fail")
	}

	a, b := NewValue(), NewValue()
	f.pushValue(a)
	f.pushValue(b)

	if v, ok := f.peekValue(); !ok || v != b {
		t.Error("peekValue should return the last pushed value")
	}
	if v, ok := f.popValue(); !ok || v != b {
		t.Error("popValue should return values in reverse push order")
	}
	if v, ok := f.popValue(); !ok || v != a {
		t.Error("popValue should return the first pushed value last")
	}
}

func TestPopBlockReturnsValuesInPushOrder(t *testing.T) {
	cs := newCallStack()
	f := cs.top()
	f.pushBlock()
	a, b := NewValue(), NewValue()
	f.pushValue(a)
	f.pushValue(b)

	vals, ok := f.popBlock()
	if !ok {
		t.Fatal("popBlock should succeed")
	}
	if len(vals) != 2 || vals[0] != a || vals[1] != b {
		t.Error("popBlock should return residuals in push order")
	}
}

func TestBlockIsolation(t *testing.T) {
	// Values of an enclosing block are not reachable from an inner block.
	cs := newCallStack()
	f := cs.top()
	f.pushValue(NewValue())
	f.pushBlock()
	if _, ok := f.popValue(); ok {
		t.Error("inner block should not see the enclosing block's values")
	}
}

func TestFrameIsolation(t *testing.T) {
	cs := newCallStack()
	cs.top().pushValue(NewValue())
	callee := cs.pushFrame()
	if _, ok := callee.popValue(); ok {
		t.Error("callee frame should not see the caller's values")
	}
}

func TestLocalsDefaultUntainted(t *testing.T) {
	cs := newCallStack()
	f := cs.top()
	v := f.getLocal(5)
	if v == nil || v.IsTainted() {
		t.Error("unset local should read as a fresh untainted value")
	}
	// Reading again yields the same stored value, not a new one
	if f.getLocal(5) != v {
		t.Error("getLocal should store the value it creates")
	}
}

func TestSetLocalGrowsArray(t *testing.T) {
	cs := newCallStack()
	f := cs.top()
	loc := Location{FuncIndex: 2, Instr: 8}
	v := taintedAt(loc)
	f.setLocal(10, v)
	if got := f.getLocal(10); got != v {
		t.Error("getLocal should return the stored value")
	}
	if f.getLocal(3).IsTainted() {
		t.Error("intermediate slots should stay untainted")
	}
}
