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

func TestShadowMemoryRoundTrip(t *testing.T) {
	m := NewShadowMemory()
	loc := Location{FuncIndex: 0, Instr: 4}
	v := taintedAt(loc)

	m.Store(0x100, v)
	if got := m.Load(0x100); got != v {
		t.Error("Load should return the stored value")
	}
	if m.Load(0x101).IsTainted() {
		t.Error("a different address should read untainted")
	}
}

func TestShadowMemoryUnwrittenIsUntainted(t *testing.T) {
	m := NewShadowMemory()
	if m.Load(0xdead).IsTainted() {
		t.Error("unwritten address should read untainted")
	}
}

func TestShadowMemoryOverwrite(t *testing.T) {
	m := NewShadowMemory()
	m.Store(8, taintedAt(Location{FuncIndex: 1, Instr: 1}))
	m.Store(8, NewValue())
	if m.Load(8).IsTainted() {
		t.Error("store should overwrite, not join")
	}
}

func TestShadowMemoryReset(t *testing.T) {
	m := NewShadowMemory()
	m.Store(8, taintedAt(Location{FuncIndex: 1, Instr: 1}))
	m.Reset()
	if m.Load(8).IsTainted() {
		t.Error("reset should drop all cells")
	}
}

func TestShadowGlobals(t *testing.T) {
	g := NewShadowGlobals()
	if g.Load(0).IsTainted() {
		t.Error("unwritten global should read untainted")
	}
	v := taintedAt(Location{FuncIndex: 2, Instr: 3})
	g.Store(7, v)
	if got := g.Load(7); got != v {
		t.Error("Load should return the stored value")
	}
	g.Reset()
	if g.Load(7).IsTainted() {
		t.Error("reset should drop all cells")
	}
}
