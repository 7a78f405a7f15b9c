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

// ShadowMemory is a sparse taint map over the linear memory address space,
// indexed by absolute effective address. Unwritten addresses read as fresh
// untainted values, matching the real memory's zero-initialization. It lives
// for one execution session.
type ShadowMemory struct {
	cells map[uint64]*Value
}

// NewShadowMemory returns an empty shadow memory.
func NewShadowMemory() *ShadowMemory {
	return &ShadowMemory{cells: make(map[uint64]*Value)}
}

// Load returns the taint value stored at addr, or a fresh untainted value if
// the address was never written. Unknown addresses are not an error.
func (m *ShadowMemory) Load(addr uint64) *Value {
	if v, ok := m.cells[addr]; ok {
		return v
	}
	return NewValue()
}

// Store overwrites or initializes the taint value at addr.
func (m *ShadowMemory) Store(addr uint64, v *Value) {
	m.cells[addr] = v
}

// Reset drops all cells, returning the memory to its session-start state.
func (m *ShadowMemory) Reset() {
	m.cells = make(map[uint64]*Value)
}

// ShadowGlobals is a sparse taint map over the global variable index space,
// with the same contract as ShadowMemory.
type ShadowGlobals struct {
	cells map[uint32]*Value
}

// NewShadowGlobals returns an empty shadow global store.
func NewShadowGlobals() *ShadowGlobals {
	return &ShadowGlobals{cells: make(map[uint32]*Value)}
}

// Load returns the taint value of global index, or a fresh untainted value if
// it was never written.
func (g *ShadowGlobals) Load(index uint32) *Value {
	if v, ok := g.cells[index]; ok {
		return v
	}
	return NewValue()
}

// Store overwrites or initializes the taint value of global index.
func (g *ShadowGlobals) Store(index uint32, v *Value) {
	g.cells[index] = v
}

// Reset drops all cells.
func (g *ShadowGlobals) Reset() {
	g.cells = make(map[uint32]*Value)
}
