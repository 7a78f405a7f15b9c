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
	"github.com/hashicorp/go-set"
	"golang.org/x/exp/slices"
)

// Label is the taint lattice: Untainted < Tainted.
type Label uint8

const (
	// Untainted is the bottom of the lattice, the label of all values that do
	// not derive from a source
	Untainted Label = iota

	// Tainted is the top of the lattice
	Tainted
)

func (l Label) String() string {
	if l == Tainted {
		return "tainted"
	}
	return "untainted"
}

// A Value is one shadow taint value. Values are shared by reference: the same
// *Value may sit on the shadow stack, in a local slot and in shadow memory at
// once, so marking it tainted at a source call is visible everywhere it is
// held. A tainted value carries the set of source call sites it derives from.
type Value struct {
	label   Label
	origins *set.Set[Location]
}

// NewValue returns a fresh untainted value.
func NewValue() *Value {
	return &Value{label: Untainted}
}

// Label returns the current label of the value.
func (v *Value) Label() Label { return v.label }

// IsTainted returns true if the value's label is Tainted.
func (v *Value) IsTainted() bool { return v.label == Tainted }

// MarkTainted forces the label of the value to Tainted and records loc as an
// origin. This is the only mutation of an existing value; everything else
// produces new values through Join.
func (v *Value) MarkTainted(loc Location) {
	v.label = Tainted
	if v.origins == nil {
		v.origins = set.New[Location](1)
	}
	v.origins.Insert(loc)
}

// Origins returns the source call sites this value derives from, in a
// deterministic order. Untainted values have no origins.
func (v *Value) Origins() []Location {
	if v.origins == nil {
		return nil
	}
	origins := v.origins.Slice()
	slices.SortFunc(origins, func(a, b Location) bool {
		if a.FuncIndex != b.FuncIndex {
			return a.FuncIndex < b.FuncIndex
		}
		return a.Instr < b.Instr
	})
	return origins
}

// derived returns a new value carrying the same label and origins as v. Used
// by unary operators, which propagate taint unchanged.
func derived(v *Value) *Value {
	r := &Value{label: v.label}
	if v.origins != nil {
		r.origins = set.New[Location](v.origins.Size())
		for _, o := range v.origins.Slice() {
			r.origins.Insert(o)
		}
	}
	return r
}

// Join returns the least upper bound of a and b: the result is Tainted iff
// either operand is Tainted, and its origins are the union of both operands'
// origins. Join is commutative, associative and idempotent over labels, and
// never mutates its operands.
func Join(a, b *Value) *Value {
	r := derived(a)
	if b.label == Tainted {
		r.label = Tainted
	}
	if b.origins != nil {
		if r.origins == nil {
			r.origins = set.New[Location](b.origins.Size())
		}
		for _, o := range b.origins.Slice() {
			r.origins.Insert(o)
		}
	}
	return r
}
