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

import "fmt"

// A Location identifies one instruction in the analyzed module: the index of
// the enclosing function and the instruction offset within its body. The host
// passes a Location with every callback; it is the unit of source and sink
// reporting.
type Location struct {
	// FuncIndex is the index of the function in the module function space
	FuncIndex uint32

	// Instr is the instruction offset within the function body
	Instr int
}

func (l Location) String() string {
	return fmt.Sprintf("f%d@%d", l.FuncIndex, l.Instr)
}

// A CallTarget identifies the callee of a call instruction, as resolved by
// the host at the call site. Name and Module may be empty when the host has
// no symbol information; Index is always known.
type CallTarget struct {
	// Index is the function index of the callee
	Index uint32

	// Name is the export or debug name of the callee, when known
	Name string

	// Module is the name of the module defining the callee, when known
	Module string
}

func (t CallTarget) String() string {
	if t.Name != "" {
		return fmt.Sprintf("%s (f%d)", t.Name, t.Index)
	}
	return fmt.Sprintf("f%d", t.Index)
}

// MemArg is the static part of a memory access descriptor.
type MemArg struct {
	// Offset is the static offset added to the dynamic base address
	Offset uint32
}

// EffectiveAddress returns the absolute address accessed by an instruction
// with this MemArg and the dynamic base operand. The addition is widened so
// it cannot wrap.
func (m MemArg) EffectiveAddress(base uint32) uint64 {
	return uint64(base) + uint64(m.Offset)
}

// BlockKind says which structured control construct opened a block scope.
type BlockKind uint8

const (
	KindBlock BlockKind = iota
	KindLoop
	KindIf
	KindFunction
)

func (k BlockKind) String() string {
	switch k {
	case KindBlock:
		return "block"
	case KindLoop:
		return "loop"
	case KindIf:
		return "if"
	case KindFunction:
		return "function"
	default:
		return fmt.Sprintf("blockkind(%d)", uint8(k))
	}
}

// LocalOp enumerates the local variable sub-operations. The enumeration is
// closed: the engine matches it exhaustively and fails on anything else, so
// an unhandled variant cannot be silently ignored.
type LocalOp uint8

const (
	LocalGet LocalOp = iota
	LocalSet
	LocalTee
)

func (op LocalOp) String() string {
	switch op {
	case LocalGet:
		return "local.get"
	case LocalSet:
		return "local.set"
	case LocalTee:
		return "local.tee"
	default:
		return fmt.Sprintf("local(%d)", uint8(op))
	}
}

// GlobalOp enumerates the global variable sub-operations. Closed, like
// LocalOp.
type GlobalOp uint8

const (
	GlobalGet GlobalOp = iota
	GlobalSet
)

func (op GlobalOp) String() string {
	switch op {
	case GlobalGet:
		return "global.get"
	case GlobalSet:
		return "global.set"
	default:
		return fmt.Sprintf("global(%d)", uint8(op))
	}
}
