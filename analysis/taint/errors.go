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

// A StackUnderflowError reports that a handler needed a shadow value, block
// or frame that was not there. The real machine guarantees the operand
// exists, so this means the shadow state has desynchronized from the real
// execution; it is fatal to the analysis session.
type StackUnderflowError struct {
	// Loc is the last known-good location, i.e. the instruction whose handler
	// detected the underflow
	Loc Location

	// Kind is the shadow structure that underflowed: "value", "block" or
	// "frame"
	Kind string
}

func (e *StackUnderflowError) Error() string {
	return fmt.Sprintf("shadow %s stack underflow at %s: shadow state is desynchronized from execution",
		e.Kind, e.Loc)
}

// An UnknownVariantError reports that a handler received an operation code
// outside its closed enumeration. Failing loudly here avoids masking a
// propagation gap with a silent no-op.
type UnknownVariantError struct {
	// Loc is the instruction whose handler received the unknown code
	Loc Location

	// Class is the handler class, e.g. "local" or "global"
	Class string

	// Code is the unrecognized operation code
	Code int
}

func (e *UnknownVariantError) Error() string {
	return fmt.Sprintf("unknown %s operation variant %d at %s", e.Class, e.Code, e.Loc)
}
