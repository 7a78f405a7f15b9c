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

// CallPre handles a call instruction before the real machine enters the
// callee. The shadow effect is:
//
//   - for an indirect call, the table index operand is consumed and
//     discarded;
//   - the argCount argument values are consumed; the last value pushed is
//     the last logical argument, so arguments are reassembled in call order
//     before the policy looks at them;
//   - the source/sink policy is applied to the arguments;
//   - a new frame is pushed for the callee, its locals seeded positionally
//     from the argument taints (wasm arguments are locals 0..n-1).
func (e *Engine) CallPre(loc Location, target CallTarget, argCount int, indirect bool) error {
	if indirect {
		if _, err := e.popValue(loc); err != nil { // table index operand
			return err
		}
	}

	args := make([]*Value, argCount)
	for i := argCount - 1; i >= 0; i-- {
		v, err := e.popValue(loc)
		if err != nil {
			return err
		}
		args[i] = v
	}

	fid := target.identifier()
	if e.cfg.IsSomeSource(fid) {
		// The arguments themselves are marked: the same values may still be
		// held in locals, globals or memory of the caller, and the mark is
		// visible through every one of those references.
		for _, a := range args {
			a.MarkTainted(loc)
		}
		e.flows.AddSource(loc)
		e.reportSource(loc, target, len(args))
	}
	if e.cfg.IsSomeSink(fid) {
		for i, a := range args {
			if a.IsTainted() {
				e.reportSink(loc, target, i, a)
			}
		}
	}

	callee := e.stack.pushFrame()
	for i, a := range args {
		callee.setLocal(uint32(i), a)
	}
	e.logger.Debugf("call %s at %s (%d args, frame depth %d)",
		target, loc, argCount, e.stack.depth())
	return nil
}

// CallPost handles the return from a call: the callee frame is popped and
// its residual values are mirrored positionally onto the caller's current
// block, one shadow value per real return value. Residuals the callee never
// produced mirror as fresh untainted values.
func (e *Engine) CallPost(loc Location, resultCount int) error {
	callee, ok := e.stack.popFrame()
	if !ok {
		return e.underflow(loc, "frame")
	}

	residuals := callee.results
	if residuals == nil {
		// The host may not emit an end event for the function-level block;
		// fall back to the callee's innermost block.
		if b, ok := callee.currentBlock(); ok {
			residuals = b.values
		}
	}

	for i := 0; i < resultCount; i++ {
		v := NewValue()
		if i < len(residuals) {
			v = residuals[i]
		}
		if err := e.pushValue(loc, v); err != nil {
			return err
		}
	}
	e.logger.Debugf("call returned at %s (%d results, frame depth %d)",
		loc, resultCount, e.stack.depth())
	return nil
}
