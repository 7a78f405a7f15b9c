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

/*
Package taint implements a dynamic taint tracking engine that shadows the
execution of a WebAssembly-style stack machine.

The host instrumentation layer drives an [Engine] in lock-step with the real
program: one callback per executed instruction, in program order. Each
callback reproduces the instruction's documented stack effect on a shadow
operand stack, so the shadow state stays depth-synchronized with the real
machine, and computes the taint of the produced values. Taint propagates
through explicit data flow only: branch conditions are consumed and
discarded, and control flow never taints values.

The engine owns the entirety of the shadow state: a call stack of frames,
each frame holding a stack of blocks (one operand sub-stack per structured
control scope) and an array of locals, plus shadow linear memory and shadow
globals shared across the session. Calls to functions designated as sources
by the configuration mark their arguments tainted; calls to sinks report any
tainted argument, and the source-to-sink flows are accumulated in a [Flows]
object for reporting.

A desynchronization between the shadow and the real machine surfaces as a
[StackUnderflowError], which is fatal to the session: the shadow state can no
longer be trusted and no recovery is attempted.
*/
package taint
