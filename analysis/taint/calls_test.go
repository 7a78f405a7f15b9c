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
	"errors"
	"testing"

	"github.com/awslabs/ar-wasm-taint/analysis/config"
	"github.com/google/go-cmp/cmp"
)

var (
	sourceTarget = CallTarget{Index: 10, Name: "getSecret", Module: "env"}
	sinkTarget   = CallTarget{Index: 11, Name: "send", Module: "net"}
	plainTarget  = CallTarget{Index: 12, Name: "helper"}
)

func secretToSendSpec() config.TaintSpec {
	return config.TaintSpec{
		Sources: []config.FuncIdentifier{{Function: "getSecret"}},
		Sinks:   []config.FuncIdentifier{{Function: "send"}},
	}
}

func TestSourceCallTaintsArguments(t *testing.T) {
	e := testEngine(t, secretToSendSpec())
	loc := Location{FuncIndex: 0, Instr: 5}

	// The argument is also held in local 0 of the caller.
	if err := e.Const(loc); err != nil {
		t.Fatal(err)
	}
	if err := e.Local(loc, LocalTee, 0); err != nil {
		t.Fatal(err)
	}

	if err := e.CallPre(loc, sourceTarget, 1, false); err != nil {
		t.Fatal(err)
	}
	if err := e.CallPost(loc, 0); err != nil {
		t.Fatal(err)
	}

	// The mark is visible through the caller's local holding the same value.
	if !e.stack.top().getLocal(0).IsTainted() {
		t.Error("source mark should be visible through every holder of the value")
	}

	events := e.Events()
	if len(events) != 1 || events[0].Kind != SourceTainted {
		t.Fatalf("expected one SourceTainted event, got %v", events)
	}
	if events[0].Loc != loc {
		t.Errorf("event location %s, want %s", events[0].Loc, loc)
	}
	if !e.Flows().Sources[loc] {
		t.Error("the source call site should be recorded in the flows")
	}
}

func TestTaintedArgumentReachesSink(t *testing.T) {
	e := testEngine(t, secretToSendSpec())
	srcLoc := Location{FuncIndex: 0, Instr: 5}
	sinkLoc := Location{FuncIndex: 0, Instr: 9}

	if err := e.Const(srcLoc); err != nil {
		t.Fatal(err)
	}
	if err := e.Local(srcLoc, LocalTee, 0); err != nil {
		t.Fatal(err)
	}
	if err := e.CallPre(srcLoc, sourceTarget, 1, false); err != nil {
		t.Fatal(err)
	}
	if err := e.CallPost(srcLoc, 0); err != nil {
		t.Fatal(err)
	}

	if err := e.Local(sinkLoc, LocalGet, 0); err != nil {
		t.Fatal(err)
	}
	if err := e.CallPre(sinkLoc, sinkTarget, 1, false); err != nil {
		t.Fatal(err)
	}
	if err := e.CallPost(sinkLoc, 0); err != nil {
		t.Fatal(err)
	}

	var sinks []Event
	for _, ev := range e.Events() {
		if ev.Kind == SinkReached {
			sinks = append(sinks, ev)
		}
	}
	if len(sinks) != 1 {
		t.Fatalf("expected exactly one SinkReached event, got %v", sinks)
	}
	got := sinks[0]
	if got.Loc != sinkLoc || got.ArgPos != 0 {
		t.Errorf("unexpected sink event: %+v", got)
	}
	if diff := cmp.Diff([]Location{srcLoc}, got.Origins); diff != "" {
		t.Errorf("origins mismatch (-want +got):\n%s", diff)
	}
	if !e.Flows().Sinks[sinkLoc][srcLoc] {
		t.Error("the source-to-sink flow should be recorded")
	}
}

func TestUntaintedArgumentDoesNotAlarm(t *testing.T) {
	e := testEngine(t, secretToSendSpec())
	loc := Location{FuncIndex: 0, Instr: 9}
	if err := e.Const(loc); err != nil {
		t.Fatal(err)
	}
	if err := e.CallPre(loc, sinkTarget, 1, false); err != nil {
		t.Fatal(err)
	}
	if len(e.Events()) != 0 {
		t.Errorf("untainted sink argument should not alarm, got %v", e.Events())
	}
}

func TestSinkArgumentPosition(t *testing.T) {
	// Only the second of two arguments is tainted; the report names
	// position 1, counted in call order, not in pop order.
	e := testEngine(t, secretToSendSpec())
	srcLoc := Location{FuncIndex: 0, Instr: 2}
	sinkLoc := Location{FuncIndex: 0, Instr: 8}

	if err := e.Const(sinkLoc); err != nil { // first argument, untainted
		t.Fatal(err)
	}
	seedTainted(t, e, srcLoc) // second argument
	if err := e.CallPre(sinkLoc, sinkTarget, 2, false); err != nil {
		t.Fatal(err)
	}

	events := e.Events()
	if len(events) != 1 {
		t.Fatalf("expected one event, got %v", events)
	}
	if events[0].ArgPos != 1 {
		t.Errorf("tainted argument position %d, want 1", events[0].ArgPos)
	}
}

func TestSinkAlarmDeduplication(t *testing.T) {
	// The same sink call site with the same argument position alarms once,
	// however often it executes. Flows keep accumulating.
	e := testEngine(t, secretToSendSpec())
	srcLoc := Location{FuncIndex: 0, Instr: 2}
	sinkLoc := Location{FuncIndex: 0, Instr: 8}

	for i := 0; i < 3; i++ {
		seedTainted(t, e, srcLoc)
		if err := e.CallPre(sinkLoc, sinkTarget, 1, false); err != nil {
			t.Fatal(err)
		}
		if err := e.CallPost(sinkLoc, 0); err != nil {
			t.Fatal(err)
		}
	}

	count := 0
	for _, ev := range e.Events() {
		if ev.Kind == SinkReached {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected one SinkReached event after three executions, got %d", count)
	}
	if !e.Flows().Sinks[sinkLoc][srcLoc] {
		t.Error("the flow should still be recorded")
	}
}

func TestMaxAlarmsLimit(t *testing.T) {
	e := testEngine(t, secretToSendSpec())
	e.cfg.MaxAlarms = 1
	srcLoc := Location{FuncIndex: 0, Instr: 2}

	for i := 0; i < 3; i++ {
		sinkLoc := Location{FuncIndex: 0, Instr: 8 + i}
		seedTainted(t, e, srcLoc)
		if err := e.CallPre(sinkLoc, sinkTarget, 1, false); err != nil {
			t.Fatal(err)
		}
		if err := e.CallPost(sinkLoc, 0); err != nil {
			t.Fatal(err)
		}
	}

	count := 0
	for _, ev := range e.Events() {
		if ev.Kind == SinkReached {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected alarms capped at 1, got %d", count)
	}
}

func TestCallSeedsCalleeLocals(t *testing.T) {
	e := testEngine(t, secretToSendSpec())
	srcLoc := Location{FuncIndex: 0, Instr: 2}
	callLoc := Location{FuncIndex: 0, Instr: 6}

	if err := e.Const(callLoc); err != nil { // argument 0, untainted
		t.Fatal(err)
	}
	seedTainted(t, e, srcLoc) // argument 1
	if err := e.CallPre(callLoc, plainTarget, 2, false); err != nil {
		t.Fatal(err)
	}

	if e.stack.depth() != 2 {
		t.Fatalf("expected frame depth 2, got %d", e.stack.depth())
	}
	callee := e.stack.top()
	if callee.getLocal(0).IsTainted() {
		t.Error("callee local 0 should carry argument 0's taint (untainted)")
	}
	if !callee.getLocal(1).IsTainted() {
		t.Error("callee local 1 should carry argument 1's taint")
	}
}

func TestCallPostMirrorsResiduals(t *testing.T) {
	e := testEngine(t, secretToSendSpec())
	srcLoc := Location{FuncIndex: 0, Instr: 2}
	callLoc := Location{FuncIndex: 0, Instr: 6}
	bodyLoc := Location{FuncIndex: 12, Instr: 0}

	if err := e.CallPre(callLoc, plainTarget, 0, false); err != nil {
		t.Fatal(err)
	}
	if err := e.Begin(bodyLoc, KindFunction); err != nil {
		t.Fatal(err)
	}
	seedTainted(t, e, srcLoc)
	if err := e.End(bodyLoc, KindFunction); err != nil {
		t.Fatal(err)
	}
	if err := e.CallPost(callLoc, 1); err != nil {
		t.Fatal(err)
	}

	if !mustPeek(t, e).IsTainted() {
		t.Error("the callee's residual taint should mirror onto the caller")
	}
}

func TestCallPostFillsMissingResiduals(t *testing.T) {
	e := testEngine(t)
	callLoc := Location{FuncIndex: 0, Instr: 6}
	if err := e.CallPre(callLoc, plainTarget, 0, false); err != nil {
		t.Fatal(err)
	}
	if err := e.CallPost(callLoc, 2); err != nil {
		t.Fatal(err)
	}
	if stackSize(e) != 2 {
		t.Fatalf("expected 2 mirrored results, stack size %d", stackSize(e))
	}
	if mustPeek(t, e).IsTainted() {
		t.Error("a residual the callee never produced mirrors untainted")
	}
}

func TestIndirectCallConsumesTableIndex(t *testing.T) {
	e := testEngine(t)
	loc := Location{FuncIndex: 0, Instr: 3}
	if err := e.Const(loc); err != nil { // argument
		t.Fatal(err)
	}
	if err := e.Const(loc); err != nil { // table index
		t.Fatal(err)
	}
	if err := e.CallPre(loc, plainTarget, 1, true); err != nil {
		t.Fatal(err)
	}
	if err := e.CallPost(loc, 0); err != nil {
		t.Fatal(err)
	}
	if stackSize(e) != 0 {
		t.Errorf("indirect call should consume the table index, stack size %d", stackSize(e))
	}
}

func TestCallPostOnRootFrameFails(t *testing.T) {
	e := testEngine(t)
	loc := Location{FuncIndex: 0, Instr: 3}
	err := e.CallPost(loc, 0)
	var underflow *StackUnderflowError
	if !errors.As(err, &underflow) {
		t.Fatalf("expected StackUnderflowError, got %v", err)
	}
	if underflow.Kind != "frame" {
		t.Errorf("expected frame underflow, got %q", underflow.Kind)
	}
}

func TestSourceMatchByIndex(t *testing.T) {
	spec := config.TaintSpec{
		Sources: []config.FuncIdentifier{{Index: "10"}},
		Sinks:   []config.FuncIdentifier{{Function: "send"}},
	}
	e := testEngine(t, spec)
	loc := Location{FuncIndex: 0, Instr: 5}
	if err := e.Const(loc); err != nil {
		t.Fatal(err)
	}
	if err := e.CallPre(loc, sourceTarget, 1, false); err != nil {
		t.Fatal(err)
	}
	if len(e.Events()) != 1 || e.Events()[0].Kind != SourceTainted {
		t.Errorf("a source identified by index should match, got %v", e.Events())
	}
}
