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
	"fmt"
	"os"
	"strings"

	"github.com/awslabs/ar-wasm-taint/internal/formatutil"
	"github.com/awslabs/ar-wasm-taint/internal/funcutil"
)

// EventKind discriminates the diagnostic events the engine emits.
type EventKind uint8

const (
	// SourceTainted is emitted when a call to a source function marks its
	// arguments tainted
	SourceTainted EventKind = iota + 1

	// SinkReached is emitted when a call to a sink function receives a
	// tainted argument
	SinkReached
)

func (k EventKind) String() string {
	switch k {
	case SourceTainted:
		return "source-tainted"
	case SinkReached:
		return "sink-reached"
	default:
		return fmt.Sprintf("eventkind(%d)", uint8(k))
	}
}

// An Event is one diagnostic emitted by the engine. Events are the sole
// output of the analysis; the engine returns nothing to the host.
type Event struct {
	// Kind is the event discriminator
	Kind EventKind

	// Loc is the call site the event was emitted at
	Loc Location

	// Target is the source or sink function called
	Target CallTarget

	// ArgPos is the position of the tainted argument (SinkReached only)
	ArgPos int

	// Origins lists the source call sites the tainted argument derives from
	// (SinkReached only)
	Origins []Location
}

func (ev Event) String() string {
	switch ev.Kind {
	case SinkReached:
		return fmt.Sprintf("%s: argument %d of %s at %s", ev.Kind, ev.ArgPos, ev.Target, ev.Loc)
	default:
		return fmt.Sprintf("%s: call to %s at %s", ev.Kind, ev.Target, ev.Loc)
	}
}

func (e *Engine) reportSource(loc Location, target CallTarget, argCount int) {
	e.events = append(e.events, Event{Kind: SourceTainted, Loc: loc, Target: target})
	e.logger.Infof("source %s called at %s, %d argument(s) now %s",
		target, loc, argCount, formatutil.Yellow("tainted"))
}

func (e *Engine) reportSink(loc Location, target CallTarget, argPos int, v *Value) {
	origins := v.Origins()
	e.flows.AddSinkHit(loc, origins)

	key := fmt.Sprintf("%s:%d:%d", loc, target.Index, argPos)
	if e.seen.Contains(key) {
		return
	}
	e.seen.Insert(key)
	if e.cfg.ExceedsMaxAlarms(e.alarms) {
		return
	}
	e.alarms++

	e.events = append(e.events, Event{
		Kind:    SinkReached,
		Loc:     loc,
		Target:  target,
		ArgPos:  argPos,
		Origins: origins,
	})
	e.logger.Infof(" 💀 Sink %s reached at %s: argument %d is tainted",
		target, formatutil.Red(loc), argPos)
	for _, o := range origins {
		e.logger.Infof("    flows from source at %s", formatutil.Green(o))
	}
	if e.cfg.ReportFlows {
		e.writeFlowReport(loc, target, argPos, origins)
	}
}

// writeFlowReport writes one source-to-sink flow to a flow-*.out file in the
// configured reports directory, one file per alarm.
func (e *Engine) writeFlowReport(loc Location, target CallTarget, argPos int, origins []Location) {
	tmp, err := os.CreateTemp(e.cfg.ReportsDir, "flow-*.out")
	if err != nil {
		e.logger.Errorf("could not write flow report: %v", err)
		return
	}
	defer tmp.Close()
	e.logger.Infof("report in %s", tmp.Name())

	fmt.Fprintf(tmp, "Sink: %s\n", target)
	fmt.Fprintf(tmp, "At: %s\n", loc)
	fmt.Fprintf(tmp, "Argument: %d\n", argPos)
	fmt.Fprintf(tmp, "Sources: %s\n",
		strings.Join(funcutil.Map(origins, Location.String), ", "))
}
