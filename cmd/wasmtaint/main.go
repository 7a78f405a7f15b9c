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

// wasmtaint replays recorded execution traces through the taint engine and
// reports every source-to-sink flow observed.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/awslabs/ar-wasm-taint/analysis/config"
	"github.com/awslabs/ar-wasm-taint/analysis/replay"
	"github.com/awslabs/ar-wasm-taint/analysis/taint"
	"github.com/awslabs/ar-wasm-taint/internal/formatutil"
)

var (
	configPath = flag.String("config", "", "config file path for taint tracking")
	flowsPath  = flag.String("flows", "", "write the source-to-sink flow graph to this file (Graphviz DOT)")
)

const usage = ` Track taint through recorded execution traces.
Usage:
    wasmtaint [options] <trace file(s)>
Examples:
% wasmtaint -config config.yaml trace.yaml...
Each trace is replayed in its own session; flows are merged across sessions.
`

func main() {
	flag.Parse()

	if flag.NArg() == 0 {
		_, _ = fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg := config.NewDefault()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not load config %s: %v\n", *configPath, err)
			os.Exit(1)
		}
	}
	logger := config.NewLogGroup(cfg)

	flows := taint.NewFlows()
	sinksReached := 0

	for _, traceFile := range flag.Args() {
		logger.Infof("%s %s", formatutil.Faint("Replaying"), traceFile)

		events, err := replay.LoadTrace(traceFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not load trace %s: %v\n", traceFile, err)
			os.Exit(1)
		}

		eng := taint.NewEngine(cfg, logger)
		start := time.Now()
		err = replay.Run(eng, events)
		duration := time.Since(start)
		if err != nil {
			fmt.Fprintf(os.Stderr, "replay of %s failed: %v\n", traceFile, err)
			os.Exit(1)
		}
		logger.Infof("Replay of %d events took %3.4f s", len(events), duration.Seconds())

		for _, ev := range eng.Events() {
			if ev.Kind == taint.SinkReached {
				sinksReached++
			}
		}
		flows.Merge(eng.Flows())
	}

	if *flowsPath != "" {
		f, err := os.Create(*flowsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not create %s: %v\n", *flowsPath, err)
			os.Exit(1)
		}
		defer f.Close()
		if err := flows.WriteDOT(f); err != nil {
			fmt.Fprintf(os.Stderr, "could not write flow graph: %v\n", err)
			os.Exit(1)
		}
		logger.Infof("Flow graph written to %s", *flowsPath)
	}

	if sinksReached > 0 {
		logger.Infof("%s: %d tainted argument(s) reached a sink",
			formatutil.Red("RESULT"), sinksReached)
		os.Exit(1)
	}
	logger.Infof("%s: no tainted data reached a sink", formatutil.Green("RESULT"))
}
