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
	"io"

	"github.com/awslabs/ar-wasm-taint/internal/funcutil"
	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Flows stores information about where the data coming from source call
// sites flowed to during a session.
type Flows struct {
	// Sinks maps each sink call site to the source call sites from which
	// data flowed to it. More precisely, Sinks[sink][source] <== data from
	// source reached sink.
	Sinks map[Location]map[Location]bool

	// Sources is the set of source call sites observed during the session,
	// whether or not their data reached a sink.
	Sources map[Location]bool
}

// NewFlows returns a new object to track source-to-sink flows.
func NewFlows() *Flows {
	return &Flows{
		Sinks:   map[Location]map[Location]bool{},
		Sources: map[Location]bool{},
	}
}

// AddSource records a source call site.
func (m *Flows) AddSource(loc Location) {
	m.Sources[loc] = true
}

// AddSinkHit records that data from each of sources reached sink.
func (m *Flows) AddSinkHit(sink Location, sources []Location) {
	if _, ok := m.Sinks[sink]; !ok {
		m.Sinks[sink] = make(map[Location]bool)
	}
	for _, src := range sources {
		m.Sinks[sink][src] = true
	}
}

// Merge merges the flows from b into m.
// requires m != nil
func (m *Flows) Merge(b *Flows) {
	funcutil.Merge(m.Sinks, b.Sinks, funcutil.Union[Location])
	funcutil.Union(m.Sources, b.Sources)
}

// Graph builds the directed source-to-sink flow graph, with one vertex per
// call site and one edge per flow.
func (m *Flows) Graph() (graph.Graph[string, string], error) {
	g := graph.New(graph.StringHash, graph.Directed())

	for _, src := range sortedLocations(m.Sources) {
		if err := addVertex(g, src.String(), "green"); err != nil {
			return nil, err
		}
	}
	for _, sink := range sortedLocations(m.Sinks) {
		if err := addVertex(g, sink.String(), "red"); err != nil {
			return nil, err
		}
		for _, src := range sortedLocations(m.Sinks[sink]) {
			if err := addVertex(g, src.String(), "green"); err != nil {
				return nil, err
			}
			err := g.AddEdge(src.String(), sink.String())
			if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
				return nil, err
			}
		}
	}
	return g, nil
}

// WriteDOT writes the flow graph in Graphviz DOT format.
func (m *Flows) WriteDOT(w io.Writer) error {
	g, err := m.Graph()
	if err != nil {
		return err
	}
	return draw.DOT(g, w)
}

func addVertex(g graph.Graph[string, string], v string, color string) error {
	err := g.AddVertex(v, graph.VertexAttribute("color", color))
	if err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
		return err
	}
	return nil
}

// sortedLocations returns the keys of a location-keyed map in a
// deterministic order, so graph and report output are stable.
func sortedLocations[V any](m map[Location]V) []Location {
	locs := maps.Keys(m)
	slices.SortFunc(locs, func(a, b Location) bool {
		if a.FuncIndex != b.FuncIndex {
			return a.FuncIndex < b.FuncIndex
		}
		return a.Instr < b.Instr
	})
	return locs
}
