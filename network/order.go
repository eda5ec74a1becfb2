package network

import (
	"fmt"
	"sort"

	"github.com/dudk/timbre"
	"github.com/dudk/timbre/stream"
)

// edge is a connection between two primitive algorithms.
type edge struct {
	from, to stream.Algorithm
	seq      uint64
}

// graph is an execution graph made of primitive algorithms.
type graph struct {
	nodes []stream.Algorithm
	index map[stream.Algorithm]int
	out   map[stream.Algorithm][]edge
}

// expand flattens visible nodes into primitives and collects edges
// between them. Edges are sorted by declaration order.
func expand(visible []*Node) (*graph, error) {
	g := &graph{
		index: make(map[stream.Algorithm]int),
		out:   make(map[stream.Algorithm][]edge),
	}
	for _, n := range visible {
		for _, p := range stream.Primitives(n.algorithm) {
			if _, ok := g.index[p]; ok {
				continue
			}
			g.index[p] = len(g.nodes)
			g.nodes = append(g.nodes, p)
		}
	}
	for _, p := range g.nodes {
		for _, in := range p.Inputs() {
			src := in.Source()
			if src == nil {
				if !in.Optional() {
					return nil, fmt.Errorf("%w: required input %s is not connected", timbre.ErrGraph, in.FullName())
				}
				continue
			}
			if _, ok := g.index[src.Owner()]; !ok {
				return nil, fmt.Errorf("%w: %s is connected to %s which is not reachable from generator", timbre.ErrGraph, in.FullName(), src.FullName())
			}
		}
		for _, src := range p.Outputs() {
			for _, sink := range src.Sinks() {
				// capped sinks have no owner.
				if sink.Owner() == nil {
					continue
				}
				if _, ok := g.index[sink.Owner()]; !ok {
					return nil, fmt.Errorf("%w: %s is connected to %s which is not a primitive", timbre.ErrGraph, src.FullName(), sink.FullName())
				}
				g.out[p] = append(g.out[p], edge{from: p, to: sink.Owner(), seq: sink.Sequence()})
			}
		}
		edges := g.out[p]
		sort.SliceStable(edges, func(i, j int) bool {
			return edges[i].seq < edges[j].seq
		})
	}
	return g, nil
}

// order returns deterministic topological order of execution graph. Nodes
// are first discovered with breadth-first traversal from roots following
// edges in declaration order. Then nodes without unscheduled predecessors
// are scheduled, ties are broken by discovery order.
func (g *graph) order(roots []stream.Algorithm) ([]stream.Algorithm, error) {
	discovery := make(map[stream.Algorithm]int, len(g.nodes))
	queue := make([]stream.Algorithm, 0, len(g.nodes))
	discover := func(a stream.Algorithm) {
		if _, ok := discovery[a]; ok {
			return
		}
		discovery[a] = len(discovery)
		queue = append(queue, a)
	}
	for _, r := range roots {
		discover(r)
	}
	for i := 0; i < len(queue); i++ {
		for _, e := range g.out[queue[i]] {
			discover(e.to)
		}
	}
	// nodes which can't be reached through edges keep declaration order.
	for _, a := range g.nodes {
		discover(a)
	}

	indegree := make(map[stream.Algorithm]int, len(g.nodes))
	for _, a := range g.nodes {
		for _, e := range g.out[a] {
			indegree[e.to]++
		}
	}
	var ready []stream.Algorithm
	for _, a := range queue {
		if indegree[a] == 0 {
			ready = append(ready, a)
		}
	}
	order := make([]stream.Algorithm, 0, len(g.nodes))
	for len(ready) > 0 {
		// pick node discovered first.
		min := 0
		for i := range ready {
			if discovery[ready[i]] < discovery[ready[min]] {
				min = i
			}
		}
		a := ready[min]
		ready = append(ready[:min], ready[min+1:]...)
		order = append(order, a)
		for _, e := range g.out[a] {
			if indegree[e.to]--; indegree[e.to] == 0 {
				ready = append(ready, e.to)
			}
		}
	}
	if len(order) != len(g.nodes) {
		for _, a := range queue {
			if indegree[a] > 0 {
				return nil, fmt.Errorf("%w: cycle through %s", timbre.ErrGraph, a.Name())
			}
		}
		return nil, fmt.Errorf("%w: cycle", timbre.ErrGraph)
	}
	return order, nil
}
