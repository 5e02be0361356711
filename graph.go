// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rendergraph

import (
	"errors"
	"log/slog"
	"runtime"
)

// Graph drives a composed filter graph frame by frame.
//
// Typical use:
//
//	g, err := rendergraph.NewGraph(root, renderer)
//	if err != nil {
//	    return err
//	}
//	defer g.Close()
//
//	for each displayed frame {
//	    out, err := g.RenderFrame()
//	    ...
//	}
//
// Graph is not safe for concurrent use.
type Graph struct {
	root *Filter
	r    Renderer
	log  *slog.Logger
	name string

	frames  uint64
	closed  bool
	cleanup runtime.Cleanup
}

// Stats summarizes a graph's nodes and texture use.
type Stats struct {
	// Nodes is the number of unique nodes, leaves included.
	Nodes int

	// Owned is the number of textures held by their owner.
	Owned int

	// Borrowed is the number of filters writing into another filter's
	// texture.
	Borrowed int

	// Frames is the number of frames rendered.
	Frames uint64
}

// leakReport is the argument of the unreachable-graph diagnostic. It must
// not reference the Graph.
type leakReport struct {
	name string
	log  *slog.Logger
}

// NewGraph numbers root with Initialize(0) and binds it to r.
func NewGraph(root *Filter, r Renderer, opts ...GraphOption) (*Graph, error) {
	if root == nil {
		return nil, ErrNilInput
	}
	if r == nil {
		return nil, errors.New("rendergraph: nil renderer")
	}
	if root.disposed {
		return nil, ErrDisposed
	}

	o := defaultGraphOptions()
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger
	if log == nil {
		log = Logger()
	}

	root.Initialize(0)

	g := &Graph{
		root: root,
		r:    r,
		log:  log,
		name: o.name,
	}
	// Diagnostic only. Textures are released by Close, never here.
	g.cleanup = runtime.AddCleanup(g, func(rep leakReport) {
		rep.log.Warn("rendergraph: graph unreachable without Close", "graph", rep.name)
	}, leakReport{name: o.name, log: log})

	log.Info("rendergraph: graph initialized",
		"graph", g.name, "nodes", len(root.Nodes()), "root_index", root.ScheduleIndex())
	return g, nil
}

// Root returns the root filter.
func (g *Graph) Root() *Filter { return g.root }

// Renderer returns the bound renderer.
func (g *Graph) Renderer() Renderer { return g.r }

// RenderFrame allocates textures, starts a new frame and renders the
// root. It returns the root's output texture, which stays valid until the
// next RenderFrame or Close.
func (g *Graph) RenderFrame() (Texture, error) {
	if g.closed {
		return nil, ErrDisposed
	}
	if err := newAllocator(g.r, g.log).allocate(g.root); err != nil {
		return nil, err
	}
	g.root.NewFrame()
	if err := g.root.Render(g.r); err != nil {
		return nil, err
	}
	g.frames++
	return g.root.OutputTexture(), nil
}

// Nodes returns the graph's unique nodes in evaluation order.
func (g *Graph) Nodes() []*Filter { return g.root.Nodes() }

// Stats returns a snapshot of the graph's texture use.
func (g *Graph) Stats() Stats {
	st := Stats{Frames: g.frames}
	for _, n := range g.root.Nodes() {
		st.Nodes++
		switch n.slot.kind {
		case slotOwned:
			st.Owned++
		case slotBorrowed:
			st.Borrowed++
		}
	}
	return st
}

// Close releases every owned texture and disposes the graph. Calling it
// more than once is a no-op.
func (g *Graph) Close() {
	if g.closed {
		return
	}
	g.closed = true
	g.cleanup.Stop()
	g.root.DeallocateTextures()
	g.root.Dispose()
	g.log.Info("rendergraph: graph closed", "graph", g.name, "frames", g.frames)
}
