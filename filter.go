// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rendergraph

import "fmt"

// Kind distinguishes the node variants of a filter graph.
type Kind uint8

const (
	// KindStage is a processing filter backed by a Stage.
	KindStage Kind = iota

	// KindSource is the leaf standing for the unprocessed input frame.
	// It is also the placeholder that Append substitutes.
	KindSource

	// KindOutput is the sentinel beneath a Source that stands for the
	// player's final output texture.
	KindOutput
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindStage:
		return "stage"
	case KindSource:
		return "source"
	case KindOutput:
		return "output"
	default:
		return "unknown"
	}
}

// Schedule indices reserved for the leaves. They are never renumbered.
const (
	SourceIndex = -1
	OutputIndex = -2
)

// Stage is the stage-specific part of a processing filter: how large its
// output is and how to produce it from the input textures.
type Stage interface {
	// OutputSize computes the output extent from the input extents.
	// It must be a pure function of its argument.
	OutputSize(inputs []Size) Size

	// Render writes the stage output into target. inputs are the
	// output textures of the filter inputs, in input order.
	Render(r Renderer, target Texture, inputs []Texture) error

	// Clone returns an independent copy used when a graph is spliced.
	// Per-instance mutable state must not be shared with the receiver.
	Clone() Stage
}

// InputValidator is implemented by stages that constrain their input
// list. NewFilter calls it before returning.
type InputValidator interface {
	ValidateInputs(n int) error
}

// Filter is one node of a filter graph.
//
// A Filter produces exactly one texture, which it either owns or borrows
// from a node whose live range has ended. Graph traversals are not safe
// for concurrent use; drive a graph from one goroutine.
type Filter struct {
	kind   Kind
	stage  Stage
	inputs []*Filter

	slot textureSlot
	size Size

	index         int
	lastDependent int

	stolen      bool
	evaluated   bool
	initialized bool
	disposed    bool
}

// NewFilter creates a processing filter running stage over inputs.
// The input list must be non-empty and free of nil entries.
func NewFilter(stage Stage, inputs ...*Filter) (*Filter, error) {
	if stage == nil {
		return nil, ErrNilStage
	}
	if len(inputs) == 0 {
		return nil, ErrNoInputs
	}
	for i, in := range inputs {
		if in == nil {
			return nil, fmt.Errorf("%w at position %d", ErrNilInput, i)
		}
	}
	if v, ok := stage.(InputValidator); ok {
		if err := v.ValidateInputs(len(inputs)); err != nil {
			return nil, err
		}
	}
	return &Filter{
		kind:   KindStage,
		stage:  stage,
		inputs: append([]*Filter(nil), inputs...),
	}, nil
}

// Kind returns the node variant.
func (f *Filter) Kind() Kind { return f.kind }

// Stage returns the stage of a processing filter, nil for leaves.
func (f *Filter) Stage() Stage { return f.stage }

// Name returns the stage name if the stage has one, otherwise the kind.
func (f *Filter) Name() string {
	if n, ok := f.stage.(interface{ Name() string }); ok {
		if name := n.Name(); name != "" {
			return name
		}
	}
	return f.kind.String()
}

// Inputs returns a copy of the input list.
func (f *Filter) Inputs() []*Filter {
	return append([]*Filter(nil), f.inputs...)
}

// ScheduleIndex returns the evaluation order assigned by Initialize.
func (f *Filter) ScheduleIndex() int { return f.index }

// LastDependentIndex returns the upper bound of the live range.
func (f *Filter) LastDependentIndex() int { return f.lastDependent }

// LiveRange returns the half-open range [ScheduleIndex, LastDependentIndex)
// during which the output texture must stay valid.
func (f *Filter) LiveRange() (start, end int) { return f.index, f.lastDependent }

// Initialized reports whether the filter has been numbered. Leaves are
// numbered at construction.
func (f *Filter) Initialized() bool {
	return f.kind != KindStage || f.initialized
}

// Disposed reports whether Dispose has run.
func (f *Filter) Disposed() bool { return f.disposed }

// Initialize assigns schedule indices and live ranges to the graph rooted
// at f. Call it once on the root with time 0 after composition.
//
// Revisiting an initialized node only raises its last dependent index, so
// a node reached from several consumers keeps its first numbering and
// stays live until the last of them.
func (f *Filter) Initialize(time int) {
	if f.kind != KindStage {
		return
	}
	if f.initialized {
		f.lastDependent = max(f.lastDependent, time)
		return
	}

	running := time
	for _, in := range f.inputs {
		in.Initialize(running)
		running = max(running, in.lastDependent)
	}
	f.index = running

	// Second pass: every input must outlive this consumer. The range is
	// half-open, so the bound is one past our own index.
	for _, in := range f.inputs {
		in.Initialize(f.index + 1)
	}
	f.lastDependent = f.index + 1
	f.initialized = true
}

// NewFrame clears the per-frame memoization of the graph rooted at f.
func (f *Filter) NewFrame() {
	if !f.evaluated {
		return
	}
	f.evaluated = false
	for _, in := range f.inputs {
		in.NewFrame()
	}
}

// Evaluated reports whether the filter has rendered in the current frame.
func (f *Filter) Evaluated() bool { return f.evaluated }

// Render evaluates the graph rooted at f. Each node renders at most once
// per frame, after all of its inputs. Textures must have been assigned
// by AllocateTextures.
func (f *Filter) Render(r Renderer) error {
	if f.kind != KindStage || f.evaluated {
		return nil
	}
	if f.disposed {
		return ErrDisposed
	}
	if !f.initialized {
		return ErrNotInitialized
	}
	f.evaluated = true

	textures := make([]Texture, len(f.inputs))
	for i, in := range f.inputs {
		if err := in.Render(r); err != nil {
			return err
		}
		t := in.OutputTexture()
		if t == nil {
			return fmt.Errorf("%w: input %d (%s) of %s", ErrNotAllocated, i, in.Name(), f.Name())
		}
		textures[i] = t
	}

	target := f.OutputTexture()
	if target == nil {
		return fmt.Errorf("%w: %s", ErrNotAllocated, f.Name())
	}
	return f.stage.Render(r, target, textures)
}

// Dispose releases the graph rooted at f: inputs first, then the texture
// f owns. Borrowed textures are left to their owner. Calling Dispose more
// than once is a no-op.
//
// A composed graph owns the graphs spliced into it, so disposing the
// result of Append also disposes the receiver of that call.
func (f *Filter) Dispose() {
	if f.disposed {
		return
	}
	f.disposed = true
	for _, in := range f.inputs {
		in.Dispose()
	}
	f.releaseTexture()
}

// Nodes returns the unique nodes of the graph rooted at f in depth-first
// post-order, which is the order Render evaluates them in.
func (f *Filter) Nodes() []*Filter {
	var out []*Filter
	seen := make(map[*Filter]struct{})
	var walk func(n *Filter)
	walk = func(n *Filter) {
		if _, ok := seen[n]; ok {
			return
		}
		seen[n] = struct{}{}
		for _, in := range n.inputs {
			walk(in)
		}
		out = append(out, n)
	}
	walk(f)
	return out
}

// String returns a compact description for logs and test failures.
func (f *Filter) String() string {
	return fmt.Sprintf("%s[%d,%d)", f.Name(), f.index, f.lastDependent)
}
