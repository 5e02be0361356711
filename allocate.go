// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rendergraph

import "log/slog"

// slotKind tags what a filter's texture slot holds.
type slotKind uint8

const (
	slotEmpty slotKind = iota
	slotOwned
	slotBorrowed
	slotHost
)

// textureSlot is the output texture state of a filter. Exactly one of
// texture and lender is meaningful, selected by kind.
type textureSlot struct {
	kind    slotKind
	texture Texture // slotOwned, slotHost
	lender  *Filter // slotBorrowed; always in slotOwned state itself
}

// resolve returns the texture the slot currently refers to.
func (s textureSlot) resolve() Texture {
	switch s.kind {
	case slotOwned, slotHost:
		return s.texture
	case slotBorrowed:
		if s.lender.slot.kind != slotOwned {
			return nil
		}
		return s.lender.slot.texture
	default:
		return nil
	}
}

// OutputTexture returns the texture the filter writes into, resolving a
// borrowed texture through its owner. It is nil before allocation.
func (f *Filter) OutputTexture() Texture {
	return f.slot.resolve()
}

// OutputSize returns the output extent computed by the last allocation.
func (f *Filter) OutputSize() Size { return f.size }

// OwnsTexture reports whether the filter holds a texture it will release.
func (f *Filter) OwnsTexture() bool { return f.slot.kind == slotOwned }

// Lender returns the filter whose texture f borrows, or nil.
func (f *Filter) Lender() *Filter {
	if f.slot.kind != slotBorrowed {
		return nil
	}
	return f.slot.lender
}

// TextureStolen reports whether another filter borrowed f's texture in
// the current allocation pass.
func (f *Filter) TextureStolen() bool { return f.stolen }

// releaseTexture destroys an owned texture and empties the slot.
// Borrowed and host textures are only forgotten.
func (f *Filter) releaseTexture() {
	if f.slot.kind == slotOwned && f.slot.texture != nil {
		f.slot.texture.Destroy()
	}
	f.slot = textureSlot{}
}

// AllocateTextures assigns an output texture to every node of the graph
// rooted at f, reusing textures of nodes whose live range has ended.
// Run it once per frame before Render; with unchanged sizes it allocates
// nothing. Renderer errors are returned unmodified.
func (f *Filter) AllocateTextures(r Renderer) error {
	return newAllocator(r, Logger()).allocate(f)
}

// DeallocateTextures releases every texture owned by the graph rooted at
// f. Filters stay usable; the next AllocateTextures starts from scratch.
func (f *Filter) DeallocateTextures() {
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
		n.releaseTexture()
		n.stolen = false
	}
	walk(f)
}

// allocator is the state of one allocation pass.
type allocator struct {
	r       Renderer
	log     *slog.Logger
	visited map[*Filter]struct{}
}

func newAllocator(r Renderer, log *slog.Logger) *allocator {
	return &allocator{
		r:       r,
		log:     log,
		visited: make(map[*Filter]struct{}),
	}
}

func (a *allocator) allocate(f *Filter) error {
	if _, ok := a.visited[f]; ok {
		return nil
	}
	a.visited[f] = struct{}{}
	if f.disposed {
		return ErrDisposed
	}

	switch f.kind {
	case KindSource:
		for _, in := range f.inputs {
			if err := a.allocate(in); err != nil {
				return err
			}
		}
		f.slot = textureSlot{kind: slotHost, texture: a.r.InputFrame()}
		f.size = a.r.InputSize()
		return nil
	case KindOutput:
		f.slot = textureSlot{kind: slotHost, texture: a.r.OutputTarget()}
		f.size = a.r.OutputSize()
		return nil
	}

	if !f.initialized {
		return ErrNotInitialized
	}
	sizes := make([]Size, len(f.inputs))
	for i, in := range f.inputs {
		if err := a.allocate(in); err != nil {
			return err
		}
		sizes[i] = in.size
	}

	size := f.stage.OutputSize(sizes)
	f.size = size
	f.stolen = false

	if f.slot.kind == slotOwned && SizeOf(f.slot.texture) == size {
		return nil
	}

	if f.slot.kind == slotOwned {
		a.log.Debug("rendergraph: releasing texture", "filter", f.Name(), "size", SizeOf(f.slot.texture).String())
	}
	f.releaseTexture()

	if lender := a.findReusable(f, size); lender != nil {
		lender.stolen = true
		f.slot = textureSlot{kind: slotBorrowed, lender: lender}
		a.log.Debug("rendergraph: reusing texture",
			"filter", f.Name(), "index", f.index,
			"owner", lender.Name(), "owner_end", lender.lastDependent,
			"size", size.String())
	} else {
		t, err := a.r.CreateRenderTarget(size)
		if err != nil {
			return err
		}
		f.slot = textureSlot{kind: slotOwned, texture: t}
		a.log.Debug("rendergraph: new render target", "filter", f.Name(), "index", f.index, "size", size.String())
	}
	return nil
}

// findReusable returns the first node upstream of f whose texture is
// free for f: owned, not yet lent this pass, dead before f runs, and the
// exact size. First fit, not best fit. Inputs were allocated before f, so
// every candidate is settled and its stolen flag is current.
func (a *allocator) findReusable(f *Filter, size Size) *Filter {
	for _, c := range upstream(f) {
		if c.slot.kind != slotOwned || c.stolen {
			continue
		}
		if c.lastDependent >= f.index {
			continue
		}
		if SizeOf(c.slot.texture) != size {
			continue
		}
		return c
	}
	return nil
}

// upstream returns the processing filters feeding f, directly or
// transitively, in depth-first post-order over f's inputs. Leaves are
// skipped; their textures belong to the host.
func upstream(f *Filter) []*Filter {
	var out []*Filter
	seen := make(map[*Filter]struct{})
	var walk func(n *Filter)
	walk = func(n *Filter) {
		if _, ok := seen[n]; ok {
			return
		}
		seen[n] = struct{}{}
		if n.kind != KindStage {
			return
		}
		for _, in := range n.inputs {
			walk(in)
		}
		out = append(out, n)
	}
	for _, in := range f.inputs {
		walk(in)
	}
	return out
}
