// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/gogpu/rendergraph"
)

// Software renderer errors.
var (
	// ErrTargetLimit is returned by CreateRenderTarget when the live
	// target limit set with WithMaxTargets is reached.
	ErrTargetLimit = errors.New("render: render target limit reached")

	// ErrEmptySize is returned for a render target without pixels.
	ErrEmptySize = errors.New("render: empty render target size")

	// ErrForeignTexture is returned when a pass touches a texture that
	// this renderer cannot read or write.
	ErrForeignTexture = errors.New("render: texture not created by this renderer type")

	// ErrForeignProgram is returned when a pass gets a program this
	// renderer cannot run.
	ErrForeignProgram = errors.New("render: unsupported shader program")

	// ErrBindingGap is returned when program bindings are not contiguous
	// from slot 0.
	ErrBindingGap = errors.New("render: texture bindings are not contiguous")
)

// SoftwareStats counts software renderer activity.
type SoftwareStats struct {
	Live      int
	Created   int
	Destroyed int
	Passes    int
}

// softwareOptions holds optional SoftwareRenderer configuration.
type softwareOptions struct {
	maxTargets int
}

// SoftwareOption configures a SoftwareRenderer.
type SoftwareOption func(*softwareOptions)

// WithMaxTargets caps the number of live render targets. Zero means
// unlimited.
func WithMaxTargets(n int) SoftwareOption {
	return func(o *softwareOptions) {
		if n >= 0 {
			o.maxTargets = n
		}
	}
}

// SoftwareRenderer is a CPU implementation of rendergraph.Renderer.
//
// Passes run a Program's Kernel over *image.RGBA buffers. Inputs whose
// size differs from the target are resampled with bilinear or
// nearest-neighbor filtering, chosen per binding.
//
// Example:
//
//	r := render.NewSoftwareRenderer(frame, rendergraph.Sz(1280, 720))
//	g, _ := rendergraph.NewGraph(root, r)
//	out, _ := g.RenderFrame()
//	img := out.(*render.PixmapTexture).Image()
//
// Thread Safety: not safe for concurrent use.
type SoftwareRenderer struct {
	input  *PixmapTexture
	output *PixmapTexture
	opts   softwareOptions

	live    map[uint64]*PixmapTexture
	created int
	gone    int
	passes  int
}

// NewSoftwareRenderer creates a renderer whose source frame is input and
// whose final output target has the given size.
func NewSoftwareRenderer(input image.Image, output rendergraph.Size, opts ...SoftwareOption) *SoftwareRenderer {
	var o softwareOptions
	for _, opt := range opts {
		opt(&o)
	}
	r := &SoftwareRenderer{
		output: NewPixmapTexture(output.Width, output.Height),
		opts:   o,
		live:   make(map[uint64]*PixmapTexture),
	}
	r.SetInputFrame(input)
	return r
}

// SetInputFrame replaces the source frame. Non-RGBA images and images
// with a non-zero origin are converted.
func (r *SoftwareRenderer) SetInputFrame(img image.Image) {
	if img == nil {
		img = image.NewRGBA(image.Rectangle{})
	}
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Rect.Min != (image.Point{}) {
		b := img.Bounds()
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Rect, img, b.Min, draw.Src)
	}
	r.input = NewPixmapTextureFromImage(rgba)
}

// CreateRenderTarget allocates a cleared RGBA texture.
func (r *SoftwareRenderer) CreateRenderTarget(size rendergraph.Size) (rendergraph.Texture, error) {
	if size.Empty() {
		return nil, fmt.Errorf("%w: %v", ErrEmptySize, size)
	}
	r.prune()
	if r.opts.maxTargets > 0 && len(r.live) >= r.opts.maxTargets {
		return nil, fmt.Errorf("%w (%d)", ErrTargetLimit, r.opts.maxTargets)
	}
	t := NewPixmapTexture(size.Width, size.Height)
	r.live[t.handle] = t
	r.created++
	rendergraph.Logger().Debug("render: software target", "handle", t.handle, "size", size.String())
	return t, nil
}

// InputFrame returns the current source frame.
func (r *SoftwareRenderer) InputFrame() rendergraph.Texture { return r.input }

// InputSize returns the size of the source frame.
func (r *SoftwareRenderer) InputSize() rendergraph.Size { return r.input.Size() }

// OutputTarget returns the final output texture.
func (r *SoftwareRenderer) OutputTarget() rendergraph.Texture { return r.output }

// OutputSize returns the size of the final output.
func (r *SoftwareRenderer) OutputSize() rendergraph.Size { return r.output.Size() }

// Output returns the final output image.
func (r *SoftwareRenderer) Output() *image.RGBA { return r.output.Image() }

// RenderPass runs program, which must be a *Program, into target.
func (r *SoftwareRenderer) RenderPass(target rendergraph.Texture, program rendergraph.ShaderProgram) error {
	p, ok := program.(*Program)
	if !ok {
		return fmt.Errorf("%w: %T", ErrForeignProgram, program)
	}
	dst, err := pixels(target)
	if err != nil {
		return fmt.Errorf("render: pass %s target: %w", p.name, err)
	}

	src := make([]*image.RGBA, len(p.bindings))
	for i, b := range p.bindings {
		if b.Texture == nil {
			return fmt.Errorf("%w: slot %d of %s is empty", ErrBindingGap, i, p.name)
		}
		img, err := pixels(b.Texture)
		if err != nil {
			return fmt.Errorf("render: pass %s input %d: %w", p.name, i, err)
		}
		src[i] = fit(img, dst, b.Linear)
	}

	if p.kernel != nil {
		p.kernel(dst, src, &p.consts)
	}
	r.passes++
	return nil
}

// Stats returns activity counters.
func (r *SoftwareRenderer) Stats() SoftwareStats {
	r.prune()
	return SoftwareStats{
		Live:      len(r.live),
		Created:   r.created,
		Destroyed: r.gone,
		Passes:    r.passes,
	}
}

// prune forgets targets the graph has destroyed.
func (r *SoftwareRenderer) prune() {
	for h, t := range r.live {
		if t.destroyed {
			delete(r.live, h)
			r.gone++
		}
	}
}

func pixels(t rendergraph.Texture) (*image.RGBA, error) {
	pt, ok := t.(*PixmapTexture)
	if !ok || pt == nil {
		return nil, fmt.Errorf("%w: %T", ErrForeignTexture, t)
	}
	if pt.img == nil {
		return nil, fmt.Errorf("render: texture %d used after Destroy", pt.handle)
	}
	return pt.img, nil
}

// fit returns src at the size of dst. A source that is dst itself is
// copied so kernels never read what they write.
func fit(src, dst *image.RGBA, linear bool) *image.RGBA {
	if src.Rect.Size() == dst.Rect.Size() && src != dst {
		return src
	}
	out := image.NewRGBA(dst.Rect)
	var interp draw.Interpolator = draw.NearestNeighbor
	if linear {
		interp = draw.BiLinear
	}
	interp.Scale(out, out.Rect, src, src.Rect, draw.Src, nil)
	return out
}

var _ rendergraph.Renderer = (*SoftwareRenderer)(nil)
