//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"
	"maps"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rendergraph"
)

// ErrNoHALDevice is returned when no HAL device is available.
var ErrNoHALDevice = errors.New("render: HAL device unavailable")

// targetUsage is the usage of every render target: written by a pass,
// sampled by later passes, and copyable for host readback.
const targetUsage = gputypes.TextureUsageRenderAttachment |
	gputypes.TextureUsageTextureBinding |
	gputypes.TextureUsageCopySrc

// HALTexture is a 2D texture with a default view on a HAL device.
type HALTexture struct {
	device hal.Device
	tex    hal.Texture
	view   hal.TextureView
	w, h   int
	format gputypes.TextureFormat
	handle uint64
}

// Width returns the texture width in pixels.
func (t *HALTexture) Width() int { return t.w }

// Height returns the texture height in pixels.
func (t *HALTexture) Height() int { return t.h }

// Format returns the pixel format.
func (t *HALTexture) Format() gputypes.TextureFormat { return t.format }

// Handle returns the package-unique texture handle.
func (t *HALTexture) Handle() uint64 { return t.handle }

// View returns the default view, nil after Destroy.
func (t *HALTexture) View() hal.TextureView { return t.view }

// Raw returns the HAL texture, nil after Destroy.
func (t *HALTexture) Raw() hal.Texture { return t.tex }

// Destroyed reports whether Destroy has been called.
func (t *HALTexture) Destroyed() bool { return t.tex == nil }

// Destroy releases the view, then the texture. Safe to call more than
// once.
func (t *HALTexture) Destroy() {
	if t.view != nil {
		t.device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		t.device.DestroyTexture(t.tex)
		t.tex = nil
	}
}

// BoundTexture is a texture binding captured in a Pass.
type BoundTexture struct {
	Texture *HALTexture
	Linear  bool
}

// Pass is a render pass recorded by HALRenderer. The host encodes it
// with its own pipeline and bind group layout.
type Pass struct {
	Target  *HALTexture
	Program *HALProgram
	Module  hal.ShaderModule
	Inputs  []BoundTexture
	Named   map[string]rendergraph.Vector4
	Indexed map[int]rendergraph.Vector4
}

// HALRenderer implements rendergraph.Renderer on a HAL device.
//
// It owns render target allocation. RenderPass only records a Pass with
// its bindings and constants; it does not encode or submit anything. The
// host drains the recorded passes with TakePasses after each frame and
// encodes them with its own pipelines on the queue it handed in, which
// the renderer keeps only for Queue.
//
// Thread Safety: not safe for concurrent use.
type HALRenderer struct {
	device hal.Device
	queue  hal.Queue
	format gputypes.TextureFormat
	limit  int

	input  *HALTexture
	output *HALTexture
	passes []Pass
}

// NewHALRenderer creates a renderer on a host-provided device. An
// undefined format selects RGBA8Unorm.
func NewHALRenderer(device hal.Device, queue hal.Queue, format gputypes.TextureFormat) (*HALRenderer, error) {
	if device == nil {
		return nil, ErrNoHALDevice
	}
	if format == gputypes.TextureFormatUndefined {
		format = gputypes.TextureFormatRGBA8Unorm
	}
	return &HALRenderer{
		device: device,
		queue:  queue,
		format: format,
		limit:  int(gputypes.DefaultLimits().MaxTextureDimension2D),
	}, nil
}

// NewHALRendererFromProvider creates a renderer on the device of a
// gpucontext host. The provider must implement HalDevice() any and
// HalQueue() any returning hal.Device and hal.Queue.
func NewHALRendererFromProvider(provider DeviceHandle) (*HALRenderer, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("%w: provider does not expose HAL types", ErrNoHALDevice)
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHALDevice)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHALDevice)
	}
	return NewHALRenderer(device, queue, provider.SurfaceFormat())
}

// Device returns the HAL device.
func (r *HALRenderer) Device() hal.Device { return r.device }

// Queue returns the HAL queue given at construction. The renderer never
// submits to it.
func (r *HALRenderer) Queue() hal.Queue { return r.queue }

// NewHostTexture creates a texture for the host side of the graph: the
// decoded frame or the presentation target. The caller destroys it.
func (r *HALRenderer) NewHostTexture(size rendergraph.Size, label string) (*HALTexture, error) {
	return r.createTexture(size, label)
}

// SetFrame sets the source frame and final output for the next frames.
func (r *HALRenderer) SetFrame(input, output *HALTexture) {
	r.input, r.output = input, output
}

// CreateRenderTarget creates a render target texture and view.
func (r *HALRenderer) CreateRenderTarget(size rendergraph.Size) (rendergraph.Texture, error) {
	t, err := r.createTexture(size, "rendergraph_target")
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *HALRenderer) createTexture(size rendergraph.Size, label string) (*HALTexture, error) {
	if size.Empty() {
		return nil, fmt.Errorf("%w: %v", ErrEmptySize, size)
	}
	if size.Width > r.limit || size.Height > r.limit {
		return nil, fmt.Errorf("render: texture %v exceeds device limit %d", size, r.limit)
	}

	tex, err := r.device.CreateTexture(&hal.TextureDescriptor{
		Label: label,
		Size: hal.Extent3D{
			Width:              uint32(size.Width),  //nolint:gosec // checked against limit
			Height:             uint32(size.Height), //nolint:gosec // checked against limit
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        r.format,
		Usage:         targetUsage,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture %s: %w", label, err)
	}
	view, err := r.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: label + "_view",
	})
	if err != nil {
		r.device.DestroyTexture(tex)
		return nil, fmt.Errorf("create texture view %s: %w", label, err)
	}

	t := &HALTexture{
		device: r.device,
		tex:    tex,
		view:   view,
		w:      size.Width,
		h:      size.Height,
		format: r.format,
		handle: nextHandle(),
	}
	rendergraph.Logger().Debug("render: hal texture", "label", label, "handle", t.handle, "size", size.String())
	return t, nil
}

// InputFrame returns the source frame set with SetFrame.
func (r *HALRenderer) InputFrame() rendergraph.Texture {
	if r.input == nil {
		return nil
	}
	return r.input
}

// InputSize returns the size of the source frame.
func (r *HALRenderer) InputSize() rendergraph.Size {
	if r.input == nil {
		return rendergraph.Size{}
	}
	return rendergraph.Sz(r.input.w, r.input.h)
}

// OutputTarget returns the final output set with SetFrame.
func (r *HALRenderer) OutputTarget() rendergraph.Texture {
	if r.output == nil {
		return nil
	}
	return r.output
}

// OutputSize returns the size of the final output.
func (r *HALRenderer) OutputSize() rendergraph.Size {
	if r.output == nil {
		return rendergraph.Size{}
	}
	return rendergraph.Sz(r.output.w, r.output.h)
}

// RenderPass records a pass of program, which must be a *HALProgram.
func (r *HALRenderer) RenderPass(target rendergraph.Texture, program rendergraph.ShaderProgram) error {
	p, ok := program.(*HALProgram)
	if !ok {
		return fmt.Errorf("%w: %T", ErrForeignProgram, program)
	}
	if p.module == nil {
		return fmt.Errorf("render: program %s destroyed", p.label)
	}
	dst, ok := target.(*HALTexture)
	if !ok || dst == nil || dst.Destroyed() {
		return fmt.Errorf("%w: pass %s target %T", ErrForeignTexture, p.label, target)
	}

	inputs := make([]BoundTexture, len(p.bindings))
	for i, b := range p.bindings {
		t, ok := b.Texture.(*HALTexture)
		if !ok || t == nil {
			return fmt.Errorf("%w: slot %d of %s", ErrBindingGap, i, p.label)
		}
		inputs[i] = BoundTexture{Texture: t, Linear: b.Linear}
	}

	r.passes = append(r.passes, Pass{
		Target:  dst,
		Program: p,
		Module:  p.module,
		Inputs:  inputs,
		Named:   maps.Clone(p.consts.Named),
		Indexed: maps.Clone(p.consts.Indexed),
	})
	return nil
}

// TakePasses returns the passes recorded since the last call.
func (r *HALRenderer) TakePasses() []Pass {
	p := r.passes
	r.passes = nil
	return p
}

// Capabilities returns the HAL renderer's capabilities.
func (r *HALRenderer) Capabilities() Capabilities {
	return Capabilities{
		IsGPU:          true,
		Format:         r.format,
		MaxTextureSize: r.limit,
	}
}

var _ CapableRenderer = (*HALRenderer)(nil)
