// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rendergraph

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// Size is a texture extent in pixels.
type Size struct {
	Width  int
	Height int
}

// Sz is shorthand for Size{Width: w, Height: h}.
func Sz(w, h int) Size {
	return Size{Width: w, Height: h}
}

// Empty reports whether either dimension is not positive.
func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// String returns "WxH".
func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// SizeOf returns the extent of t, or the zero Size for a nil texture.
func SizeOf(t Texture) Size {
	if t == nil {
		return Size{}
	}
	return Size{Width: t.Width(), Height: t.Height()}
}

// SizeTransform maps the size of a filter's size source to its output size.
type SizeTransform func(Size) Size

// Scale returns a SizeTransform multiplying both dimensions.
func Scale(sx, sy int) SizeTransform {
	return func(s Size) Size {
		return Size{Width: s.Width * sx, Height: s.Height * sy}
	}
}

// Fixed returns a SizeTransform that ignores its argument.
func Fixed(size Size) SizeTransform {
	return func(Size) Size { return size }
}

// Vector4 is a shader constant register.
type Vector4 [4]float32

// Texture is a GPU texture handed out by a Renderer.
//
// A texture has exactly one owner. Filters that borrow a texture never
// call Destroy on it.
type Texture interface {
	// Width returns the texture width in pixels.
	Width() int

	// Height returns the texture height in pixels.
	Height() int

	// Format returns the pixel format.
	Format() gputypes.TextureFormat

	// Handle returns the backend handle. Unique among live textures.
	Handle() uint64

	// Destroy releases the backend resource. Must be idempotent.
	Destroy()
}

// ShaderProgram receives bindings and constants before a render pass.
// Bindings persist until overwritten; a program is shared by every
// filter that was cloned from the same template.
type ShaderProgram interface {
	// BindTexture binds t at slot with linear or point sampling.
	BindTexture(slot int, t Texture, linear bool)

	// SetNamedConstant sets a named vector constant.
	SetNamedConstant(name string, v Vector4)

	// SetIndexedConstant sets a vector constant register.
	SetIndexedConstant(index int, v Vector4)
}

// Renderer is the device-side collaborator of a filter graph.
//
// The graph never creates a device. Frames are delivered and render
// passes are issued through this interface.
//
// Thread Safety: a Renderer is used from the goroutine driving the graph.
type Renderer interface {
	// CreateRenderTarget allocates a texture the caller will own.
	// Failures are returned to the graph's caller unmodified.
	CreateRenderTarget(size Size) (Texture, error)

	// InputFrame returns the texture holding the current source frame.
	InputFrame() Texture

	// InputSize returns the size of the current source frame.
	InputSize() Size

	// OutputTarget returns the player's final output texture.
	OutputTarget() Texture

	// OutputSize returns the size of the final output.
	OutputSize() Size

	// RenderPass runs program once, writing into target.
	RenderPass(target Texture, program ShaderProgram) error
}
