// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"image"
	"image/color"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/rendergraph"
)

// handles numbers every texture created by this package.
var handles atomic.Uint64

func nextHandle() uint64 { return handles.Add(1) }

// PixmapTexture is a CPU-backed texture using *image.RGBA.
//
// It is the texture type of SoftwareRenderer and can also wrap host
// frames. Destroy drops the pixel buffer; a destroyed texture keeps its
// size and handle so it still identifies the slot it occupied.
type PixmapTexture struct {
	img       *image.RGBA
	w, h      int
	handle    uint64
	destroyed bool
}

// NewPixmapTexture creates a cleared RGBA texture.
func NewPixmapTexture(width, height int) *PixmapTexture {
	return NewPixmapTextureFromImage(image.NewRGBA(image.Rect(0, 0, width, height)))
}

// NewPixmapTextureFromImage wraps img without copying. The image origin
// must be (0, 0).
func NewPixmapTextureFromImage(img *image.RGBA) *PixmapTexture {
	b := img.Bounds()
	return &PixmapTexture{
		img:    img,
		w:      b.Dx(),
		h:      b.Dy(),
		handle: nextHandle(),
	}
}

// Width returns the texture width in pixels.
func (t *PixmapTexture) Width() int { return t.w }

// Height returns the texture height in pixels.
func (t *PixmapTexture) Height() int { return t.h }

// Format returns RGBA8Unorm.
func (t *PixmapTexture) Format() gputypes.TextureFormat {
	return gputypes.TextureFormatRGBA8Unorm
}

// Handle returns the package-unique texture handle.
func (t *PixmapTexture) Handle() uint64 { return t.handle }

// Destroy releases the pixel buffer. Safe to call more than once.
func (t *PixmapTexture) Destroy() {
	t.destroyed = true
	t.img = nil
}

// Destroyed reports whether Destroy has been called.
func (t *PixmapTexture) Destroyed() bool { return t.destroyed }

// Image returns the underlying image, nil after Destroy. The image
// shares memory with the texture.
func (t *PixmapTexture) Image() *image.RGBA { return t.img }

// Size returns the texture extent.
func (t *PixmapTexture) Size() rendergraph.Size { return rendergraph.Sz(t.w, t.h) }

// Clear fills the texture with c.
func (t *PixmapTexture) Clear(c color.Color) {
	if t.img == nil {
		return
	}
	rgba := color.RGBAModel.Convert(c).(color.RGBA)
	pix := t.img.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = rgba.R, rgba.G, rgba.B, rgba.A
	}
}

var _ rendergraph.Texture = (*PixmapTexture)(nil)
