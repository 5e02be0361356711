// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"image"
	"math"
)

// Kernels returns the built-in software kernels by program name.
func Kernels() map[string]Kernel {
	return map[string]Kernel{
		"copy":       CopyKernel,
		"invert":     InvertKernel,
		"mix":        MixKernel,
		"sharpen":    SharpenKernel,
		"blur":       BlurKernel,
		"grayscale":  MatrixKernel(SaturationMatrix(0)),
		"sepia":      MatrixKernel(SepiaMatrix()),
		"brightness": argMatrixKernel(BrightnessMatrix),
		"contrast":   argMatrixKernel(ContrastMatrix),
		"saturate":   argMatrixKernel(SaturationMatrix),
		"hue":        argMatrixKernel(HueRotateMatrix),
	}
}

// CopyKernel copies input 0.
func CopyKernel(dst *image.RGBA, src []*image.RGBA, _ *Constants) {
	if len(src) == 0 {
		return
	}
	copyRows(dst, src[0])
}

// InvertKernel inverts the color channels of input 0 and keeps alpha.
func InvertKernel(dst *image.RGBA, src []*image.RGBA, _ *Constants) {
	if len(src) == 0 {
		return
	}
	m := InvertMatrix()
	m.Apply(dst, src[0])
}

// MixKernel blends input 0 towards input 1 by argument 0, clamped to
// [0, 1]. With a single input it copies.
func MixKernel(dst *image.RGBA, src []*image.RGBA, c *Constants) {
	switch len(src) {
	case 0:
		return
	case 1:
		copyRows(dst, src[0])
		return
	}
	t := clamp01(c.Arg(0))
	a, b := src[0], src[1]
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	for y := 0; y < h; y++ {
		da := dst.Pix[y*dst.Stride : y*dst.Stride+w*4]
		pa := a.Pix[y*a.Stride : y*a.Stride+w*4]
		pb := b.Pix[y*b.Stride : y*b.Stride+w*4]
		for i := range da {
			da[i] = toByte(float32(pa[i]) + (float32(pb[i])-float32(pa[i]))*t)
		}
	}
}

// SharpenKernel applies an unsharp mask to input 0: argument 0 is the
// strength, argument 1 the Gaussian radius (default 1). Alpha is kept.
func SharpenKernel(dst *image.RGBA, src []*image.RGBA, c *Constants) {
	if len(src) == 0 {
		return
	}
	s := src[0]
	k := c.Arg(0)
	radius := float64(c.Arg(1))
	if radius <= 0 {
		radius = 1
	}
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	blurred := gaussianBlur(s, w, h, radius, radius)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			o := y*dst.Stride + x*4
			si := y*s.Stride + x*4
			bi := (y*w + x) * 4
			for ch := 0; ch < 3; ch++ {
				center := float32(s.Pix[si+ch])
				dst.Pix[o+ch] = toByte(center + (center-blurred[bi+ch])*k)
			}
			dst.Pix[o+3] = s.Pix[si+3]
		}
	}
}

func copyRows(dst, src *image.RGBA) {
	n := dst.Rect.Dx() * 4
	for y := 0; y < dst.Rect.Dy(); y++ {
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+n], src.Pix[y*src.Stride:y*src.Stride+n])
	}
}

func clamp01(v float32) float32 {
	return min(max(v, 0), 1)
}

func toByte(v float32) uint8 {
	return uint8(min(max(math.Round(float64(v)), 0), 255))
}
