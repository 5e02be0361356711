package render

import (
	"image"
	"math"
)

// ColorMatrix is a 4x5 color transform in row-major order:
//
//	[R']   [a00 a01 a02 a03 a04]   [R]
//	[G'] = [a10 a11 a12 a13 a14] * [G]
//	[B']   [a20 a21 a22 a23 a24]   [B]
//	[A']   [a30 a31 a32 a33 a34]   [A]
//	                               [1]
//
// The fifth column is a bias. Channels are straight-alpha values in
// [0, 255] during the transform.
type ColorMatrix [20]float32

// IdentityMatrix passes colors through unchanged.
func IdentityMatrix() ColorMatrix {
	return ColorMatrix{
		1, 0, 0, 0, 0,
		0, 1, 0, 0, 0,
		0, 0, 1, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// InvertMatrix inverts the color channels and keeps alpha.
func InvertMatrix() ColorMatrix {
	return ColorMatrix{
		-1, 0, 0, 0, 255,
		0, -1, 0, 0, 255,
		0, 0, -1, 0, 255,
		0, 0, 0, 1, 0,
	}
}

// BrightnessMatrix scales the color channels.
// 0 is black, 1 unchanged, 2 twice as bright.
func BrightnessMatrix(factor float32) ColorMatrix {
	return ColorMatrix{
		factor, 0, 0, 0, 0,
		0, factor, 0, 0, 0,
		0, 0, factor, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// ContrastMatrix scales the color channels around mid grey.
// 0 is flat grey, 1 unchanged.
func ContrastMatrix(factor float32) ColorMatrix {
	offset := 128 * (1 - factor)
	return ColorMatrix{
		factor, 0, 0, 0, offset,
		0, factor, 0, 0, offset,
		0, 0, factor, 0, offset,
		0, 0, 0, 1, 0,
	}
}

// SaturationMatrix blends between Rec. 709 luminance (0) and the
// original color (1).
func SaturationMatrix(factor float32) ColorMatrix {
	const (
		lumR = 0.2126
		lumG = 0.7152
		lumB = 0.0722
	)
	inv := 1 - factor
	return ColorMatrix{
		lumR*inv + factor, lumG * inv, lumB * inv, 0, 0,
		lumR * inv, lumG*inv + factor, lumB * inv, 0, 0,
		lumR * inv, lumG * inv, lumB*inv + factor, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// SepiaMatrix applies a sepia tone.
func SepiaMatrix() ColorMatrix {
	return ColorMatrix{
		0.393, 0.769, 0.189, 0, 0,
		0.349, 0.686, 0.168, 0, 0,
		0.272, 0.534, 0.131, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// HueRotateMatrix rotates hue by degrees.
func HueRotateMatrix(degrees float32) ColorMatrix {
	const (
		lumR = 0.213
		lumG = 0.715
		lumB = 0.072
	)
	rad := float64(degrees) * math.Pi / 180
	cos, sin := float32(math.Cos(rad)), float32(math.Sin(rad))
	return ColorMatrix{
		lumR + cos*(1-lumR) - sin*lumR, lumG - cos*lumG - sin*lumG, lumB - cos*lumB + sin*(1-lumB), 0, 0,
		lumR - cos*lumR + sin*0.143, lumG + cos*(1-lumG) + sin*0.140, lumB - cos*lumB - sin*0.283, 0, 0,
		lumR - cos*lumR - sin*(1-lumR), lumG - cos*lumG + sin*lumG, lumB + cos*(1-lumB) + sin*lumB, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// Multiply returns the transform applying m first, then other.
func (m ColorMatrix) Multiply(other ColorMatrix) ColorMatrix {
	var r ColorMatrix
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += other[row*5+k] * m[k*5+col]
			}
			r[row*5+col] = sum
		}
		r[row*5+4] = other[row*5]*m[4] + other[row*5+1]*m[9] +
			other[row*5+2]*m[14] + other[row*5+3]*m[19] + other[row*5+4]
	}
	return r
}

// Apply transforms src into dst over the bounds of dst. Pixels are
// un-premultiplied before the transform and premultiplied after it.
func (m *ColorMatrix) Apply(dst, src *image.RGBA) {
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			si := y*src.Stride + x*4
			di := y*dst.Stride + x*4

			a := float32(src.Pix[si+3])
			var r, g, b float32
			if a > 0 {
				r = float32(src.Pix[si]) * 255 / a
				g = float32(src.Pix[si+1]) * 255 / a
				b = float32(src.Pix[si+2]) * 255 / a
			}

			nr := m[0]*r + m[1]*g + m[2]*b + m[3]*a + m[4]
			ng := m[5]*r + m[6]*g + m[7]*b + m[8]*a + m[9]
			nb := m[10]*r + m[11]*g + m[12]*b + m[13]*a + m[14]
			na := m[15]*r + m[16]*g + m[17]*b + m[18]*a + m[19]

			if na > 0 {
				f := min(na, 255) / 255
				nr, ng, nb = nr*f, ng*f, nb*f
			} else {
				nr, ng, nb = 0, 0, 0
			}
			dst.Pix[di] = toByte(nr)
			dst.Pix[di+1] = toByte(ng)
			dst.Pix[di+2] = toByte(nb)
			dst.Pix[di+3] = toByte(na)
		}
	}
}

// MatrixKernel returns a kernel applying a fixed matrix to input 0.
func MatrixKernel(m ColorMatrix) Kernel {
	return func(dst *image.RGBA, src []*image.RGBA, _ *Constants) {
		if len(src) == 0 {
			return
		}
		m.Apply(dst, src[0])
	}
}

// argMatrixKernel returns a kernel whose matrix depends on argument 0.
func argMatrixKernel(build func(float32) ColorMatrix) Kernel {
	return func(dst *image.RGBA, src []*image.RGBA, c *Constants) {
		if len(src) == 0 {
			return
		}
		m := build(c.Arg(0))
		m.Apply(dst, src[0])
	}
}
