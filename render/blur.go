package render

import (
	"image"
	"math"

	"github.com/gogpu/rendergraph/internal/lru"
)

// maxBlurRadius bounds user supplied radii. A radius r needs a kernel of
// 2*ceil(3r)+1 taps.
const maxBlurRadius = 32

// gaussianKernels caches normalized kernels by radius in hundredths.
var gaussianKernels = lru.New[int, []float32](64)

// gaussianKernel returns a normalized 1D Gaussian with sigma radius,
// covering three standard deviations. Radii <= 0 yield the identity.
// The returned slice is shared and must not be modified.
func gaussianKernel(radius float64) []float32 {
	if radius <= 0 {
		return []float32{1}
	}
	radius = min(radius, maxBlurRadius)
	key := int(radius * 100)
	if k, ok := gaussianKernels.Get(key); ok {
		return k
	}

	half := int(math.Ceil(radius * 3))
	kernel := make([]float32, 2*half+1)
	twoSigmaSq := 2 * radius * radius
	var sum float64
	for i := range kernel {
		x := float64(i - half)
		v := math.Exp(-(x * x) / twoSigmaSq)
		kernel[i] = float32(v)
		sum += v
	}
	inv := float32(1 / sum)
	for i := range kernel {
		kernel[i] *= inv
	}
	gaussianKernels.Add(key, kernel)
	return kernel
}

// gaussianBlur convolves src with separable Gaussians of radii rx and ry
// over the bounds of a w x h image and returns the result as w*h*4
// floats. Edges are extended.
func gaussianBlur(src *image.RGBA, w, h int, rx, ry float64) []float32 {
	tmp := make([]float32, w*h*4)
	kx := gaussianKernel(rx)
	half := len(kx) / 2
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < w; x++ {
			var r, g, b, a float32
			for k, wt := range kx {
				sx := min(max(x+k-half, 0), w-1) * 4
				r += float32(row[sx]) * wt
				g += float32(row[sx+1]) * wt
				b += float32(row[sx+2]) * wt
				a += float32(row[sx+3]) * wt
			}
			i := (y*w + x) * 4
			tmp[i], tmp[i+1], tmp[i+2], tmp[i+3] = r, g, b, a
		}
	}

	out := make([]float32, w*h*4)
	ky := gaussianKernel(ry)
	half = len(ky) / 2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var r, g, b, a float32
			for k, wt := range ky {
				i := (min(max(y+k-half, 0), h-1)*w + x) * 4
				r += tmp[i] * wt
				g += tmp[i+1] * wt
				b += tmp[i+2] * wt
				a += tmp[i+3] * wt
			}
			i := (y*w + x) * 4
			out[i], out[i+1], out[i+2], out[i+3] = r, g, b, a
		}
	}
	return out
}

// blurRadii reads the blur radii from arguments 0 and 1. A zero second
// radius repeats the first.
func blurRadii(c *Constants, fallback float32) (rx, ry float64) {
	x, y := c.Arg(0), c.Arg(1)
	if x <= 0 {
		x = fallback
	}
	if y <= 0 {
		y = x
	}
	return float64(x), float64(y)
}

// BlurKernel applies a separable Gaussian blur to input 0. Argument 0 is
// the horizontal radius in pixels, argument 1 the vertical one (default:
// same as horizontal).
func BlurKernel(dst *image.RGBA, src []*image.RGBA, c *Constants) {
	if len(src) == 0 {
		return
	}
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	rx, ry := blurRadii(c, 0)
	if rx <= 0 && ry <= 0 {
		copyRows(dst, src[0])
		return
	}
	blurred := gaussianBlur(src[0], w, h, rx, ry)
	for y := 0; y < h; y++ {
		row := dst.Pix[y*dst.Stride:]
		for x := 0; x < w*4; x++ {
			row[x] = toByte(blurred[y*w*4+x])
		}
	}
}
