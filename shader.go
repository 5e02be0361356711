// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rendergraph

import (
	"fmt"
	"slices"
	"time"
)

// ShaderConfig configures a shader-backed filter.
type ShaderConfig struct {
	// Name labels the filter in logs. Optional.
	Name string

	// Program receives bindings and constants for each pass. Required.
	Program ShaderProgram

	// Transform maps the size of input SizeIndex to the output size.
	// If nil, the output has the same size as that input.
	Transform SizeTransform

	// SizeIndex selects the input whose size feeds Transform.
	SizeIndex int

	// LinearSampling selects bilinear instead of point sampling for
	// every bound input.
	LinearSampling bool

	// Arguments are user constants, packed four per vector into the
	// named constants args0, args1, ...
	Arguments []float32
}

// Indexed constant registers written before every shader pass.
const (
	// ConstantFrame holds (width, height, counter, timestamp) of the output.
	ConstantFrame = 0

	// ConstantInvSize holds (1/width, 1/height, 0, 0) of the output.
	ConstantInvSize = 1
)

// epoch anchors shader timestamps.
var epoch = time.Now()

// timestamp returns seconds since process start. Replaced in tests.
var timestamp = func() float32 {
	return float32(time.Since(epoch).Seconds())
}

// NewShaderFilter creates a filter that binds its inputs to cfg.Program and
// issues one render pass per frame.
func NewShaderFilter(cfg ShaderConfig, inputs ...*Filter) (*Filter, error) {
	if cfg.Program == nil {
		return nil, ErrNilProgram
	}
	cfg.Arguments = slices.Clone(cfg.Arguments)
	return NewFilter(&shaderStage{cfg: cfg}, inputs...)
}

// shaderStage is the Stage of a shader-backed filter.
type shaderStage struct {
	cfg     ShaderConfig
	counter uint32
}

func (s *shaderStage) Name() string {
	if s.cfg.Name != "" {
		return s.cfg.Name
	}
	return "shader"
}

func (s *shaderStage) ValidateInputs(n int) error {
	if s.cfg.SizeIndex < 0 || s.cfg.SizeIndex >= n {
		return fmt.Errorf("%w: index %d with %d inputs", ErrSizeSource, s.cfg.SizeIndex, n)
	}
	return nil
}

func (s *shaderStage) OutputSize(inputs []Size) Size {
	src := inputs[s.cfg.SizeIndex]
	if s.cfg.Transform == nil {
		return src
	}
	return s.cfg.Transform(src)
}

func (s *shaderStage) Render(r Renderer, target Texture, inputs []Texture) error {
	p := s.cfg.Program
	for i, t := range inputs {
		p.BindTexture(i, t, s.cfg.LinearSampling)
		p.SetNamedConstant(fmt.Sprintf("size%d", i), sizeConstant(SizeOf(t)))
	}

	out := SizeOf(target)
	inv := sizeConstant(out)
	p.SetIndexedConstant(ConstantFrame, Vector4{
		float32(out.Width), float32(out.Height), float32(s.counter), timestamp(),
	})
	s.counter++
	p.SetIndexedConstant(ConstantInvSize, Vector4{inv[2], inv[3], 0, 0})

	for k := 0; k*4 < len(s.cfg.Arguments); k++ {
		var v Vector4
		copy(v[:], s.cfg.Arguments[k*4:])
		p.SetNamedConstant(fmt.Sprintf("args%d", k), v)
	}
	return r.RenderPass(target, p)
}

func (s *shaderStage) Clone() Stage {
	return &shaderStage{
		cfg: ShaderConfig{
			Name:           s.cfg.Name,
			Program:        s.cfg.Program,
			Transform:      s.cfg.Transform,
			SizeIndex:      s.cfg.SizeIndex,
			LinearSampling: s.cfg.LinearSampling,
			Arguments:      slices.Clone(s.cfg.Arguments),
		},
	}
}

// sizeConstant packs (w, h, 1/w, 1/h). Empty dimensions yield zero
// reciprocals.
func sizeConstant(s Size) Vector4 {
	v := Vector4{float32(s.Width), float32(s.Height)}
	if s.Width > 0 {
		v[2] = 1 / float32(s.Width)
	}
	if s.Height > 0 {
		v[3] = 1 / float32(s.Height)
	}
	return v
}

// ShaderPasses returns how many passes a shader-backed filter has issued
// since it was created or cloned. ok is false for other filters.
func ShaderPasses(f *Filter) (n uint32, ok bool) {
	s, ok := f.stage.(*shaderStage)
	if !ok {
		return 0, false
	}
	return s.counter, true
}
