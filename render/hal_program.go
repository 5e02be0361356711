//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rendergraph"
)

// Embedded WGSL filter programs. Each fragment stage is paired with the
// shared fullscreen vertex stage.

//go:embed shaders/fullscreen.wgsl
var fullscreenWGSL string

//go:embed shaders/copy.wgsl
var copyWGSL string

//go:embed shaders/invert.wgsl
var invertWGSL string

//go:embed shaders/mix.wgsl
var mixWGSL string

//go:embed shaders/sharpen.wgsl
var sharpenWGSL string

// BuiltinWGSL returns the complete WGSL module of a built-in program,
// named as in Kernels.
func BuiltinWGSL(name string) (string, bool) {
	var frag string
	switch name {
	case "copy":
		frag = copyWGSL
	case "invert":
		frag = invertWGSL
	case "mix":
		frag = mixWGSL
	case "sharpen":
		frag = sharpenWGSL
	default:
		return "", false
	}
	return fullscreenWGSL + "\n" + frag, true
}

// SPIRVCompiler compiles WGSL to SPIR-V words. *shader.Compiler
// implements it.
type SPIRVCompiler interface {
	Compile(src string) ([]uint32, error)
}

// HALProgram is a ShaderProgram backed by a HAL shader module. Bindings
// and constants are captured into each recorded Pass.
type HALProgram struct {
	device   hal.Device
	label    string
	module   hal.ShaderModule
	bindings []Binding
	consts   Constants
}

// NewHALProgram compiles wgsl and creates a shader module on device.
func NewHALProgram(device hal.Device, label, wgsl string, c SPIRVCompiler) (*HALProgram, error) {
	if device == nil {
		return nil, ErrNoHALDevice
	}
	if c == nil {
		return nil, fmt.Errorf("render: program %s: nil compiler", label)
	}
	words, err := c.Compile(wgsl)
	if err != nil {
		return nil, fmt.Errorf("render: program %s: %w", label, err)
	}
	module, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: words},
	})
	if err != nil {
		return nil, fmt.Errorf("render: program %s: create shader module: %w", label, err)
	}
	return &HALProgram{
		device: device,
		label:  label,
		module: module,
		consts: Constants{
			Named:   make(map[string]rendergraph.Vector4),
			Indexed: make(map[int]rendergraph.Vector4),
		},
	}, nil
}

// Label returns the program label.
func (p *HALProgram) Label() string { return p.label }

// Module returns the shader module, nil after Destroy.
func (p *HALProgram) Module() hal.ShaderModule { return p.module }

// BindTexture binds t at slot.
func (p *HALProgram) BindTexture(slot int, t rendergraph.Texture, linear bool) {
	if slot < 0 {
		return
	}
	for len(p.bindings) <= slot {
		p.bindings = append(p.bindings, Binding{})
	}
	p.bindings[slot] = Binding{Texture: t, Linear: linear}
}

// SetNamedConstant sets a named constant.
func (p *HALProgram) SetNamedConstant(name string, v rendergraph.Vector4) {
	p.consts.Named[name] = v
}

// SetIndexedConstant sets a constant register.
func (p *HALProgram) SetIndexedConstant(index int, v rendergraph.Vector4) {
	p.consts.Indexed[index] = v
}

// Destroy releases the shader module. Safe to call more than once.
func (p *HALProgram) Destroy() {
	if p.module != nil {
		p.device.DestroyShaderModule(p.module)
		p.module = nil
	}
}

var _ rendergraph.ShaderProgram = (*HALProgram)(nil)
