// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"
	"image"
	"maps"

	"github.com/gogpu/rendergraph"
)

// Kernel computes one software render pass. src holds the bound inputs,
// already resampled to the size of dst.
type Kernel func(dst *image.RGBA, src []*image.RGBA, c *Constants)

// Constants is a snapshot of the constants set on a program.
type Constants struct {
	Named   map[string]rendergraph.Vector4
	Indexed map[int]rendergraph.Vector4
}

// Arg returns user argument i, read from the packed args<k> vectors.
// Missing arguments are zero.
func (c *Constants) Arg(i int) float32 {
	if i < 0 {
		return 0
	}
	return c.Named[fmt.Sprintf("args%d", i/4)][i%4]
}

func (c *Constants) clone() Constants {
	return Constants{Named: maps.Clone(c.Named), Indexed: maps.Clone(c.Indexed)}
}

// Binding is a texture bound to a program slot.
type Binding struct {
	Texture rendergraph.Texture
	Linear  bool
}

// Program is a software ShaderProgram running a Kernel.
//
// Bindings and constants persist until overwritten, like GPU program
// state. A Program is not safe for concurrent use.
type Program struct {
	name     string
	kernel   Kernel
	bindings []Binding
	consts   Constants
}

// NewProgram returns a program running k.
func NewProgram(name string, k Kernel) *Program {
	return &Program{
		name:   name,
		kernel: k,
		consts: Constants{
			Named:   make(map[string]rendergraph.Vector4),
			Indexed: make(map[int]rendergraph.Vector4),
		},
	}
}

// Name returns the program name.
func (p *Program) Name() string { return p.name }

// BindTexture binds t at slot.
func (p *Program) BindTexture(slot int, t rendergraph.Texture, linear bool) {
	if slot < 0 {
		return
	}
	for len(p.bindings) <= slot {
		p.bindings = append(p.bindings, Binding{})
	}
	p.bindings[slot] = Binding{Texture: t, Linear: linear}
}

// SetNamedConstant sets a named constant.
func (p *Program) SetNamedConstant(name string, v rendergraph.Vector4) {
	p.consts.Named[name] = v
}

// SetIndexedConstant sets a constant register.
func (p *Program) SetIndexedConstant(index int, v rendergraph.Vector4) {
	p.consts.Indexed[index] = v
}

// Bindings returns a copy of the bound textures in slot order.
func (p *Program) Bindings() []Binding {
	return append([]Binding(nil), p.bindings...)
}

// Constants returns a snapshot of the current constants.
func (p *Program) Constants() Constants { return p.consts.clone() }

var _ rendergraph.ShaderProgram = (*Program)(nil)
