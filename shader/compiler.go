// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package shader compiles WGSL filter programs to SPIR-V and caches the
// result by source text, so filters cloned from one template compile once.
package shader

import (
	"errors"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/rendergraph/internal/lru"
)

// DefaultCapacity is the cache size used when NewCompiler gets zero.
const DefaultCapacity = 64

// ErrEmptySource is returned for an empty WGSL program.
var ErrEmptySource = errors.New("shader: empty source")

// Compiler turns WGSL into SPIR-V words. It is safe for concurrent use.
type Compiler struct {
	cache   *lru.Cache[string, []uint32]
	compile func(string) ([]byte, error)
}

// Stats reports cache effectiveness.
type Stats struct {
	Hits    uint64
	Misses  uint64
	Entries int
}

// NewCompiler returns a compiler caching up to capacity programs.
func NewCompiler(capacity int) *Compiler {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Compiler{
		cache:   lru.New[string, []uint32](capacity),
		compile: naga.Compile,
	}
}

// Compile returns the SPIR-V words for src. Failed compilations are not
// cached. The returned slice is shared and must not be modified.
func (c *Compiler) Compile(src string) ([]uint32, error) {
	if src == "" {
		return nil, ErrEmptySource
	}
	if words, ok := c.cache.Get(src); ok {
		return words, nil
	}

	spirv, err := c.compile(src)
	if err != nil {
		return nil, fmt.Errorf("shader: compile: %w", err)
	}
	if len(spirv)%4 != 0 {
		return nil, fmt.Errorf("shader: SPIR-V length %d is not a multiple of 4", len(spirv))
	}
	words := Words(spirv)
	c.cache.Add(src, words)
	return words, nil
}

// Stats returns cache counters.
func (c *Compiler) Stats() Stats {
	st := c.cache.Stats()
	return Stats{Hits: st.Hits, Misses: st.Misses, Entries: st.Len}
}

// Words converts little-endian SPIR-V bytes to 32-bit words. Trailing
// bytes that do not form a full word are dropped.
func Words(spirv []byte) []uint32 {
	words := make([]uint32, len(spirv)/4)
	for i := range words {
		words[i] = uint32(spirv[i*4]) |
			uint32(spirv[i*4+1])<<8 |
			uint32(spirv[i*4+2])<<16 |
			uint32(spirv[i*4+3])<<24
	}
	return words
}
