// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/rendergraph"
)

// DeviceHandle provides GPU device access from the host application.
//
// The host (a video player, gogpu.App, ...) owns the device and passes it
// in; this package never creates one. DeviceHandle is an alias for
// gpucontext.DeviceProvider so any gpucontext host can be used directly.
type DeviceHandle = gpucontext.DeviceProvider

// Capabilities describes what a renderer supports.
type Capabilities struct {
	// IsGPU indicates a device-backed renderer.
	IsGPU bool

	// Format is the format of render targets.
	Format gputypes.TextureFormat

	// MaxTargets is the live render target limit (0 = unlimited).
	MaxTargets int

	// MaxTextureSize is the maximum texture dimension (0 = unlimited).
	MaxTextureSize int
}

// CapableRenderer is a rendergraph.Renderer that reports its
// capabilities.
type CapableRenderer interface {
	rendergraph.Renderer

	// Capabilities returns the renderer's capabilities.
	Capabilities() Capabilities
}

// Capabilities returns the software renderer's capabilities.
func (r *SoftwareRenderer) Capabilities() Capabilities {
	return Capabilities{
		Format:     gputypes.TextureFormatRGBA8Unorm,
		MaxTargets: r.opts.maxTargets,
	}
}

var _ CapableRenderer = (*SoftwareRenderer)(nil)
