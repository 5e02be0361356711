// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render provides rendergraph.Renderer implementations.
//
// # Key Principle
//
// The renderer RECEIVES its device and frames from the host application,
// it does NOT create a device. A video player hands over the decoded
// frame and the presentation target; the filter graph only allocates
// intermediate render targets through the renderer.
//
// # Renderers
//
//   - SoftwareRenderer: CPU passes over *image.RGBA, driven by Kernel
//     functions wrapped in a Program. Used for tests, tooling and
//     headless processing.
//   - HALRenderer: render targets and shader modules on a gogpu/wgpu HAL
//     device. Passes are recorded with their bindings and constants and
//     handed to the host encoder via TakePasses. Not built with the
//     nogpu tag.
//
// # Programs
//
// Both renderers accept only their own ShaderProgram type: *Program for
// SoftwareRenderer, *HALProgram for HALRenderer. The programs "copy",
// "invert", "mix" and "sharpen" are built in for both, see Kernels and
// BuiltinWGSL. The software renderer also has a separable Gaussian
// "blur" and color matrix programs ("grayscale", "sepia", "brightness",
// "contrast", "saturate", "hue"); any ColorMatrix becomes a kernel
// through MatrixKernel.
//
// # Usage
//
// Software rendering:
//
//	r := render.NewSoftwareRenderer(frame, rendergraph.Sz(1280, 720))
//	prog := render.NewProgram("sharpen", render.SharpenKernel)
//	f, _ := rendergraph.NewShaderFilter(rendergraph.ShaderConfig{
//	    Program:   prog,
//	    Arguments: []float32{0.6},
//	}, rendergraph.NewSource())
//	g, _ := rendergraph.NewGraph(f, r)
//	defer g.Close()
//	out, _ := g.RenderFrame()
//
// GPU rendering with a gpucontext host:
//
//	r, err := render.NewHALRendererFromProvider(provider)
//	in, _ := r.NewHostTexture(videoSize, "decoded_frame")
//	out, _ := r.NewHostTexture(windowSize, "present")
//	r.SetFrame(in, out)
//	... g.RenderFrame() ...
//	for _, pass := range r.TakePasses() {
//	    // encode pass.Module with pass.Inputs into pass.Target
//	}
//
// # Thread Safety
//
// Renderers are NOT thread-safe. Drive a renderer from the goroutine
// that drives its graph.
package render
