// Package rendergraph builds and runs directed acyclic graphs of image
// filters that turn a video frame into an output frame through a chain of
// GPU passes.
//
// # Overview
//
// Each [Filter] produces one texture consumed by zero or more downstream
// filters. A graph is composed once, numbered once, and then evaluated
// every displayed frame:
//
//	src := rendergraph.NewSource()
//	up, _ := rendergraph.NewShaderFilter(rendergraph.ShaderConfig{
//	    Program:   upscale,
//	    Transform: rendergraph.Scale(2, 2),
//	}, src)
//	sharp, _ := rendergraph.NewShaderFilter(rendergraph.ShaderConfig{
//	    Program: sharpen,
//	}, up, src)
//
//	g, err := rendergraph.NewGraph(sharp, renderer)
//	...
//	out, err := g.RenderFrame()
//
// # Composition
//
// [Filter.Append] splices an independently built graph onto the consuming
// end of another one. The appended graph is deep-copied and its [KindSource]
// leaves are replaced, so one template can be spliced into many chains.
//
// # Scheduling
//
// [Filter.Initialize] assigns every node a schedule index greater than
// the indices of its inputs, and a last dependent index bounding the live
// range of its output texture. [Filter.Render] evaluates each node at most
// once per frame, inputs first; [Filter.NewFrame] clears the memoization.
//
// # Texture lifetimes
//
// [Filter.AllocateTextures] runs bottom-up every frame. A node whose
// texture already has the required size keeps it. Otherwise it borrows
// the texture of the first node of its own input subgraph, in depth-first
// post-order, whose live range ended before it runs, or asks the
// [Renderer] for a new render target. The allocator is
// a linear-scan register allocator over GPU memory, using schedule
// indices as coordinates.
//
// # Collaborators
//
// The device, the frame source and the shader backend are reached only
// through [Renderer], [Texture] and [ShaderProgram]. Package render
// provides a CPU reference renderer and a wgpu/hal backed one.
//
// # Thread Safety
//
// Graph traversals are synchronous and single-threaded. Drive a graph
// from one goroutine.
package rendergraph
