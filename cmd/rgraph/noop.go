//go:build !nogpu

package main

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/rendergraph"
	"github.com/gogpu/rendergraph/chain"
	"github.com/gogpu/rendergraph/render"
	"github.com/gogpu/rendergraph/shader"
)

// runNoop builds the chains from the built-in WGSL programs on a no-op HAL
// device and reports the recorded passes.
func runNoop(o options, log *slog.Logger, files []*chain.File, env chain.Env) error {
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	defer instance.Destroy()
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return fmt.Errorf("%w: no adapters", render.ErrNoHALDevice)
	}
	dev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	defer dev.Device.Destroy()

	r, err := render.NewHALRenderer(dev.Device, dev.Queue, gputypes.TextureFormatUndefined)
	if err != nil {
		return err
	}

	compiler := shader.NewCompiler(shader.DefaultCapacity)
	var (
		programs []*render.HALProgram
		progErr  error
	)
	defer func() {
		for _, p := range programs {
			p.Destroy()
		}
	}()
	reg := make(chain.Registry)
	for name := range render.Kernels() {
		wgsl, ok := render.BuiltinWGSL(name)
		if !ok {
			continue
		}
		reg[name] = func() rendergraph.ShaderProgram {
			p, err := render.NewHALProgram(dev.Device, name, wgsl, compiler)
			if err != nil {
				if progErr == nil {
					progErr = err
				}
				return nopProgram{}
			}
			programs = append(programs, p)
			return p
		}
	}

	root, err := chain.BuildAll(files, reg, env)
	if err != nil {
		return err
	}
	if progErr != nil {
		return progErr
	}

	in, err := r.NewHostTexture(env.Input, "decoded_frame")
	if err != nil {
		return err
	}
	defer in.Destroy()
	out, err := r.NewHostTexture(env.Output, "present")
	if err != nil {
		return err
	}
	defer out.Destroy()
	r.SetFrame(in, out)

	g, err := rendergraph.NewGraph(root, r, rendergraph.WithLogger(log), rendergraph.WithName(graphName(files)))
	if err != nil {
		return err
	}
	defer g.Close()

	passes := 0
	for range o.frames {
		if _, err := g.RenderFrame(); err != nil {
			return err
		}
		for _, p := range r.TakePasses() {
			log.Debug("pass", "program", p.Program.Label(), "target", p.Target.Handle(), "inputs", len(p.Inputs))
			passes++
		}
	}

	cs := compiler.Stats()
	log.Info("shader cache", "entries", cs.Entries, "hits", cs.Hits, "misses", cs.Misses)
	report(g.Stats(), passes)
	return nil
}

// nopProgram stands in for a program that failed to compile so Build can
// finish and report the first error.
type nopProgram struct{}

func (nopProgram) BindTexture(int, rendergraph.Texture, bool)   {}
func (nopProgram) SetNamedConstant(string, rendergraph.Vector4) {}
func (nopProgram) SetIndexedConstant(int, rendergraph.Vector4)  {}
