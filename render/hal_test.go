//go:build !nogpu

package render

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/rendergraph"
)

// createNoopDevice creates a noop device and queue for testing.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue) {
	t.Helper()
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		openDev.Device.Destroy()
		instance.Destroy()
	})
	return openDev.Device, openDev.Queue
}

// stubCompiler returns a fixed SPIR-V module and counts calls.
type stubCompiler struct {
	calls int
	err   error
}

func (c *stubCompiler) Compile(string) ([]uint32, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return []uint32{0x07230203, 0x00010000}, nil
}

// fakeProvider is a gpucontext host exposing HAL types.
type fakeProvider struct {
	device hal.Device
	queue  hal.Queue
}

func (p *fakeProvider) Device() gpucontext.Device             { return nil }
func (p *fakeProvider) Queue() gpucontext.Queue               { return nil }
func (p *fakeProvider) Adapter() gpucontext.Adapter           { return nil }
func (p *fakeProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatBGRA8Unorm }
func (p *fakeProvider) AdapterInfo() gpucontext.AdapterInfo   { return gpucontext.AdapterInfo{} }
func (p *fakeProvider) HalDevice() any                        { return p.device }
func (p *fakeProvider) HalQueue() any                         { return p.queue }

func newHALRenderer(t *testing.T) *HALRenderer {
	t.Helper()
	device, queue := createNoopDevice(t)
	r, err := NewHALRenderer(device, queue, gputypes.TextureFormatUndefined)
	if err != nil {
		t.Fatalf("NewHALRenderer() error = %v", err)
	}
	return r
}

func TestNewHALRenderer(t *testing.T) {
	if _, err := NewHALRenderer(nil, nil, 0); !errors.Is(err, ErrNoHALDevice) {
		t.Errorf("NewHALRenderer(nil) error = %v, want ErrNoHALDevice", err)
	}

	r := newHALRenderer(t)
	caps := r.Capabilities()
	if !caps.IsGPU || caps.Format != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("Capabilities() = %+v", caps)
	}
	if r.InputFrame() != nil || r.OutputTarget() != nil {
		t.Error("frames should be nil before SetFrame")
	}
	if r.InputSize() != (rendergraph.Size{}) {
		t.Errorf("InputSize() = %v before SetFrame", r.InputSize())
	}
}

func TestHALRendererKeepsHostQueue(t *testing.T) {
	device, queue := createNoopDevice(t)
	r, err := NewHALRenderer(device, queue, gputypes.TextureFormatUndefined)
	if err != nil {
		t.Fatal(err)
	}
	if r.Queue() != queue || r.Device() != device {
		t.Error("renderer should hand back the host device and queue")
	}
	if passes := r.TakePasses(); len(passes) != 0 {
		t.Errorf("new renderer has %d recorded passes, want 0", len(passes))
	}
}

func TestNewHALRendererFromProvider(t *testing.T) {
	device, queue := createNoopDevice(t)

	r, err := NewHALRendererFromProvider(&fakeProvider{device: device, queue: queue})
	if err != nil {
		t.Fatalf("NewHALRendererFromProvider() error = %v", err)
	}
	if r.Device() != device || r.Queue() != queue {
		t.Error("provider device not used")
	}
	if r.Capabilities().Format != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("format = %v, want surface format", r.Capabilities().Format)
	}

	if _, err := NewHALRendererFromProvider(&fakeProvider{}); !errors.Is(err, ErrNoHALDevice) {
		t.Errorf("provider without device error = %v, want ErrNoHALDevice", err)
	}
}

func TestHALRenderTargets(t *testing.T) {
	r := newHALRenderer(t)

	tex, err := r.CreateRenderTarget(rendergraph.Sz(64, 32))
	if err != nil {
		t.Fatalf("CreateRenderTarget() error = %v", err)
	}
	ht := tex.(*HALTexture)
	if ht.Width() != 64 || ht.Height() != 32 || ht.Format() != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("texture = %dx%d %v", ht.Width(), ht.Height(), ht.Format())
	}
	if ht.Raw() == nil || ht.View() == nil {
		t.Fatal("texture or view missing")
	}

	ht.Destroy()
	ht.Destroy()
	if !ht.Destroyed() || ht.View() != nil {
		t.Error("Destroy did not release the texture")
	}

	if _, err := r.CreateRenderTarget(rendergraph.Sz(0, 1)); !errors.Is(err, ErrEmptySize) {
		t.Errorf("empty target error = %v, want ErrEmptySize", err)
	}
	if _, err := r.CreateRenderTarget(rendergraph.Sz(1<<20, 1)); err == nil {
		t.Error("oversized target accepted")
	}
}

func TestHALProgram(t *testing.T) {
	device, _ := createNoopDevice(t)

	boom := errors.New("bad wgsl")
	if _, err := NewHALProgram(device, "bad", "x", &stubCompiler{err: boom}); !errors.Is(err, boom) {
		t.Errorf("NewHALProgram() error = %v, want %v", err, boom)
	}
	if _, err := NewHALProgram(device, "nil", "x", nil); err == nil {
		t.Error("NewHALProgram() accepted a nil compiler")
	}

	src, ok := BuiltinWGSL("sharpen")
	if !ok || !strings.Contains(src, "vs_main") || !strings.Contains(src, "fs_main") {
		t.Fatal("BuiltinWGSL(sharpen) is not a complete module")
	}
	if _, ok := BuiltinWGSL("missing"); ok {
		t.Error("BuiltinWGSL(missing) ok")
	}

	p, err := NewHALProgram(device, "sharpen", src, &stubCompiler{})
	if err != nil {
		t.Fatalf("NewHALProgram() error = %v", err)
	}
	if p.Module() == nil || p.Label() != "sharpen" {
		t.Error("program not initialized")
	}
	p.Destroy()
	p.Destroy()
	if p.Module() != nil {
		t.Error("Destroy did not release the module")
	}
}

func TestHALGraphRecordsPasses(t *testing.T) {
	r := newHALRenderer(t)
	in, err := r.NewHostTexture(rendergraph.Sz(320, 180), "frame")
	if err != nil {
		t.Fatal(err)
	}
	out, err := r.NewHostTexture(rendergraph.Sz(640, 360), "present")
	if err != nil {
		t.Fatal(err)
	}
	defer in.Destroy()
	defer out.Destroy()
	r.SetFrame(in, out)

	comp := &stubCompiler{}
	wgsl, _ := BuiltinWGSL("copy")
	prog, err := NewHALProgram(r.Device(), "copy", wgsl, comp)
	if err != nil {
		t.Fatal(err)
	}
	defer prog.Destroy()

	src := rendergraph.NewSource()
	up, err := rendergraph.NewShaderFilter(rendergraph.ShaderConfig{
		Program:        prog,
		Transform:      rendergraph.Scale(2, 2),
		LinearSampling: true,
		Arguments:      []float32{0.5},
	}, src)
	if err != nil {
		t.Fatal(err)
	}

	g, err := rendergraph.NewGraph(up, r)
	if err != nil {
		t.Fatal(err)
	}
	defer g.Close()

	for range 2 {
		if _, err := g.RenderFrame(); err != nil {
			t.Fatalf("RenderFrame() error = %v", err)
		}
	}

	passes := r.TakePasses()
	if len(passes) != 2 {
		t.Fatalf("recorded %d passes, want 2", len(passes))
	}
	if len(r.TakePasses()) != 0 {
		t.Error("TakePasses did not drain")
	}

	p := passes[1]
	if p.Target.Width() != 640 || p.Target.Height() != 360 {
		t.Errorf("target = %dx%d, want 640x360", p.Target.Width(), p.Target.Height())
	}
	if len(p.Inputs) != 1 || p.Inputs[0].Texture != in || !p.Inputs[0].Linear {
		t.Errorf("inputs = %+v, want the frame with linear sampling", p.Inputs)
	}
	if p.Indexed[rendergraph.ConstantFrame][2] != 1 {
		t.Errorf("second pass counter = %v, want 1", p.Indexed[rendergraph.ConstantFrame][2])
	}
	if passes[0].Indexed[rendergraph.ConstantFrame][2] != 0 {
		t.Error("pass snapshots share constant maps")
	}
	if p.Named["args0"][0] != 0.5 {
		t.Errorf("args0 = %v", p.Named["args0"])
	}
	if comp.calls != 1 {
		t.Errorf("compiler called %d times, want 1", comp.calls)
	}
}

func TestHALRenderPassErrors(t *testing.T) {
	r := newHALRenderer(t)
	target, err := r.CreateRenderTarget(rendergraph.Sz(4, 4))
	if err != nil {
		t.Fatal(err)
	}
	defer target.Destroy()

	if err := r.RenderPass(target, NewProgram("sw", CopyKernel)); !errors.Is(err, ErrForeignProgram) {
		t.Errorf("software program error = %v, want ErrForeignProgram", err)
	}

	prog, err := NewHALProgram(r.Device(), "copy", "x", &stubCompiler{})
	if err != nil {
		t.Fatal(err)
	}
	prog.BindTexture(0, NewPixmapTexture(4, 4), false)
	if err := r.RenderPass(target, prog); !errors.Is(err, ErrBindingGap) {
		t.Errorf("pixmap binding error = %v, want ErrBindingGap", err)
	}
	if err := r.RenderPass(NewPixmapTexture(4, 4), prog); !errors.Is(err, ErrForeignTexture) {
		t.Errorf("pixmap target error = %v, want ErrForeignTexture", err)
	}

	prog.Destroy()
	if err := r.RenderPass(target, prog); err == nil {
		t.Error("pass with a destroyed program succeeded")
	}
}
