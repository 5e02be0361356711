package rendergraph

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
)

// fakeTexture implements Texture and counts Destroy calls.
type fakeTexture struct {
	w, h      int
	handle    uint64
	destroyed int
}

func (t *fakeTexture) Width() int                     { return t.w }
func (t *fakeTexture) Height() int                    { return t.h }
func (t *fakeTexture) Format() gputypes.TextureFormat { return gputypes.TextureFormatRGBA8Unorm }
func (t *fakeTexture) Handle() uint64                 { return t.handle }
func (t *fakeTexture) Destroy()                       { t.destroyed++ }

// fakeRenderer implements Renderer, recording targets and passes.
type fakeRenderer struct {
	input   *fakeTexture
	output  *fakeTexture
	created []*fakeTexture
	passes  []Texture
	failErr error
	next    uint64
}

func newFakeRenderer(w, h int) *fakeRenderer {
	return &fakeRenderer{
		input:  &fakeTexture{w: w, h: h, handle: 1000},
		output: &fakeTexture{w: w, h: h, handle: 1001},
	}
}

func (r *fakeRenderer) CreateRenderTarget(size Size) (Texture, error) {
	if r.failErr != nil {
		return nil, r.failErr
	}
	r.next++
	t := &fakeTexture{w: size.Width, h: size.Height, handle: r.next}
	r.created = append(r.created, t)
	return t, nil
}

func (r *fakeRenderer) InputFrame() Texture   { return r.input }
func (r *fakeRenderer) InputSize() Size       { return SizeOf(r.input) }
func (r *fakeRenderer) OutputTarget() Texture { return r.output }
func (r *fakeRenderer) OutputSize() Size      { return SizeOf(r.output) }

func (r *fakeRenderer) RenderPass(target Texture, _ ShaderProgram) error {
	r.passes = append(r.passes, target)
	return nil
}

// setInput swaps the source frame, as a host does when the video size changes.
func (r *fakeRenderer) setInput(w, h int) {
	r.input = &fakeTexture{w: w, h: h, handle: r.input.handle}
}

// live returns the textures created and not yet destroyed.
func (r *fakeRenderer) live() int {
	n := 0
	for _, t := range r.created {
		if t.destroyed == 0 {
			n++
		}
	}
	return n
}

// countingStage is a Stage that records its renders.
type countingStage struct {
	name    string
	size    func([]Size) Size
	renders int
	log     *[]string
	err     error
}

func (s *countingStage) Name() string { return s.name }

func (s *countingStage) OutputSize(inputs []Size) Size {
	if s.size != nil {
		return s.size(inputs)
	}
	return inputs[0]
}

func (s *countingStage) Render(r Renderer, target Texture, _ []Texture) error {
	s.renders++
	if s.log != nil {
		*s.log = append(*s.log, s.name)
	}
	if s.err != nil {
		return s.err
	}
	return r.RenderPass(target, nil)
}

func (s *countingStage) Clone() Stage {
	return &countingStage{name: s.name, size: s.size, log: s.log, err: s.err}
}

// selfCloningStage violates the Clone contract.
type selfCloningStage struct{ countingStage }

func (s *selfCloningStage) Clone() Stage { return s }

// node builds a counting filter or fails the test.
func node(t *testing.T, name string, inputs ...*Filter) *Filter {
	t.Helper()
	f, err := NewFilter(&countingStage{name: name}, inputs...)
	if err != nil {
		t.Fatalf("NewFilter(%s) error = %v", name, err)
	}
	return f
}

// loggedNode builds a counting filter appending its name to log on render.
func loggedNode(t *testing.T, log *[]string, name string, inputs ...*Filter) *Filter {
	t.Helper()
	f, err := NewFilter(&countingStage{name: name, log: log}, inputs...)
	if err != nil {
		t.Fatalf("NewFilter(%s) error = %v", name, err)
	}
	return f
}

// renders returns how many times a counting filter has rendered.
func renders(f *Filter) int {
	switch s := f.stage.(type) {
	case *countingStage:
		return s.renders
	case *selfCloningStage:
		return s.renders
	}
	return -1
}

// graphShapes returns freshly built graphs covering chains, fan-in and
// fan-out. Each call builds new nodes.
func graphShapes(t *testing.T) map[string]*Filter {
	t.Helper()
	shapes := make(map[string]*Filter)

	src := NewSource()
	a := node(t, "a", src)
	b := node(t, "b", a)
	c := node(t, "c", b)
	shapes["chain"] = node(t, "d", c)

	src = NewSource()
	s := node(t, "s", src)
	l := node(t, "l", s)
	r := node(t, "r", s)
	shapes["diamond"] = node(t, "join", l, r)

	src = NewSource()
	x := node(t, "x", src)
	y := node(t, "y", x)
	z := node(t, "z", y)
	w := node(t, "w", z, x)
	v := node(t, "v", w)
	shapes["long-skip"] = node(t, "u", v, src, y)

	src = NewSource()
	p := node(t, "p", src)
	q := node(t, "q", src)
	pq := node(t, "pq", p, q)
	k := node(t, "k", pq)
	m := node(t, "m", k, p)
	n := node(t, "n", m)
	o := node(t, "o", n, k)
	shapes["wide"] = node(t, "root", o, src, q)

	return shapes
}

// consumers maps each node to its direct consumers.
func consumers(root *Filter) map[*Filter][]*Filter {
	out := make(map[*Filter][]*Filter)
	for _, n := range root.Nodes() {
		for _, in := range n.inputs {
			out[in] = append(out[in], n)
		}
	}
	return out
}

var errExhausted = errors.New("out of video memory")
