package rendergraph

import (
	"errors"
	"slices"
	"testing"
)

func TestNewFilterErrors(t *testing.T) {
	src := NewSource()
	tests := []struct {
		name   string
		stage  Stage
		inputs []*Filter
		want   error
	}{
		{"nil stage", nil, []*Filter{src}, ErrNilStage},
		{"no inputs", &countingStage{}, nil, ErrNoInputs},
		{"nil input", &countingStage{}, []*Filter{src, nil}, ErrNilInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFilter(tt.stage, tt.inputs...)
			if !errors.Is(err, tt.want) {
				t.Errorf("NewFilter() error = %v, want %v", err, tt.want)
			}
			if f != nil {
				t.Error("NewFilter() returned a filter alongside an error")
			}
		})
	}
}

func TestSourceReservedIndices(t *testing.T) {
	src := NewSource()
	if src.Kind() != KindSource || !src.IsSource() {
		t.Fatalf("Kind() = %v, want source", src.Kind())
	}
	if src.ScheduleIndex() != SourceIndex {
		t.Errorf("source ScheduleIndex() = %d, want %d", src.ScheduleIndex(), SourceIndex)
	}
	out := src.FinalOutput()
	if out == nil || out.Kind() != KindOutput {
		t.Fatalf("FinalOutput() = %v, want output sentinel", out)
	}
	if out.ScheduleIndex() != OutputIndex {
		t.Errorf("sentinel ScheduleIndex() = %d, want %d", out.ScheduleIndex(), OutputIndex)
	}

	f := node(t, "f", src)
	f.Initialize(0)
	f.Initialize(0)
	if src.ScheduleIndex() != SourceIndex || out.ScheduleIndex() != OutputIndex {
		t.Error("Initialize renumbered the source leaves")
	}
	if !src.Initialized() {
		t.Error("source leaves are numbered at construction")
	}
}

func TestInitializeTopologicalOrder(t *testing.T) {
	for name, root := range graphShapes(t) {
		t.Run(name, func(t *testing.T) {
			root.Initialize(0)
			for _, n := range root.Nodes() {
				for _, in := range n.inputs {
					if n.Kind() == KindStage && n.ScheduleIndex() <= in.ScheduleIndex() {
						t.Errorf("%v index not greater than input %v", n, in)
					}
				}
			}
		})
	}
}

func TestInitializeCoversConsumers(t *testing.T) {
	for name, root := range graphShapes(t) {
		t.Run(name, func(t *testing.T) {
			root.Initialize(0)
			for n, cs := range consumers(root) {
				if n.Kind() != KindStage {
					continue
				}
				for _, c := range cs {
					if n.LastDependentIndex() < c.ScheduleIndex()+1 {
						t.Errorf("%v ends before consumer %v", n, c)
					}
				}
				if n.LastDependentIndex() < n.ScheduleIndex()+1 {
					t.Errorf("%v live range does not cover itself", n)
				}
			}
		})
	}
}

func TestInitializeIdempotent(t *testing.T) {
	for name, root := range graphShapes(t) {
		t.Run(name, func(t *testing.T) {
			root.Initialize(0)
			type rng struct{ start, end int }
			first := make(map[*Filter]rng)
			for _, n := range root.Nodes() {
				s, e := n.LiveRange()
				first[n] = rng{s, e}
			}

			root.Initialize(0)
			for _, n := range root.Nodes() {
				s, e := n.LiveRange()
				if got := (rng{s, e}); got != first[n] {
					t.Errorf("%s range = %v after second Initialize, want %v", n.Name(), got, first[n])
				}
			}
		})
	}
}

func TestInitializeChainNumbers(t *testing.T) {
	src := NewSource()
	a := node(t, "a", src)
	b := node(t, "b", a)
	c := node(t, "c", b)
	c.Initialize(0)

	want := map[*Filter][2]int{
		a: {0, 2},
		b: {1, 3},
		c: {2, 3},
	}
	for n, w := range want {
		s, e := n.LiveRange()
		if s != w[0] || e != w[1] {
			t.Errorf("%s LiveRange() = [%d,%d), want [%d,%d)", n.Name(), s, e, w[0], w[1])
		}
	}
}

func TestRenderMemoized(t *testing.T) {
	r := newFakeRenderer(64, 64)
	root := graphShapes(t)["wide"]
	root.Initialize(0)
	if err := root.AllocateTextures(r); err != nil {
		t.Fatalf("AllocateTextures() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := root.Render(r); err != nil {
			t.Fatalf("Render() error = %v", err)
		}
	}
	for _, n := range root.Nodes() {
		if n.Kind() != KindStage {
			continue
		}
		if got := renders(n); got != 1 {
			t.Errorf("%s rendered %d times, want 1", n.Name(), got)
		}
	}
	if got, want := len(r.passes), len(root.Nodes())-2; got != want {
		t.Errorf("render passes = %d, want %d", got, want)
	}
}

func TestNewFrameRendersEveryNodeOnce(t *testing.T) {
	r := newFakeRenderer(32, 32)
	root := graphShapes(t)["diamond"]
	root.Initialize(0)

	for frame := 1; frame <= 3; frame++ {
		if err := root.AllocateTextures(r); err != nil {
			t.Fatalf("AllocateTextures() error = %v", err)
		}
		root.NewFrame()
		if err := root.Render(r); err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		for _, n := range root.Nodes() {
			if n.Kind() != KindStage {
				continue
			}
			if got := renders(n); got != frame {
				t.Errorf("frame %d: %s rendered %d times, want %d", frame, n.Name(), got, frame)
			}
		}
	}
}

func TestNewFrameStopsAtUnevaluated(t *testing.T) {
	src := NewSource()
	a := node(t, "a", src)
	b := node(t, "b", a)
	a.evaluated = true

	b.NewFrame()
	if !a.Evaluated() {
		t.Error("NewFrame on an unevaluated node should not reach its inputs")
	}
}

func TestRenderInputsFirst(t *testing.T) {
	var log []string
	src := NewSource()
	s := loggedNode(t, &log, "s", src)
	l := loggedNode(t, &log, "l", s)
	r := loggedNode(t, &log, "r", s)
	join := loggedNode(t, &log, "join", l, r, s)

	rr := newFakeRenderer(16, 16)
	join.Initialize(0)
	if err := join.AllocateTextures(rr); err != nil {
		t.Fatalf("AllocateTextures() error = %v", err)
	}
	if err := join.Render(rr); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	want := []string{"s", "l", "r", "join"}
	if !slices.Equal(log, want) {
		t.Errorf("render order = %v, want %v", log, want)
	}

	// Evaluation order matches schedule order.
	var indices []int
	for _, n := range join.Nodes() {
		if n.Kind() == KindStage {
			indices = append(indices, n.ScheduleIndex())
		}
	}
	if !slices.IsSorted(indices) {
		t.Errorf("schedule indices in evaluation order = %v, want ascending", indices)
	}
}

func TestRenderErrors(t *testing.T) {
	r := newFakeRenderer(8, 8)

	t.Run("not initialized", func(t *testing.T) {
		f := node(t, "f", NewSource())
		if err := f.Render(r); !errors.Is(err, ErrNotInitialized) {
			t.Errorf("Render() error = %v, want ErrNotInitialized", err)
		}
		if err := f.AllocateTextures(r); !errors.Is(err, ErrNotInitialized) {
			t.Errorf("AllocateTextures() error = %v, want ErrNotInitialized", err)
		}
	})

	t.Run("not allocated", func(t *testing.T) {
		f := node(t, "f", NewSource())
		f.Initialize(0)
		if err := f.Render(r); !errors.Is(err, ErrNotAllocated) {
			t.Errorf("Render() error = %v, want ErrNotAllocated", err)
		}
	})

	t.Run("stage error", func(t *testing.T) {
		boom := errors.New("boom")
		f, err := NewFilter(&countingStage{name: "f", err: boom}, NewSource())
		if err != nil {
			t.Fatal(err)
		}
		f.Initialize(0)
		if err := f.AllocateTextures(r); err != nil {
			t.Fatal(err)
		}
		if err := f.Render(r); !errors.Is(err, boom) {
			t.Errorf("Render() error = %v, want %v", err, boom)
		}
	})

	t.Run("disposed", func(t *testing.T) {
		f := node(t, "f", NewSource())
		f.Initialize(0)
		f.Dispose()
		if err := f.Render(r); !errors.Is(err, ErrDisposed) {
			t.Errorf("Render() error = %v, want ErrDisposed", err)
		}
		if err := f.AllocateTextures(r); !errors.Is(err, ErrDisposed) {
			t.Errorf("AllocateTextures() error = %v, want ErrDisposed", err)
		}
	})
}

func TestSourceRendersNothing(t *testing.T) {
	r := newFakeRenderer(8, 8)
	src := NewSource()
	src.Initialize(0)
	if err := src.AllocateTextures(r); err != nil {
		t.Fatalf("AllocateTextures() error = %v", err)
	}
	if err := src.Render(r); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if len(r.created) != 0 || len(r.passes) != 0 {
		t.Errorf("source created %d targets and %d passes, want none", len(r.created), len(r.passes))
	}
	if src.OutputTexture() != r.input {
		t.Error("source output should be the renderer input frame")
	}
	if src.FinalOutput().OutputTexture() != r.output {
		t.Error("sentinel output should be the renderer output target")
	}
	if src.OwnsTexture() {
		t.Error("source must not own its texture")
	}
}

func TestDisposeIdempotent(t *testing.T) {
	r := newFakeRenderer(16, 16)
	root := graphShapes(t)["chain"]
	root.Initialize(0)
	if err := root.AllocateTextures(r); err != nil {
		t.Fatalf("AllocateTextures() error = %v", err)
	}

	root.Dispose()
	root.Dispose()

	for _, tex := range r.created {
		if tex.destroyed != 1 {
			t.Errorf("texture %d destroyed %d times, want 1", tex.handle, tex.destroyed)
		}
	}
	if r.input.destroyed != 0 {
		t.Error("Dispose released the host input frame")
	}
	for _, n := range root.Nodes() {
		if !n.Disposed() {
			t.Errorf("%s not disposed", n.Name())
		}
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		k    Kind
		want string
	}{
		{KindStage, "stage"},
		{KindSource, "source"},
		{KindOutput, "output"},
		{Kind(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.k.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.k, got, tt.want)
		}
	}
}
