// Command rgraph runs an HCL filter chain over a PNG image.
//
// Usage:
//
//	rgraph -chain upscale.hcl -input frame.png -output out.png -width 1920 -height 1080
//
// -chain may be repeated; each chain reads the output of the one before it.
//
// With -backend noop the chain is compiled to WGSL modules on a no-op HAL
// device and the recorded passes are reported instead of written.
package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/rendergraph"
	"github.com/gogpu/rendergraph/chain"
	"github.com/gogpu/rendergraph/render"
)

// chainList collects repeated -chain flags in order.
type chainList []string

func (l *chainList) String() string { return strings.Join(*l, ",") }

func (l *chainList) Set(path string) error {
	*l = append(*l, path)
	return nil
}

type options struct {
	chain   chainList
	input   string
	output  string
	backend string
	frames  int
	width   int
	height  int
	verbose bool
}

func main() {
	var o options
	flag.Var(&o.chain, "chain", "filter chain file (HCL); repeat to append chains")
	flag.StringVar(&o.input, "input", "", "input PNG")
	flag.StringVar(&o.output, "output", "out.png", "output PNG")
	flag.StringVar(&o.backend, "backend", "software", "renderer: software or noop")
	flag.IntVar(&o.frames, "frames", 1, "frames to render")
	flag.IntVar(&o.width, "width", 0, "output width (default: input width)")
	flag.IntVar(&o.height, "height", 0, "output height (default: input height)")
	flag.BoolVar(&o.verbose, "v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	rendergraph.SetLogger(log)

	if err := run(o, log); err != nil {
		fmt.Fprintln(os.Stderr, "rgraph:", err)
		os.Exit(1)
	}
}

func run(o options, log *slog.Logger) error {
	if len(o.chain) == 0 || o.input == "" {
		return errors.New("-chain and -input are required")
	}
	if o.frames < 1 {
		return fmt.Errorf("-frames must be positive, got %d", o.frames)
	}

	src, err := readPNG(o.input)
	if err != nil {
		return err
	}
	in := rendergraph.Sz(src.Bounds().Dx(), src.Bounds().Dy())
	out := in
	if o.width > 0 && o.height > 0 {
		out = rendergraph.Sz(o.width, o.height)
	}

	files := make([]*chain.File, 0, len(o.chain))
	for _, path := range o.chain {
		file, err := chain.ParseFile(path)
		if err != nil {
			return err
		}
		files = append(files, file)
	}
	env := chain.Env{Input: in, Output: out}

	switch o.backend {
	case "software":
		return runSoftware(o, log, files, env, src)
	case "noop":
		return runNoop(o, log, files, env)
	default:
		return fmt.Errorf("unknown backend %q", o.backend)
	}
}

func runSoftware(o options, log *slog.Logger, files []*chain.File, env chain.Env, src image.Image) error {
	reg := make(chain.Registry)
	for name, k := range render.Kernels() {
		reg[name] = func() rendergraph.ShaderProgram { return render.NewProgram(name, k) }
	}
	root, err := chain.BuildAll(files, reg, env)
	if err != nil {
		return err
	}

	r := render.NewSoftwareRenderer(src, env.Output)
	g, err := rendergraph.NewGraph(root, r, rendergraph.WithLogger(log), rendergraph.WithName(graphName(files)))
	if err != nil {
		return err
	}
	defer g.Close()

	var tex rendergraph.Texture
	for range o.frames {
		if tex, err = g.RenderFrame(); err != nil {
			return err
		}
	}
	pix, ok := tex.(*render.PixmapTexture)
	if !ok {
		return fmt.Errorf("chain output is not a software texture (%T)", tex)
	}
	if err := writePNG(o.output, pix.Image()); err != nil {
		return err
	}

	st := r.Stats()
	report(g.Stats(), st.Passes)
	log.Info("wrote output", "path", o.output, "size", pix.Size().String(), "targets_created", st.Created)
	return nil
}

// graphName joins the chain file names in splice order.
func graphName(files []*chain.File) string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name()
	}
	return strings.Join(names, "+")
}

// report prints graph statistics with locale-aware number formatting.
func report(gs rendergraph.Stats, passes int) {
	p := message.NewPrinter(language.English)
	p.Printf("frames:   %d\n", gs.Frames)
	p.Printf("nodes:    %d\n", gs.Nodes)
	p.Printf("textures: %d owned, %d borrowed\n", gs.Owned, gs.Borrowed)
	p.Printf("passes:   %d\n", passes)
}

func readPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
