package chain

import (
	"fmt"
	"math"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/zclconf/go-cty/cty"

	"github.com/gogpu/rendergraph"
)

// Registry maps program names to program factories. Build calls the
// factory once per filter block.
type Registry map[string]func() rendergraph.ShaderProgram

// Env is the frame geometry visible to chain expressions.
type Env struct {
	Input  rendergraph.Size
	Output rendergraph.Size
}

// evalContext exposes env as input_width, input_height, output_width and
// output_height.
func (env Env) evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"input_width":   cty.NumberIntVal(int64(env.Input.Width)),
			"input_height":  cty.NumberIntVal(int64(env.Input.Height)),
			"output_width":  cty.NumberIntVal(int64(env.Output.Width)),
			"output_height": cty.NumberIntVal(int64(env.Output.Height)),
		},
	}
}

// builder resolves filter blocks into filters, depth first.
type builder struct {
	file   *File
	reg    Registry
	ctx    *hcl.EvalContext
	blocks map[string]*FilterBlock
	built  map[string]*rendergraph.Filter
	active map[string]bool
	source *rendergraph.Filter
}

// Build builds the filter graph of f. The result is not initialized;
// hand it to rendergraph.NewGraph or Append it to another graph.
func Build(f *File, reg Registry, env Env) (*rendergraph.Filter, error) {
	if f.Output == "" {
		return nil, fmt.Errorf("%w in %s", ErrNoOutput, f.name)
	}
	b := &builder{
		file:   f,
		reg:    reg,
		ctx:    env.evalContext(),
		blocks: make(map[string]*FilterBlock, len(f.Filters)),
		built:  make(map[string]*rendergraph.Filter),
		active: make(map[string]bool),
		source: rendergraph.NewSource(),
	}
	for _, blk := range f.Filters {
		if blk.Name == SourceName {
			return nil, fmt.Errorf("%w: %q is reserved (%s)", ErrDuplicate, SourceName, blk.DefRange)
		}
		if prev, ok := b.blocks[blk.Name]; ok {
			return nil, fmt.Errorf("%w: %q at %s, first declared at %s", ErrDuplicate, blk.Name, blk.DefRange, prev.DefRange)
		}
		b.blocks[blk.Name] = blk
	}

	root, err := b.resolve(f.Output)
	if err != nil {
		return nil, err
	}

	log := rendergraph.Logger()
	for _, blk := range f.Filters {
		if _, ok := b.built[blk.Name]; !ok {
			log.Warn("chain: filter not reachable from output", "file", f.name, "filter", blk.Name)
		}
	}
	log.Debug("chain: built", "file", f.name, "output", f.Output, "filters", len(b.built))
	return root, nil
}

// BuildAll builds every file and splices the results in order with
// Append: the source of each chain after the first reads the output of
// the chain before it. Expressions in all files see the same env.
func BuildAll(files []*File, reg Registry, env Env) (*rendergraph.Filter, error) {
	if len(files) == 0 {
		return nil, ErrNoChains
	}
	var root *rendergraph.Filter
	for _, f := range files {
		next, err := Build(f, reg, env)
		if err != nil {
			return nil, err
		}
		if root == nil {
			root = next
			continue
		}
		if root, err = root.Append(next); err != nil {
			return nil, fmt.Errorf("chain: append %s: %w", f.name, err)
		}
		rendergraph.Logger().Debug("chain: appended", "file", f.name, "output", f.Output)
	}
	return root, nil
}

func (b *builder) resolve(name string) (*rendergraph.Filter, error) {
	if name == SourceName {
		return b.source, nil
	}
	if f, ok := b.built[name]; ok {
		return f, nil
	}
	blk, ok := b.blocks[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q in %s", ErrUnknownInput, name, b.file.name)
	}
	if b.active[name] {
		return nil, fmt.Errorf("%w: through %q at %s", ErrCycle, name, blk.DefRange)
	}
	b.active[name] = true
	defer delete(b.active, name)

	names := blk.Inputs
	if len(names) == 0 {
		names = []string{SourceName}
	}
	inputs := make([]*rendergraph.Filter, len(names))
	for i, in := range names {
		f, err := b.resolve(in)
		if err != nil {
			return nil, err
		}
		inputs[i] = f
	}

	f, err := b.filter(blk, inputs)
	if err != nil {
		return nil, err
	}
	b.built[name] = f
	return f, nil
}

func (b *builder) filter(blk *FilterBlock, inputs []*rendergraph.Filter) (*rendergraph.Filter, error) {
	factory, ok := b.reg[blk.Program]
	if !ok {
		return nil, fmt.Errorf("%w: %q in filter %q at %s", ErrUnknownProgram, blk.Program, blk.Name, blk.DefRange)
	}

	transform, err := b.transform(blk)
	if err != nil {
		return nil, err
	}
	args, err := b.floats(blk.Args, "args", blk)
	if err != nil {
		return nil, err
	}

	f, err := rendergraph.NewShaderFilter(rendergraph.ShaderConfig{
		Name:           blk.Name,
		Program:        factory(),
		Transform:      transform,
		SizeIndex:      blk.SizeFrom,
		LinearSampling: blk.Linear,
		Arguments:      args,
	}, inputs...)
	if err != nil {
		return nil, fmt.Errorf("chain: filter %q at %s: %w", blk.Name, blk.DefRange, err)
	}
	return f, nil
}

// transform returns the size transform of blk: an absolute size wins
// over a scale; neither means identity.
func (b *builder) transform(blk *FilterBlock) (rendergraph.SizeTransform, error) {
	size, err := b.floats(blk.Size, "size", blk)
	if err != nil {
		return nil, err
	}
	if size != nil {
		if len(size) != 2 {
			return nil, fmt.Errorf("%w: size of %q must be two numbers", ErrInvalidValue, blk.Name)
		}
		w, h := int(math.Round(float64(size[0]))), int(math.Round(float64(size[1])))
		if w < 1 || h < 1 {
			return nil, fmt.Errorf("%w: size of %q is %dx%d", ErrInvalidValue, blk.Name, w, h)
		}
		return rendergraph.Fixed(rendergraph.Sz(w, h)), nil
	}

	scale, err := b.floats(blk.Scale, "scale", blk)
	if err != nil {
		return nil, err
	}
	if scale == nil {
		return nil, nil
	}
	if len(scale) == 1 {
		scale = append(scale, scale[0])
	}
	if len(scale) != 2 || scale[0] <= 0 || scale[1] <= 0 {
		return nil, fmt.Errorf("%w: scale of %q must be one or two positive factors", ErrInvalidValue, blk.Name)
	}
	return scaleBy(float64(scale[0]), float64(scale[1])), nil
}

// floats evaluates an optional number list. Absent attributes yield nil.
func (b *builder) floats(expr hcl.Expression, attr string, blk *FilterBlock) ([]float32, error) {
	if expr == nil {
		return nil, nil
	}
	v, diags := expr.Value(b.ctx)
	if diags.HasErrors() {
		return nil, fmt.Errorf("chain: %s of %q: %w", attr, blk.Name, diags)
	}
	if v.IsNull() {
		return nil, nil
	}
	var out []float64
	if diags := gohcl.DecodeExpression(expr, b.ctx, &out); diags.HasErrors() {
		return nil, fmt.Errorf("%w: %s of %q: %w", ErrInvalidValue, attr, blk.Name, diags)
	}
	res := make([]float32, len(out))
	for i, x := range out {
		res[i] = float32(x)
	}
	return res, nil
}

// scaleBy multiplies both dimensions, rounding to the nearest pixel and
// never below one.
func scaleBy(sx, sy float64) rendergraph.SizeTransform {
	return func(s rendergraph.Size) rendergraph.Size {
		return rendergraph.Sz(
			max(1, int(math.Round(float64(s.Width)*sx))),
			max(1, int(math.Round(float64(s.Height)*sy))),
		)
	}
}
