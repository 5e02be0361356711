// Package chain loads filter chains written in HCL and builds them into
// rendergraph filter graphs.
//
// A chain file declares named filters and the one whose output is the
// chain result:
//
//	filter "luma" {
//	  program = "sharpen"
//	  args    = [0.6]
//	}
//
//	filter "upscale" {
//	  program = "copy"
//	  inputs  = ["luma"]
//	  size    = [output_width, output_height]
//	  linear  = true
//	}
//
//	output = "upscale"
//
// Inputs name other filters or "source", the unprocessed frame, which is
// also the default input. Size expressions may use the variables
// input_width, input_height, output_width and output_height.
package chain

import (
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// SourceName is the input name of the unprocessed frame.
const SourceName = "source"

// Chain file errors.
var (
	ErrUnknownProgram = errors.New("chain: unknown program")
	ErrUnknownInput   = errors.New("chain: unknown input")
	ErrCycle          = errors.New("chain: filter inputs form a cycle")
	ErrDuplicate      = errors.New("chain: duplicate filter name")
	ErrNoOutput       = errors.New("chain: no output filter")
	ErrInvalidValue   = errors.New("chain: invalid attribute value")
	ErrNoChains       = errors.New("chain: no chain files")
)

// File is a decoded chain file. Expressions are evaluated by Build.
type File struct {
	Filters []*FilterBlock `hcl:"filter,block"`
	Output  string         `hcl:"output,optional"`

	name string
}

// FilterBlock is one `filter "name" { ... }` block.
type FilterBlock struct {
	Name     string         `hcl:"name,label"`
	Program  string         `hcl:"program"`
	Inputs   []string       `hcl:"inputs,optional"`
	Scale    hcl.Expression `hcl:"scale,optional"`
	Size     hcl.Expression `hcl:"size,optional"`
	SizeFrom int            `hcl:"size_from,optional"`
	Linear   bool           `hcl:"linear,optional"`
	Args     hcl.Expression `hcl:"args,optional"`

	DefRange hcl.Range `hcl:",def_range"`
}

// Name returns the file name given to Parse.
func (f *File) Name() string { return f.name }

// Parse decodes a chain from src. filename is used in diagnostics.
func Parse(src []byte, filename string) (*File, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("chain: failed to parse %s: %w", filename, diags)
	}
	return decode(file, filename)
}

// ParseFile reads and decodes the chain file at path.
func ParseFile(path string) (*File, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("chain: failed to parse %s: %w", path, diags)
	}
	return decode(file, path)
}

func decode(file *hcl.File, filename string) (*File, error) {
	f := &File{name: filename}
	if diags := gohcl.DecodeBody(file.Body, nil, f); diags.HasErrors() {
		return nil, fmt.Errorf("chain: failed to decode %s: %w", filename, diags)
	}
	return f, nil
}
