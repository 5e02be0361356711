package rendergraph

// NewSource returns a Source leaf. Its output is the renderer's current
// input frame; it allocates nothing and renders nothing.
//
// Beneath it sits a sentinel standing for the player's final output
// target. Both keep their reserved schedule indices forever.
func NewSource() *Filter {
	out := &Filter{
		kind:          KindOutput,
		index:         OutputIndex,
		lastDependent: OutputIndex + 1,
	}
	return &Filter{
		kind:          KindSource,
		inputs:        []*Filter{out},
		index:         SourceIndex,
		lastDependent: SourceIndex + 1,
	}
}

// IsSource reports whether f is a Source leaf.
func (f *Filter) IsSource() bool { return f.kind == KindSource }

// FinalOutput returns the output sentinel beneath a Source, nil otherwise.
func (f *Filter) FinalOutput() *Filter {
	if f.kind != KindSource || len(f.inputs) == 0 {
		return nil
	}
	return f.inputs[0]
}
