package rendergraph

import "errors"

// Construction errors. Returned by the constructors, never deferred to
// render time.
var (
	// ErrNoInputs is returned when a processing filter has no inputs.
	ErrNoInputs = errors.New("rendergraph: filter requires at least one input")

	// ErrNilInput is returned when an input list contains nil.
	ErrNilInput = errors.New("rendergraph: nil input filter")

	// ErrNilStage is returned by NewFilter for a nil stage.
	ErrNilStage = errors.New("rendergraph: nil stage")

	// ErrSizeSource is returned when a size source index is out of range.
	ErrSizeSource = errors.New("rendergraph: size source index out of range")

	// ErrNilProgram is returned when a shader filter has no program.
	ErrNilProgram = errors.New("rendergraph: nil shader program")
)

// Composition and lifecycle errors. These indicate a broken engine
// invariant or misuse by the caller.
var (
	// ErrCloneAliased is returned when a deep copy yields a node of the
	// template graph instead of a fresh one.
	ErrCloneAliased = errors.New("rendergraph: clone aliases template graph")

	// ErrNotInitialized is returned when allocating or rendering a graph
	// that was never numbered.
	ErrNotInitialized = errors.New("rendergraph: graph not initialized")

	// ErrNotAllocated is returned when rendering reads a filter that has
	// no output texture.
	ErrNotAllocated = errors.New("rendergraph: output texture not allocated")

	// ErrDisposed is returned when using a disposed filter or graph.
	ErrDisposed = errors.New("rendergraph: filter disposed")
)
