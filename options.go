package rendergraph

import "log/slog"

// GraphOption configures a Graph during creation.
//
// Example:
//
//	g, err := rendergraph.NewGraph(root, renderer,
//	    rendergraph.WithName("upscale"),
//	    rendergraph.WithLogger(slog.Default()),
//	)
type GraphOption func(*graphOptions)

// graphOptions holds optional configuration for Graph creation.
type graphOptions struct {
	logger *slog.Logger
	name   string
}

// defaultGraphOptions returns the default graph options.
func defaultGraphOptions() graphOptions {
	return graphOptions{
		logger: nil, // package logger at creation time
		name:   "graph",
	}
}

// WithLogger sets the logger used for this graph's allocation and
// lifecycle messages instead of the package logger.
func WithLogger(l *slog.Logger) GraphOption {
	return func(o *graphOptions) {
		o.logger = l
	}
}

// WithName labels the graph in log output.
func WithName(name string) GraphOption {
	return func(o *graphOptions) {
		if name != "" {
			o.name = name
		}
	}
}
