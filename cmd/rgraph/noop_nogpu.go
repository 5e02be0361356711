//go:build nogpu

package main

import (
	"errors"
	"log/slog"

	"github.com/gogpu/rendergraph/chain"
)

func runNoop(options, *slog.Logger, []*chain.File, chain.Env) error {
	return errors.New("noop backend not available in nogpu builds")
}
