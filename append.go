// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rendergraph

import (
	"fmt"
	"reflect"
)

// Append splices other onto the consuming end of f. The result is a deep
// copy of other in which every Source leaf is replaced by f.
//
// other is never modified and stays usable on its own afterwards; f
// becomes part of the returned graph and must not be disposed separately.
// Appending to a bare Source returns other itself, and appending a bare
// Source returns f.
//
// Nodes shared inside other stay shared in the copy, so fan-in is
// preserved and each copied node still renders once per frame.
func (f *Filter) Append(other *Filter) (*Filter, error) {
	if other == nil {
		return nil, ErrNilInput
	}
	if f.kind == KindSource {
		return other, nil
	}
	if other.kind == KindSource {
		return f, nil
	}

	c := &cloner{replacement: f, memo: make(map[*Filter]*Filter)}
	root, err := c.clone(other)
	if err != nil {
		return nil, err
	}
	if root == other {
		return nil, ErrCloneAliased
	}
	return root, nil
}

// cloner deep-copies a graph, substituting Source leaves.
type cloner struct {
	replacement *Filter
	memo        map[*Filter]*Filter
}

func (c *cloner) clone(n *Filter) (*Filter, error) {
	if cp, ok := c.memo[n]; ok {
		return cp, nil
	}
	if n.kind == KindSource {
		c.memo[n] = c.replacement
		return c.replacement, nil
	}

	cp := &Filter{
		kind:          n.kind,
		inputs:        make([]*Filter, len(n.inputs)),
		index:         n.index,
		lastDependent: n.lastDependent,
	}
	if n.kind == KindStage {
		cp.index, cp.lastDependent = 0, 0
	}
	if n.stage != nil {
		cp.stage = n.stage.Clone()
		if cp.stage == nil || sameInstance(cp.stage, n.stage) {
			return nil, fmt.Errorf("%w: stage %s", ErrCloneAliased, n.Name())
		}
	}
	for i, in := range n.inputs {
		ci, err := c.clone(in)
		if err != nil {
			return nil, err
		}
		if ci == in {
			return nil, fmt.Errorf("%w: input %d of %s", ErrCloneAliased, i, n.Name())
		}
		cp.inputs[i] = ci
	}
	c.memo[n] = cp
	return cp, nil
}

// sameInstance reports whether two stages are the same pointer. Value
// stages carry no shared mutable state and never alias.
func sameInstance(a, b Stage) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Kind() != reflect.Pointer || vb.Kind() != reflect.Pointer {
		return false
	}
	return va.Type() == vb.Type() && va.Pointer() == vb.Pointer()
}
