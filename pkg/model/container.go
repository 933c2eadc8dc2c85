package model

import (
	"fmt"

	"github.com/proteus-fuzz/proteus/pkg/bits"
)

// Container is an ordered aggregate of leaves and nested containers.
// It renders children in declaration order, owns name resolution for
// the subtree beneath it, and schedules mutations sequentially: one
// fuzzable descendant advances per Mutate call while every other
// descendant stays at its default.
type Container struct {
	fieldMeta

	children []Field

	// current indexes the child whose mutation domain is being
	// consumed. Children before it have been exhausted and reset.
	current int
}

// ContainerOptions configure [NewContainer].
type ContainerOptions struct {
	// Name is the resolution name; "" means unnamed.
	Name string

	// Fuzzable enables mutation scheduling across descendants. A
	// non-fuzzable container contributes zero mutations for its whole
	// subtree.
	Fuzzable bool
}

// NewContainer returns a container owning fields in order.
//
// Children are attached to the container: their enclosing reference is
// set, non-owning, for name resolution and positional lookups.
// Duplicate non-empty names among immediate children are a
// configuration error.
func NewContainer(fields []Field, opts ContainerOptions) (*Container, error) {
	names := make(map[string]struct{}, len(fields))

	for i, f := range fields {
		if f == nil {
			return nil, fmt.Errorf("container %q: field %d is nil: %w", opts.Name, i, ErrConfiguration)
		}

		name := f.Name()
		if name == "" {
			continue
		}

		if _, dup := names[name]; dup {
			return nil, fmt.Errorf("container %q: duplicate field name %q: %w", opts.Name, name, ErrConfiguration)
		}

		names[name] = struct{}{}
	}

	c := &Container{children: make([]Field, len(fields))}
	copy(c.children, fields)
	c.name = opts.Name
	c.fuzzable = opts.Fuzzable

	for _, f := range c.children {
		f.setEnclosing(c)
	}

	return c, nil
}

// Fields returns the container's immediate children in declaration
// order. The returned slice is a copy; the children themselves are
// shared.
func (c *Container) Fields() []Field {
	out := make([]Field, len(c.children))
	copy(out, c.children)

	return out
}

// Render concatenates each child's render in declaration order.
func (c *Container) Render() (bits.Bits, error) {
	var w bits.Builder

	for _, f := range c.children {
		r, err := f.Render()
		if err != nil {
			return bits.Bits{}, fmt.Errorf("container %q: %w", c.name, err)
		}

		w.Append(r)
	}

	return w.Bits(), nil
}

// RenderedFields returns the one-level rendered-fields list: each
// immediate child that currently produces output, with a nested
// container included as a single opaque unit when its own list is
// non-empty and omitted entirely otherwise.
func (c *Container) RenderedFields() []Field {
	var out []Field

	for _, f := range c.children {
		if nested, ok := f.(*Container); ok {
			if len(nested.RenderedFields()) > 0 {
				out = append(out, nested)
			}

			continue
		}

		out = append(out, f.RenderedFields()...)
	}

	return out
}

// NumMutations returns the sum of NumMutations over all fuzzable
// descendants.
func (c *Container) NumMutations() int {
	if !c.fuzzable {
		return 0
	}

	total := 0
	for _, f := range c.children {
		total += f.NumMutations()
	}

	return total
}

// Mutate advances exactly one fuzzable descendant by one step. When
// the current descendant's domain runs out it is reset to its default
// and the cursor moves to the next one. Returns false only once every
// fuzzable descendant under the container is exhausted.
func (c *Container) Mutate() bool {
	if !c.fuzzable {
		return false
	}

	for c.current < len(c.children) {
		child := c.children[c.current]
		if child.Mutate() {
			return true
		}

		child.Reset()
		c.current++
	}

	return false
}

// Reset recursively resets every descendant and rewinds the mutation
// cursor.
func (c *Container) Reset() {
	for _, f := range c.children {
		f.Reset()
	}

	c.current = 0
}

// Skip advances the logical mutation cursor by up to n steps without
// rendering and returns the number of steps skipped. A Skip followed
// by draining Mutate calls visits exactly the mutations that calling
// Mutate n extra times would have consumed.
func (c *Container) Skip(n int) int {
	if !c.fuzzable || n <= 0 {
		return 0
	}

	skipped := 0

	for c.current < len(c.children) {
		child := c.children[c.current]

		skipped += child.Skip(n - skipped)
		if skipped == n {
			break
		}

		// Child exhausted with skips still pending: settle it back to
		// its default and move on, exactly as Mutate would.
		child.Reset()
		c.current++
	}

	return skipped
}

// IdentityHash returns a structural fingerprint derived from the
// container's own configuration and its children's identity hashes in
// order. It is independent of render and mutation state, so two
// independently built but configuration-identical trees hash equal.
func (c *Container) IdentityHash() uint64 {
	id := newIdentity("container")
	id.str(c.name)
	id.bool(c.fuzzable)

	for _, f := range c.children {
		id.uint(f.IdentityHash())
	}

	return id.finish()
}

// SetSessionData broadcasts the session mapping to every session-aware
// descendant.
func (c *Container) SetSessionData(data map[string][]byte) {
	for _, f := range c.children {
		if r, ok := f.(SessionDataReceiver); ok {
			r.SetSessionData(data)
		}
	}
}
