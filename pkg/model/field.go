package model

import (
	"github.com/proteus-fuzz/proteus/pkg/bits"
)

// Field is the capability set shared by every node in a template tree:
// value leaves, calculated leaves and containers.
//
// The mutation protocol is pull-based and deterministic:
//
//	f.Render()            // default rendering
//	for f.Mutate() {
//	    f.Render()        // one mutated rendering per successful Mutate
//	}
//	f.Reset()             // back to the default, sequence replayable
//
// Mutate returns false once the field's mutation domain is exhausted
// and keeps returning false until Reset. Exhaustion is a normal
// terminal state, not an error.
//
// Fields are not safe for concurrent use; a campaign running trees in
// parallel must give each goroutine its own tree.
type Field interface {
	// Name returns the field's resolution name. Unnamed fields return
	// "" and are never resolution targets.
	Name() string

	// Fuzzable reports whether the field contributes mutations.
	Fuzzable() bool

	// Render produces the field's current bit string. For calculated
	// fields this resolves the target by name and may return
	// [ErrResolution].
	Render() (bits.Bits, error)

	// Mutate advances the field's own deterministic mutation cursor by
	// one step. It returns false when the domain is exhausted.
	Mutate() bool

	// Reset returns the field to its pre-mutation default state.
	Reset()

	// NumMutations returns the fixed, construction-derived size of the
	// field's mutation domain. Stable across Reset.
	NumMutations() int

	// Skip advances the mutation cursor by up to n steps without
	// rendering and returns the number of steps actually skipped.
	Skip(n int) int

	// RenderedFields returns the field's contribution to its parent's
	// rendered-fields accounting: for a leaf, [self] when the current
	// render is non-empty, otherwise nothing; for a container, its
	// immediate children per the one-level rule.
	RenderedFields() []Field

	// IdentityHash returns a structural fingerprint of the field's
	// static configuration. It is invariant across Render, Mutate and
	// Reset, and equal for two independently constructed fields with
	// identical configuration.
	IdentityHash() uint64

	// setEnclosing records the immediate parent container. The
	// relation is non-owning and used only for lookups.
	setEnclosing(c *Container)

	// enclosingContainer returns the immediate parent container, or
	// nil at the root.
	enclosingContainer() *Container
}

// SessionDataReceiver is implemented by fields that consult externally
// supplied session data at render time ([Dynamic]) and by [Container],
// which broadcasts to its descendants.
type SessionDataReceiver interface {
	// SetSessionData merges the given key/value mapping into the
	// installed session data. Existing keys not present in data are
	// kept. The mapping is consulted on every Render and discarded by
	// Reset.
	SetSessionData(data map[string][]byte)
}

// fieldMeta carries the static identity every field kind shares.
type fieldMeta struct {
	name      string
	fuzzable  bool
	identity  uint64
	enclosing *Container
}

func (m *fieldMeta) Name() string { return m.name }

func (m *fieldMeta) Fuzzable() bool { return m.fuzzable }

func (m *fieldMeta) IdentityHash() uint64 { return m.identity }

func (m *fieldMeta) setEnclosing(c *Container) { m.enclosing = c }

func (m *fieldMeta) enclosingContainer() *Container { return m.enclosing }

// mutationSeq is the per-leaf deterministic mutation cursor.
//
// cursor is -1 while the field renders its default, and indexes the
// current mutation afterwards. Once the final mutation has been
// consumed, done latches Mutate to false until Reset.
type mutationSeq struct {
	count  int
	cursor int
	done   bool
}

func newMutationSeq(count int) mutationSeq {
	return mutationSeq{count: count, cursor: -1}
}

func (s *mutationSeq) NumMutations() int { return s.count }

func (s *mutationSeq) Mutate() bool {
	if s.done || s.cursor+1 >= s.count {
		s.done = true

		return false
	}

	s.cursor++

	return true
}

func (s *mutationSeq) Reset() {
	s.cursor = -1
	s.done = false
}

func (s *mutationSeq) Skip(n int) int {
	if n <= 0 || s.done {
		return 0
	}

	remaining := s.count - (s.cursor + 1)
	if n < remaining {
		remaining = n
	}

	s.cursor += remaining

	return remaining
}

// leafRenderedFields implements the rendered-fields rule for leaves:
// a leaf is part of its parent's accounting exactly when its current
// render is non-empty. Render failures count as empty.
func leafRenderedFields(f Field) []Field {
	r, err := f.Render()
	if err != nil || r.Len() == 0 {
		return nil
	}

	return []Field{f}
}

// rootOf walks the enclosing chain up to the template root.
func rootOf(f Field) Field {
	for f.enclosingContainer() != nil {
		f = f.enclosingContainer()
	}

	return f
}

// findByName searches f's subtree depth-first for a field named name,
// ignoring skip (a calculated field never resolves to itself).
func findByName(f Field, name string, skip Field) Field {
	if f != skip && f.Name() == name {
		return f
	}

	c, ok := f.(*Container)
	if !ok {
		return nil
	}

	for _, child := range c.children {
		if found := findByName(child, name, skip); found != nil {
			return found
		}
	}

	return nil
}
