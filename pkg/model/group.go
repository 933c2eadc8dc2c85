package model

import (
	"fmt"

	"github.com/proteus-fuzz/proteus/pkg/bits"
)

// Group is an enumerated leaf over an ordered, non-empty candidate
// list. Its mutation sequence visits every candidate in list order;
// the first candidate is the default render, so the mutation count
// equals the candidate count.
type Group struct {
	fieldMeta
	mutationSeq

	values []bits.Bits
}

// GroupOptions configure [NewGroup].
type GroupOptions struct {
	Name     string
	Fuzzable bool
}

// NewGroup returns a Group over values. An empty candidate list is a
// configuration error.
func NewGroup(values [][]byte, opts GroupOptions) (*Group, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("group %q: candidate list is empty: %w", opts.Name, ErrConfiguration)
	}

	f := &Group{}
	f.name = opts.Name
	f.fuzzable = opts.Fuzzable

	for _, v := range values {
		f.values = append(f.values, bits.FromBytes(v))
	}

	count := 0
	if opts.Fuzzable {
		count = len(f.values)
	}

	f.mutationSeq = newMutationSeq(count)

	id := newIdentity("group")
	id.str(opts.Name)
	id.bool(opts.Fuzzable)
	for _, v := range values {
		id.bytes(v)
	}
	f.identity = id.finish()

	return f, nil
}

func (f *Group) Render() (bits.Bits, error) {
	if f.cursor < 0 {
		return f.values[0], nil
	}

	return f.values[f.cursor], nil
}

func (f *Group) RenderedFields() []Field {
	return leafRenderedFields(f)
}
