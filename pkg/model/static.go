package model

import "github.com/proteus-fuzz/proteus/pkg/bits"

// Static is an immutable constant leaf. It contributes zero mutations
// unconditionally and always renders its construction value.
type Static struct {
	fieldMeta
	mutationSeq

	def bits.Bits
}

// StaticOptions configure [NewStatic].
type StaticOptions struct {
	// Name is the resolution name; "" means unnamed.
	Name string
}

// NewStatic returns a constant leaf rendering value.
func NewStatic(value []byte, opts StaticOptions) *Static {
	f := &Static{def: bits.FromBytes(value)}
	f.name = opts.Name
	f.mutationSeq = newMutationSeq(0)

	id := newIdentity("static")
	id.str(opts.Name)
	id.bytes(value)
	f.identity = id.finish()

	return f
}

func (f *Static) Render() (bits.Bits, error) {
	return f.def, nil
}

func (f *Static) RenderedFields() []Field {
	return leafRenderedFields(f)
}
