package model

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"math/big"

	"github.com/proteus-fuzz/proteus/pkg/bits"
)

// calcBase is the shared core of the calculated field family: a leaf
// holding a target name instead of an intrinsic value.
//
// The target is resolved afresh on every render by walking the tree
// depth-first from the template root, because the target may be
// replaced or reordered between renders. Resolution failure is
// [ErrResolution] at render time, never at construction.
//
// A calculated field must not target one of its own ancestors: the
// ancestor's render includes the calculated field, so such a template
// recurses without terminating.
type calcBase struct {
	fieldMeta
	mutationSeq

	target string
}

func newCalcBase(kind, target string, name string, fuzzable bool) (calcBase, error) {
	if target == "" {
		return calcBase{}, fmt.Errorf("%s %q: target name must not be empty: %w", kind, name, ErrConfiguration)
	}

	c := calcBase{target: target}
	c.name = name
	c.fuzzable = fuzzable

	return c, nil
}

// resolve finds the target field, skipping self so a calculated field
// can never resolve to itself.
func (c *calcBase) resolve(self Field) (Field, error) {
	if found := findByName(rootOf(self), c.target, self); found != nil {
		return found, nil
	}

	return nil, fmt.Errorf("target %q not found in tree: %w", c.target, ErrResolution)
}

func (c *calcBase) renderTarget(self Field) (bits.Bits, error) {
	t, err := c.resolve(self)
	if err != nil {
		return bits.Bits{}, err
	}

	return t.Render()
}

func (c *calcBase) calcIdentity(kind string, extra func(*identity)) uint64 {
	id := newIdentity(kind)
	id.str(c.name)
	id.bool(c.fuzzable)
	id.str(c.target)

	if extra != nil {
		extra(id)
	}

	return id.finish()
}

// CalcOptions configure the calculated fields that have no intrinsic
// width ([NewClone], [NewHash]).
type CalcOptions struct {
	// Name is the resolution name; "" means unnamed.
	Name string

	// Fuzzable marks the field fuzzable. Calculated fields default to
	// non-fuzzable; Clone and Hash contribute no mutations of their
	// own even when marked.
	Fuzzable bool
}

// intCalc extends calcBase with a fixed-width integer rendering of a
// derived value. When fuzzable, the mutation domain is the interesting
// value catalogue of the configured width, overriding the computed
// value.
type intCalc struct {
	calcBase

	length    int
	mutations []bits.Bits
}

func newIntCalc(kind, target string, length int, name string, fuzzable bool) (intCalc, error) {
	base, err := newCalcBase(kind, target, name, fuzzable)
	if err != nil {
		return intCalc{}, err
	}

	if length <= 0 {
		return intCalc{}, fmt.Errorf("%s %q: length must be > 0, got %d: %w", kind, name, length, ErrConfiguration)
	}

	c := intCalc{calcBase: base, length: length}

	if fuzzable {
		lo, hi := representableRange(length, false)
		for _, v := range interestingValues(big.NewInt(0), lo, hi, length, false) {
			enc, encErr := bits.FromBig(v, length)
			if encErr != nil {
				return intCalc{}, fmt.Errorf("%s %q: %v: %w", kind, name, encErr, ErrConfiguration)
			}

			c.mutations = append(c.mutations, enc)
		}
	}

	c.mutationSeq = newMutationSeq(len(c.mutations))

	return c, nil
}

// renderValue encodes v in the configured width, wrapping modulo 2^L,
// unless a mutation currently overrides the computed value.
func (c *intCalc) renderValue(v int64) (bits.Bits, error) {
	if c.cursor >= 0 {
		return c.mutations[c.cursor], nil
	}

	return bits.FromBig(big.NewInt(v), c.length)
}

func (c *intCalc) intIdentity(kind string) uint64 {
	return c.calcIdentity(kind, func(id *identity) {
		id.int(int64(c.length))
	})
}

// Clone renders an exact copy of its target's current render.
type Clone struct {
	calcBase
}

// NewClone returns a Clone of target.
func NewClone(target string, opts CalcOptions) (*Clone, error) {
	base, err := newCalcBase("clone", target, opts.Name, opts.Fuzzable)
	if err != nil {
		return nil, err
	}

	f := &Clone{calcBase: base}
	f.mutationSeq = newMutationSeq(0)
	f.identity = f.calcIdentity("clone", nil)

	return f, nil
}

func (f *Clone) Render() (bits.Bits, error) {
	return f.renderTarget(f)
}

func (f *Clone) RenderedFields() []Field {
	return leafRenderedFields(f)
}

// SizeOptions configure [NewSize].
type SizeOptions struct {
	Name     string
	Fuzzable bool

	// Length is the width in bits of the rendered size. Must be > 0.
	Length int

	// Transform, when set, maps the target's rendered bits to the
	// reported value. The default reports the render's bit length.
	Transform func(bits.Bits) int64
}

// Size renders a fixed-width integer derived from the length of its
// target's current render.
type Size struct {
	intCalc

	transform func(bits.Bits) int64
}

// NewSize returns a Size of target.
func NewSize(target string, opts SizeOptions) (*Size, error) {
	c, err := newIntCalc("size", target, opts.Length, opts.Name, opts.Fuzzable)
	if err != nil {
		return nil, err
	}

	f := &Size{intCalc: c, transform: opts.Transform}
	f.identity = f.calcIdentity("size", func(id *identity) {
		id.int(int64(opts.Length))
		id.bool(opts.Transform != nil)
	})

	return f, nil
}

func (f *Size) Render() (bits.Bits, error) {
	r, err := f.renderTarget(f)
	if err != nil {
		return bits.Bits{}, err
	}

	v := int64(r.Len())
	if f.transform != nil {
		v = f.transform(r)
	}

	return f.renderValue(v)
}

func (f *Size) RenderedFields() []Field {
	return leafRenderedFields(f)
}

// SizeInBytesOptions configure [NewSizeInBytes].
type SizeInBytesOptions struct {
	Name     string
	Fuzzable bool

	// Length is the width in bits of the rendered size. Must be > 0.
	Length int
}

// SizeInBytes renders a fixed-width integer holding the byte length of
// its target's current render. Unlike [Size] it has no transform hook.
type SizeInBytes struct {
	intCalc
}

// NewSizeInBytes returns a SizeInBytes of target.
func NewSizeInBytes(target string, opts SizeInBytesOptions) (*SizeInBytes, error) {
	c, err := newIntCalc("sizeinbytes", target, opts.Length, opts.Name, opts.Fuzzable)
	if err != nil {
		return nil, err
	}

	f := &SizeInBytes{intCalc: c}
	f.identity = f.intIdentity("sizeinbytes")

	return f, nil
}

func (f *SizeInBytes) Render() (bits.Bits, error) {
	r, err := f.renderTarget(f)
	if err != nil {
		return bits.Bits{}, err
	}

	return f.renderValue(int64(r.ByteLen()))
}

func (f *SizeInBytes) RenderedFields() []Field {
	return leafRenderedFields(f)
}

// ElementCountOptions configure [NewElementCount].
type ElementCountOptions struct {
	Name     string
	Fuzzable bool

	// Length is the width in bits of the rendered count. Must be > 0.
	Length int
}

// ElementCount renders a fixed-width integer holding the length of its
// target's own rendered-fields list: the count of the target's
// immediate rendered children, where a nested container counts as one
// unit regardless of its internal breakdown.
type ElementCount struct {
	intCalc
}

// NewElementCount returns an ElementCount of target.
func NewElementCount(target string, opts ElementCountOptions) (*ElementCount, error) {
	c, err := newIntCalc("elementcount", target, opts.Length, opts.Name, opts.Fuzzable)
	if err != nil {
		return nil, err
	}

	f := &ElementCount{intCalc: c}
	f.identity = f.intIdentity("elementcount")

	return f, nil
}

func (f *ElementCount) Render() (bits.Bits, error) {
	t, err := f.resolve(f)
	if err != nil {
		return bits.Bits{}, err
	}

	return f.renderValue(int64(len(t.RenderedFields())))
}

func (f *ElementCount) RenderedFields() []Field {
	return leafRenderedFields(f)
}

// IndexOfOptions configure [NewIndexOf].
type IndexOfOptions struct {
	Name     string
	Fuzzable bool

	// Length is the width in bits of the rendered index. Must be > 0.
	Length int
}

// IndexOf renders a fixed-width integer holding the position of its
// target within the rendered-fields list of the target's own enclosing
// container. A target absent from that list (it rendered to zero
// length) yields the list's length: the would-be append position.
type IndexOf struct {
	intCalc
}

// NewIndexOf returns an IndexOf of target.
func NewIndexOf(target string, opts IndexOfOptions) (*IndexOf, error) {
	c, err := newIntCalc("indexof", target, opts.Length, opts.Name, opts.Fuzzable)
	if err != nil {
		return nil, err
	}

	f := &IndexOf{intCalc: c}
	f.identity = f.intIdentity("indexof")

	return f, nil
}

func (f *IndexOf) Render() (bits.Bits, error) {
	t, err := f.resolve(f)
	if err != nil {
		return bits.Bits{}, err
	}

	enclosing := t.enclosingContainer()
	if enclosing == nil {
		return f.renderValue(0)
	}

	rendered := enclosing.RenderedFields()
	for i, rf := range rendered {
		if rf == t {
			return f.renderValue(int64(i))
		}
	}

	return f.renderValue(int64(len(rendered)))
}

func (f *IndexOf) RenderedFields() []Field {
	return leafRenderedFields(f)
}

// HashAlgorithm names a digest supported by [NewHash].
type HashAlgorithm int

// Supported digest algorithms. Digest lengths are algorithm-fixed.
const (
	Md5 HashAlgorithm = iota
	Sha1
	Sha224
	Sha256
	Sha384
	Sha512
)

func (a HashAlgorithm) String() string {
	switch a {
	case Md5:
		return "md5"
	case Sha1:
		return "sha1"
	case Sha224:
		return "sha224"
	case Sha256:
		return "sha256"
	case Sha384:
		return "sha384"
	case Sha512:
		return "sha512"
	default:
		return fmt.Sprintf("hash(%d)", int(a))
	}
}

func (a HashAlgorithm) newHasher() (hash.Hash, error) {
	switch a {
	case Md5:
		return md5.New(), nil
	case Sha1:
		return sha1.New(), nil
	case Sha224:
		return sha256.New224(), nil
	case Sha256:
		return sha256.New(), nil
	case Sha384:
		return sha512.New384(), nil
	case Sha512:
		return sha512.New(), nil
	default:
		return nil, fmt.Errorf("unknown hash algorithm %d: %w", int(a), ErrConfiguration)
	}
}

// Hash renders the cryptographic digest of its target's current
// rendered bytes.
type Hash struct {
	calcBase

	alg HashAlgorithm
}

// NewHash returns a Hash of target using the given algorithm.
func NewHash(target string, alg HashAlgorithm, opts CalcOptions) (*Hash, error) {
	if _, err := alg.newHasher(); err != nil {
		return nil, fmt.Errorf("hash %q: %w", opts.Name, err)
	}

	base, err := newCalcBase("hash", target, opts.Name, opts.Fuzzable)
	if err != nil {
		return nil, err
	}

	f := &Hash{calcBase: base, alg: alg}
	f.mutationSeq = newMutationSeq(0)
	f.identity = f.calcIdentity("hash", func(id *identity) {
		id.str(alg.String())
	})

	return f, nil
}

func (f *Hash) Render() (bits.Bits, error) {
	r, err := f.renderTarget(f)
	if err != nil {
		return bits.Bits{}, err
	}

	h, err := f.alg.newHasher()
	if err != nil {
		return bits.Bits{}, err
	}

	_, _ = h.Write(r.Bytes())

	return bits.FromBytes(h.Sum(nil)), nil
}

func (f *Hash) RenderedFields() []Field {
	return leafRenderedFields(f)
}
