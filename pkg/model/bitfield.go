package model

import (
	"fmt"
	"math/big"

	"github.com/proteus-fuzz/proteus/pkg/bits"
)

// BitField is a fixed-width two's-complement integer leaf. The width
// is an arbitrary positive number of bits; it does not have to be
// byte aligned.
//
// Its mutation domain is a deterministic catalogue of interesting
// values for the configured width and signedness (boundaries, range
// extremes, power-of-two neighborhoods, alternating bit patterns),
// filtered to the inclusive [MinValue, MaxValue] bounds when given.
type BitField struct {
	fieldMeta
	mutationSeq

	length    int
	signed    bool
	def       bits.Bits
	mutations []bits.Bits
}

// BitFieldOptions configure [NewBitField].
type BitFieldOptions struct {
	// Value is the default value rendered before the first Mutate and
	// after Reset. It must be representable in Length bits with the
	// configured signedness and must satisfy the bounds when given.
	Value int64

	// Length is the width in bits. Must be > 0.
	Length int

	// Signed selects two's-complement interpretation.
	Signed bool

	// MinValue / MaxValue are optional inclusive bounds on every
	// mutation. They must themselves be representable in Length bits.
	MinValue *int64
	MaxValue *int64

	// Name is the resolution name; "" means unnamed.
	Name string

	// Fuzzable enables the mutation domain. A non-fuzzable field has
	// zero mutations and always renders Value.
	Fuzzable bool
}

// NewBitField returns a BitField validated per the options.
// Invalid static parameters return [ErrConfiguration].
func NewBitField(opts BitFieldOptions) (*BitField, error) {
	return newBitField(big.NewInt(opts.Value), opts)
}

func newBitField(value *big.Int, opts BitFieldOptions) (*BitField, error) {
	if opts.Length <= 0 {
		return nil, fmt.Errorf("bit field %q: length must be > 0, got %d: %w", opts.Name, opts.Length, ErrConfiguration)
	}

	lo, hi := representableRange(opts.Length, opts.Signed)

	// User bounds narrow the representable range and must fit it.
	if opts.MinValue != nil {
		m := big.NewInt(*opts.MinValue)
		if m.Cmp(lo) < 0 || m.Cmp(hi) > 0 {
			return nil, fmt.Errorf("bit field %q: min value %d not representable in %d bits: %w",
				opts.Name, *opts.MinValue, opts.Length, ErrConfiguration)
		}

		lo = m
	}

	if opts.MaxValue != nil {
		m := big.NewInt(*opts.MaxValue)
		if m.Cmp(representableMax(opts.Length, opts.Signed)) > 0 || m.Cmp(representableMin(opts.Length, opts.Signed)) < 0 {
			return nil, fmt.Errorf("bit field %q: max value %d not representable in %d bits: %w",
				opts.Name, *opts.MaxValue, opts.Length, ErrConfiguration)
		}

		hi = m
	}

	if lo.Cmp(hi) > 0 {
		return nil, fmt.Errorf("bit field %q: min value %s > max value %s: %w", opts.Name, lo, hi, ErrConfiguration)
	}

	if value.Cmp(lo) < 0 || value.Cmp(hi) > 0 {
		return nil, fmt.Errorf("bit field %q: value %s outside [%s, %s]: %w",
			opts.Name, value, lo, hi, ErrConfiguration)
	}

	def, err := bits.FromBig(value, opts.Length)
	if err != nil {
		return nil, fmt.Errorf("bit field %q: %v: %w", opts.Name, err, ErrConfiguration)
	}

	f := &BitField{
		length: opts.Length,
		signed: opts.Signed,
		def:    def,
	}
	f.name = opts.Name
	f.fuzzable = opts.Fuzzable

	if opts.Fuzzable {
		for _, v := range interestingValues(value, lo, hi, opts.Length, opts.Signed) {
			enc, encErr := bits.FromBig(v, opts.Length)
			if encErr != nil {
				return nil, fmt.Errorf("bit field %q: %v: %w", opts.Name, encErr, ErrConfiguration)
			}

			f.mutations = append(f.mutations, enc)
		}
	}

	f.mutationSeq = newMutationSeq(len(f.mutations))

	id := newIdentity("bitfield")
	id.str(opts.Name)
	id.bool(opts.Fuzzable)
	id.int(int64(opts.Length))
	id.bool(opts.Signed)
	id.optInt(opts.MinValue)
	id.optInt(opts.MaxValue)
	id.str(value.String())
	f.identity = id.finish()

	return f, nil
}

// Render yields exactly Length bits: the default value, or the current
// mutation after a successful Mutate.
func (f *BitField) Render() (bits.Bits, error) {
	if f.cursor < 0 {
		return f.def, nil
	}

	return f.mutations[f.cursor], nil
}

func (f *BitField) RenderedFields() []Field {
	return leafRenderedFields(f)
}

// representableRange returns the inclusive value range of a width.
func representableRange(length int, signed bool) (*big.Int, *big.Int) {
	return representableMin(length, signed), representableMax(length, signed)
}

func representableMin(length int, signed bool) *big.Int {
	if !signed {
		return big.NewInt(0)
	}

	// -2^(L-1)
	m := new(big.Int).Lsh(big.NewInt(1), uint(length-1))

	return m.Neg(m)
}

func representableMax(length int, signed bool) *big.Int {
	if signed {
		// 2^(L-1) - 1
		m := new(big.Int).Lsh(big.NewInt(1), uint(length-1))

		return m.Sub(m, big.NewInt(1))
	}

	// 2^L - 1
	m := new(big.Int).Lsh(big.NewInt(1), uint(length))

	return m.Sub(m, big.NewInt(1))
}

// interestingValues builds the ordered mutation catalogue for a width:
// small constants, range extremes and neighbors, the range midpoint,
// neighbors of the default, power-of-two neighborhoods per bit
// position, and alternating bit patterns. The result is filtered to
// [lo, hi] and deduplicated preserving first occurrence, so the
// catalogue is pairwise distinct and every entry respects the bounds.
func interestingValues(def, lo, hi *big.Int, length int, signed bool) []*big.Int {
	one := big.NewInt(1)

	var cands []*big.Int

	add := func(v *big.Int) { cands = append(cands, v) }

	add(big.NewInt(0))
	add(big.NewInt(1))

	if signed {
		add(big.NewInt(-1))
	}

	add(new(big.Int).Set(lo))
	add(new(big.Int).Add(lo, one))
	add(new(big.Int).Set(hi))
	add(new(big.Int).Sub(hi, one))

	mid := new(big.Int).Add(lo, hi)
	mid.Rsh(mid, 1)
	add(mid)
	add(new(big.Int).Add(mid, one))

	add(new(big.Int).Sub(def, one))
	add(new(big.Int).Add(def, one))

	for b := 1; b < length; b++ {
		p := new(big.Int).Lsh(one, uint(b))

		add(new(big.Int).Sub(p, one))
		add(new(big.Int).Set(p))
		add(new(big.Int).Add(p, one))

		if signed {
			n := new(big.Int).Neg(p)

			add(new(big.Int).Set(n))
			add(new(big.Int).Add(n, one))
		}
	}

	// Alternating patterns 1010... and 0101... over the full width.
	alt := new(big.Int)
	for b := length - 1; b >= 0; b -= 2 {
		alt.SetBit(alt, b, 1)
	}

	add(new(big.Int).Set(alt))
	add(new(big.Int).Rsh(alt, 1))

	out := make([]*big.Int, 0, len(cands))
	seen := make(map[string]struct{}, len(cands))

	for _, v := range cands {
		if v.Cmp(lo) < 0 || v.Cmp(hi) > 0 {
			continue
		}

		key := v.String()
		if _, dup := seen[key]; dup {
			continue
		}

		seen[key] = struct{}{}
		out = append(out, v)
	}

	return out
}
