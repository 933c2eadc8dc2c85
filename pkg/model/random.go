package model

import (
	"fmt"
	"math/rand/v2"

	"github.com/proteus-fuzz/proteus/pkg/bits"
)

// defaultRandomMutations is the mutation budget of an unstepped random
// span when the caller does not request an explicit count.
const defaultRandomMutations = 25

// randomSpan is the shared engine behind [RandomBits] and
// [RandomBytes]: a leaf whose mutations are pseudo-random spans with
// lengths inside a configured range. The whole sequence is derived
// from the seed at construction, so two fields with identical
// parameters produce byte-identical sequences, across Reset included.
type randomSpan struct {
	fieldMeta
	mutationSeq

	def       bits.Bits
	mutations []bits.Bits
}

func (f *randomSpan) Render() (bits.Bits, error) {
	if f.cursor < 0 {
		return f.def, nil
	}

	return f.mutations[f.cursor], nil
}

// spanMutationCount validates the range parameters shared by both
// variants and returns the mutation count they imply.
func spanMutationCount(kind, name string, minLen, maxLen, step, numMutations int) (int, error) {
	fail := func(format string, args ...any) (int, error) {
		msg := fmt.Sprintf(format, args...)

		return 0, fmt.Errorf("%s %q: %s: %w", kind, name, msg, ErrConfiguration)
	}

	if minLen < 0 {
		return fail("min length must be >= 0, got %d", minLen)
	}

	if maxLen <= 0 {
		return fail("max length must be > 0, got %d", maxLen)
	}

	if minLen > maxLen {
		return fail("min length %d > max length %d", minLen, maxLen)
	}

	if step < 0 {
		return fail("step must be >= 0, got %d", step)
	}

	if numMutations < 0 {
		return fail("num mutations must be >= 0, got %d", numMutations)
	}

	if step > 0 {
		if numMutations != 0 {
			return fail("num mutations cannot be combined with step")
		}

		return (maxLen - minLen) / step, nil
	}

	if numMutations != 0 {
		return numMutations, nil
	}

	return defaultRandomMutations, nil
}

// spanMutations generates the full mutation sequence. unitBits is 1
// for the bit variant and 8 for the byte variant; lengths are counted
// in units. Stepped mode walks min, min+step, ... ; unstepped mode
// draws a length uniformly from [min, max] per mutation. Content is
// drawn from a PRNG keyed by (seed, index, attempt); the attempt
// counter retries collisions so the sequence stays pairwise distinct
// whenever the value space allows it.
func spanMutations(seed uint64, count, minLen, maxLen, step, unitBits int) []bits.Bits {
	const maxAttempts = 64

	out := make([]bits.Bits, 0, count)
	seen := make(map[string]struct{}, count)

	for i := range count {
		var candidate bits.Bits

		for attempt := range maxAttempts {
			rng := rand.New(rand.NewPCG(seed, uint64(i)<<8|uint64(attempt)))

			units := minLen
			if step > 0 {
				units = minLen + i*step
			} else if maxLen > minLen {
				units += rng.IntN(maxLen - minLen + 1)
			}

			bitLen := units * unitBits
			buf := make([]byte, (bitLen+7)/8)
			fillRandom(rng, buf)

			candidate = bits.FromBytes(buf).Truncate(bitLen)

			key := fmt.Sprintf("%d:%x", candidate.Len(), candidate.Bytes())
			if _, dup := seen[key]; !dup {
				seen[key] = struct{}{}

				break
			}
		}

		out = append(out, candidate)
	}

	return out
}

func fillRandom(rng *rand.Rand, buf []byte) {
	for i := 0; i < len(buf); i += 8 {
		v := rng.Uint64()
		for j := i; j < len(buf) && j < i+8; j++ {
			buf[j] = byte(v)
			v >>= 8
		}
	}
}

// RandomBits is a random-span leaf whose lengths are counted in bits.
type RandomBits struct {
	randomSpan
}

// RandomBitsOptions configure [NewRandomBits]. Lengths are in bits.
type RandomBitsOptions struct {
	Name     string
	Fuzzable bool

	// MinLength / MaxLength bound every mutated span, inclusive.
	MinLength int
	MaxLength int

	// Step, when > 0, selects stepped mode: lengths walk MinLength,
	// MinLength+Step, ... and the mutation count is
	// (MaxLength-MinLength)/Step. 0 selects unstepped mode.
	Step int

	// NumMutations, when > 0, is the exact unstepped mutation count.
	// Incompatible with Step. 0 selects the default budget.
	NumMutations int

	// Seed keys the pseudo-random content. Identical parameters and
	// seed reproduce the identical sequence.
	Seed uint64

	// UnusedBits trims the default render by this many trailing bits.
	// Must be in [0, 7] and smaller than the default's bit length.
	UnusedBits int
}

// NewRandomBits returns a RandomBits leaf rendering value (minus
// UnusedBits trailing bits) by default.
func NewRandomBits(value []byte, opts RandomBitsOptions) (*RandomBits, error) {
	count, err := spanMutationCount("random bits", opts.Name, opts.MinLength, opts.MaxLength, opts.Step, opts.NumMutations)
	if err != nil {
		return nil, err
	}

	if opts.UnusedBits < 0 || opts.UnusedBits > 7 {
		return nil, fmt.Errorf("random bits %q: unused bits must be in [0, 7], got %d: %w",
			opts.Name, opts.UnusedBits, ErrConfiguration)
	}

	if opts.UnusedBits > 0 && opts.UnusedBits >= len(value)*8 {
		return nil, fmt.Errorf("random bits %q: unused bits %d leave no default content: %w",
			opts.Name, opts.UnusedBits, ErrConfiguration)
	}

	f := &RandomBits{}
	f.def = bits.FromBytes(value).Truncate(len(value)*8 - opts.UnusedBits)
	f.name = opts.Name
	f.fuzzable = opts.Fuzzable

	if opts.Fuzzable {
		f.mutations = spanMutations(opts.Seed, count, opts.MinLength, opts.MaxLength, opts.Step, 1)
	}

	f.mutationSeq = newMutationSeq(len(f.mutations))

	id := newIdentity("randombits")
	id.str(opts.Name)
	id.bool(opts.Fuzzable)
	id.bytes(value)
	id.int(int64(opts.MinLength))
	id.int(int64(opts.MaxLength))
	id.int(int64(opts.Step))
	id.int(int64(opts.NumMutations))
	id.uint(opts.Seed)
	id.int(int64(opts.UnusedBits))
	f.identity = id.finish()

	return f, nil
}

func (f *RandomBits) RenderedFields() []Field {
	return leafRenderedFields(f)
}

// RandomBytes is a random-span leaf whose lengths are counted in
// bytes; every render is byte aligned.
type RandomBytes struct {
	randomSpan
}

// RandomBytesOptions configure [NewRandomBytes]. Lengths are in bytes.
// The fields mirror [RandomBitsOptions] minus UnusedBits.
type RandomBytesOptions struct {
	Name     string
	Fuzzable bool

	MinLength int
	MaxLength int

	Step         int
	NumMutations int
	Seed         uint64
}

// NewRandomBytes returns a RandomBytes leaf rendering value by
// default.
func NewRandomBytes(value []byte, opts RandomBytesOptions) (*RandomBytes, error) {
	count, err := spanMutationCount("random bytes", opts.Name, opts.MinLength, opts.MaxLength, opts.Step, opts.NumMutations)
	if err != nil {
		return nil, err
	}

	f := &RandomBytes{}
	f.def = bits.FromBytes(value)
	f.name = opts.Name
	f.fuzzable = opts.Fuzzable

	if opts.Fuzzable {
		f.mutations = spanMutations(opts.Seed, count, opts.MinLength, opts.MaxLength, opts.Step, 8)
	}

	f.mutationSeq = newMutationSeq(len(f.mutations))

	id := newIdentity("randombytes")
	id.str(opts.Name)
	id.bool(opts.Fuzzable)
	id.bytes(value)
	id.int(int64(opts.MinLength))
	id.int(int64(opts.MaxLength))
	id.int(int64(opts.Step))
	id.int(int64(opts.NumMutations))
	id.uint(opts.Seed)
	f.identity = id.finish()

	return f, nil
}

func (f *RandomBytes) RenderedFields() []Field {
	return leafRenderedFields(f)
}
