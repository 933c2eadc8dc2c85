package model

import (
	"fmt"

	"github.com/proteus-fuzz/proteus/pkg/bits"
)

// Dynamic is a session-aware leaf. It renders its default value until
// session data containing its key is installed via [Dynamic.SetSessionData]
// (or broadcast through [Container.SetSessionData]); from then on the
// installed value is rendered instead.
//
// The session lookup happens on every Render, so replacing the session
// data between renders changes the output immediately, without a
// mutation step. An installed value for the matching key also takes
// precedence over the currently mutated value.
//
// Reset discards the installed session data entirely and reverts to
// the default value.
type Dynamic struct {
	fieldMeta
	mutationSeq

	key       string
	def       bits.Bits
	mutations []bits.Bits
	session   map[string][]byte
}

// DynamicOptions configure [NewDynamic].
type DynamicOptions struct {
	// Name is the resolution name; "" means unnamed.
	Name string

	// Fuzzable enables the mutation domain, which perturbs the default
	// value byte-wise. Orthogonal to session overriding.
	Fuzzable bool

	// Length is the number of leading default-value bytes the mutation
	// catalogue perturbs. 0 means the whole default value.
	Length int
}

// NewDynamic returns a Dynamic leaf looking up key in the installed
// session data and falling back to defaultValue.
func NewDynamic(key string, defaultValue []byte, opts DynamicOptions) (*Dynamic, error) {
	if key == "" {
		return nil, fmt.Errorf("dynamic %q: key must not be empty: %w", opts.Name, ErrConfiguration)
	}

	if opts.Length < 0 {
		return nil, fmt.Errorf("dynamic %q: length must be >= 0, got %d: %w", opts.Name, opts.Length, ErrConfiguration)
	}

	span := len(defaultValue)
	if opts.Length > 0 && opts.Length < span {
		span = opts.Length
	}

	f := &Dynamic{
		key: key,
		def: bits.FromBytes(defaultValue),
	}
	f.name = opts.Name
	f.fuzzable = opts.Fuzzable

	if opts.Fuzzable {
		f.mutations = dynamicCatalogue(defaultValue, span)
	}

	f.mutationSeq = newMutationSeq(len(f.mutations))

	id := newIdentity("dynamic")
	id.str(opts.Name)
	id.bool(opts.Fuzzable)
	id.str(key)
	id.int(int64(opts.Length))
	id.bytes(defaultValue)
	f.identity = id.finish()

	return f, nil
}

// dynamicCatalogue derives byte-wise perturbations of the default
// value: per position a bit-flipped, a zeroed and a saturated variant.
// Duplicates (including entries equal to other perturbations) are
// removed preserving order.
func dynamicCatalogue(def []byte, span int) []bits.Bits {
	var out []bits.Bits

	seen := make(map[string]struct{})

	add := func(b []byte) {
		if _, dup := seen[string(b)]; dup {
			return
		}

		seen[string(b)] = struct{}{}
		out = append(out, bits.FromBytes(b))
	}

	variant := func(i int, replace byte) []byte {
		b := make([]byte, len(def))
		copy(b, def)
		b[i] = replace

		return b
	}

	for i := range span {
		add(variant(i, def[i]^0xff))
		add(variant(i, 0x00))
		add(variant(i, 0xff))
	}

	return out
}

// SetSessionData merges data into the installed session mapping. Keys
// already installed but absent from data keep their previous values.
func (f *Dynamic) SetSessionData(data map[string][]byte) {
	if f.session == nil {
		f.session = make(map[string][]byte, len(data))
	}

	for k, v := range data {
		f.session[k] = append([]byte(nil), v...)
	}
}

// Render returns, in order of precedence: the installed session value
// for the field's key, the current mutation, the default value.
func (f *Dynamic) Render() (bits.Bits, error) {
	if v, ok := f.session[f.key]; ok {
		return bits.FromBytes(v), nil
	}

	if f.cursor >= 0 {
		return f.mutations[f.cursor], nil
	}

	return f.def, nil
}

// Reset rewinds the mutation cursor and discards the installed
// session data; the next render yields the default value.
func (f *Dynamic) Reset() {
	f.mutationSeq.Reset()
	f.session = nil
}

func (f *Dynamic) RenderedFields() []Field {
	return leafRenderedFields(f)
}
