package model

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/proteus-fuzz/proteus/pkg/bits"
)

// StringOptions configure [NewString] and [NewDelimiter].
type StringOptions struct {
	// Name is the resolution name; "" means unnamed.
	Name string

	// Fuzzable enables the mutation domain.
	Fuzzable bool

	// MaxSize, when > 0, limits mutations to catalogue entries whose
	// rendered length is at most MaxSize bytes. Over-length entries
	// are skipped entirely, never clipped, so the mutation count
	// equals the number of surviving entries. 0 means no limit.
	MaxSize int
}

// byteSequence is the shared engine behind [String] and [Delimiter]:
// a byte-valued leaf whose mutation domain is a deterministic
// catalogue of byte-sequence variants of the default value.
type byteSequence struct {
	fieldMeta
	mutationSeq

	def       bits.Bits
	mutations []bits.Bits
}

func newByteSequence(kind string, value []byte, catalogue [][]byte, opts StringOptions) (byteSequence, error) {
	if opts.MaxSize < 0 {
		return byteSequence{}, fmt.Errorf("%s %q: max size must be >= 0, got %d: %w",
			kind, opts.Name, opts.MaxSize, ErrConfiguration)
	}

	f := byteSequence{def: bits.FromBytes(value)}
	f.name = opts.Name
	f.fuzzable = opts.Fuzzable

	if opts.Fuzzable {
		seen := make(map[string]struct{}, len(catalogue))

		for _, entry := range catalogue {
			if opts.MaxSize > 0 && len(entry) > opts.MaxSize {
				continue
			}

			key := string(entry)
			if _, dup := seen[key]; dup {
				continue
			}

			seen[key] = struct{}{}
			f.mutations = append(f.mutations, bits.FromBytes(entry))
		}
	}

	f.mutationSeq = newMutationSeq(len(f.mutations))

	id := newIdentity(kind)
	id.str(opts.Name)
	id.bool(opts.Fuzzable)
	id.int(int64(opts.MaxSize))
	id.bytes(value)
	f.identity = id.finish()

	return f, nil
}

func (f *byteSequence) Render() (bits.Bits, error) {
	if f.cursor < 0 {
		return f.def, nil
	}

	return f.mutations[f.cursor], nil
}

// String is a byte-sequence leaf seeded from a default string value.
type String struct {
	byteSequence
}

// NewString returns a String leaf. The mutation domain is a
// deterministic catalogue of string-mutation strategies derived from
// value: case variants, truncations, repeats, padding, terminator and
// format-string edge cases, and boundary-length runs.
func NewString(value string, opts StringOptions) (*String, error) {
	seq, err := newByteSequence("string", []byte(value), stringCatalogue([]byte(value)), opts)
	if err != nil {
		return nil, err
	}

	return &String{byteSequence: seq}, nil
}

func (f *String) RenderedFields() []Field {
	return leafRenderedFields(f)
}

// Delimiter specializes the byte-sequence engine for delimiter-shaped
// defaults (separators, terminators, whitespace).
type Delimiter struct {
	byteSequence
}

// NewDelimiter returns a Delimiter leaf. Its catalogue extends the
// string catalogue with delimiter-specific variants (doubling,
// surrounding whitespace, substitute separators).
func NewDelimiter(value string, opts StringOptions) (*Delimiter, error) {
	seq, err := newByteSequence("delimiter", []byte(value), delimiterCatalogue([]byte(value)), opts)
	if err != nil {
		return nil, err
	}

	return &Delimiter{byteSequence: seq}, nil
}

func (f *Delimiter) RenderedFields() []Field {
	return leafRenderedFields(f)
}

// stringCatalogue builds the ordered mutation catalogue for a default
// value. Entries may repeat or collide for degenerate defaults; the
// constructor deduplicates preserving first occurrence.
func stringCatalogue(v []byte) [][]byte {
	s := string(v)

	var out [][]byte

	add := func(b []byte) { out = append(out, b) }
	addStr := func(s string) { add([]byte(s)) }

	// Emptiness and truncations.
	addStr("")

	if len(v) > 0 {
		add(v[:1])
		add(v[:len(v)/2+len(v)%2])
	}

	// Case variants.
	addStr(strings.ToUpper(s))
	addStr(strings.ToLower(s))

	// Overlong repeats.
	add(bytes.Repeat(v, 2))
	add(bytes.Repeat(v, 10))
	add(bytes.Repeat(v, 100))

	// Terminator and separator edge cases.
	add(append(append([]byte{}, v...), 0x00))
	add(append([]byte{0x00}, v...))
	add(append(append([]byte{}, v...), '\r', '\n'))
	add(append(append([]byte{}, v...), ' '))

	// Format strings and injection shapes.
	addStr("%s%s%s%s%s")
	addStr("%n%n%n%n")
	addStr(strings.Repeat("%x", 16))
	addStr("'\"`;|&")
	addStr("../" + strings.Repeat("../", 7) + "etc/passwd")

	// Numeric look-alikes.
	addStr("0")
	addStr("-1")
	addStr("99999999999999999999")

	// Encoding edge cases.
	add([]byte{0xff, 0xfe})
	add([]byte{0xc0, 0x80})       // overlong UTF-8 NUL
	add([]byte{0xef, 0xbb, 0xbf}) // BOM

	// Boundary-length runs.
	for _, n := range []int{16, 128, 256, 1024, 4096} {
		add(bytes.Repeat([]byte{'A'}, n))
	}

	add(bytes.Repeat([]byte{0x00}, 32))
	add(bytes.Repeat([]byte{0xff}, 32))

	return out
}

// delimiterCatalogue extends the string catalogue with delimiter
// variants.
func delimiterCatalogue(v []byte) [][]byte {
	out := stringCatalogue(v)

	add := func(b []byte) { out = append(out, b) }

	add(bytes.Repeat(v, 3))
	add(append(append([]byte{' '}, v...), ' '))
	add([]byte(" "))
	add([]byte("\t"))
	add([]byte("\r\n"))
	add([]byte("\t\r\n "))

	return out
}
