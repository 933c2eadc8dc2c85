// Package bits provides an immutable, bit-precise binary string.
//
// A [Bits] value holds an arbitrary number of bits in MSB-first order:
// bit 0 is the most significant bit of byte 0. Values whose length is
// not a multiple of 8 keep the unused low bits of the final byte zero,
// which makes byte-level comparison of two Bits values well defined.
//
// Bits values are immutable; use [Builder] to concatenate many values
// without intermediate copies.
package bits

import (
	"fmt"
	"math/big"
)

// Bits is an immutable MSB-first bit string.
//
// The zero value is the empty bit string.
type Bits struct {
	data []byte
	n    int
}

// FromBytes returns a Bits of length len(b)*8 holding a copy of b.
func FromBytes(b []byte) Bits {
	if len(b) == 0 {
		return Bits{}
	}

	data := make([]byte, len(b))
	copy(data, b)

	return Bits{data: data, n: len(b) * 8}
}

// FromBig encodes v as a two's-complement bit string of exactly width
// bits. Values outside the representable range wrap modulo 2^width.
//
// Returns an error if width is not positive.
func FromBig(v *big.Int, width int) (Bits, error) {
	if width <= 0 {
		return Bits{}, fmt.Errorf("bits: width must be > 0, got %d", width)
	}

	mod := new(big.Int).Lsh(big.NewInt(1), uint(width))

	u := new(big.Int).Mod(v, mod)
	if u.Sign() < 0 {
		u.Add(u, mod)
	}

	nbytes := (width + 7) / 8
	buf := make([]byte, nbytes)
	u.FillBytes(buf)

	// FillBytes right-aligns the value; shift left so the first value
	// bit lands on the MSB of byte 0.
	if pad := nbytes*8 - width; pad != 0 {
		shiftLeft(buf, pad)
	}

	return Bits{data: buf, n: width}, nil
}

// FromUint encodes v as an unsigned big-endian bit string of exactly
// width bits (1 <= width <= 64). Values wrap modulo 2^width.
func FromUint(v uint64, width int) (Bits, error) {
	if width <= 0 || width > 64 {
		return Bits{}, fmt.Errorf("bits: uint width must be in [1,64], got %d", width)
	}

	return FromBig(new(big.Int).SetUint64(v), width)
}

// Len returns the length in bits.
func (b Bits) Len() int {
	return b.n
}

// ByteLen returns the number of bytes needed to hold the bit string,
// i.e. ceil(Len()/8).
func (b Bits) ByteLen() int {
	return (b.n + 7) / 8
}

// Bytes returns a copy of the underlying bytes. When Len() is not a
// multiple of 8 the low bits of the final byte are zero.
func (b Bits) Bytes() []byte {
	out := make([]byte, b.ByteLen())
	copy(out, b.data)

	return out
}

// Truncate returns the first n bits of b.
// It panics if n is negative or greater than Len().
func (b Bits) Truncate(n int) Bits {
	if n < 0 || n > b.n {
		panic(fmt.Sprintf("bits: truncate %d out of range [0,%d]", n, b.n))
	}

	if n == 0 {
		return Bits{}
	}

	nbytes := (n + 7) / 8
	data := make([]byte, nbytes)
	copy(data, b.data[:nbytes])

	if rem := n & 7; rem != 0 {
		data[nbytes-1] &= byte(0xff << (8 - rem))
	}

	return Bits{data: data, n: n}
}

// Equal reports whether b and o have the same length and content.
func (b Bits) Equal(o Bits) bool {
	if b.n != o.n {
		return false
	}

	for i := range b.data {
		if b.data[i] != o.data[i] {
			return false
		}
	}

	return true
}

// Uint decodes the bit string as an unsigned big-endian integer.
// Returns an error if Len() exceeds 64.
func (b Bits) Uint() (uint64, error) {
	if b.n > 64 {
		return 0, fmt.Errorf("bits: length %d exceeds 64, use Big", b.n)
	}

	var v uint64
	for _, by := range b.data {
		v = v<<8 | uint64(by)
	}

	if pad := b.ByteLen()*8 - b.n; pad != 0 {
		v >>= uint(pad)
	}

	return v, nil
}

// Int decodes the bit string as a two's-complement signed integer.
// Returns an error if Len() exceeds 64.
func (b Bits) Int() (int64, error) {
	u, err := b.Uint()
	if err != nil {
		return 0, err
	}

	if b.n == 0 {
		return 0, nil
	}

	if b.n < 64 && u&(1<<uint(b.n-1)) != 0 {
		return int64(u) - int64(1)<<uint(b.n), nil
	}

	return int64(u), nil
}

// Big decodes the bit string as an unsigned big integer.
func (b Bits) Big() *big.Int {
	v := new(big.Int).SetBytes(b.data)

	if pad := b.ByteLen()*8 - b.n; pad != 0 {
		v.Rsh(v, uint(pad))
	}

	return v
}

// SignedBig decodes the bit string as a two's-complement signed big
// integer.
func (b Bits) SignedBig() *big.Int {
	v := b.Big()

	if b.n == 0 {
		return v
	}

	half := new(big.Int).Lsh(big.NewInt(1), uint(b.n-1))
	if v.Cmp(half) >= 0 {
		v.Sub(v, new(big.Int).Lsh(half, 1))
	}

	return v
}

// String returns a debug representation: "<n bits: hex>".
func (b Bits) String() string {
	return fmt.Sprintf("<%d bits: %x>", b.n, b.data)
}

// shiftLeft shifts buf left in place by k bits (0 <= k < 8).
func shiftLeft(buf []byte, k int) {
	if k == 0 {
		return
	}

	for i := range buf {
		buf[i] <<= uint(k)
		if i+1 < len(buf) {
			buf[i] |= buf[i+1] >> uint(8-k)
		}
	}
}
