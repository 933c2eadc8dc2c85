package model

import "math/big"

// IntOptions configure the byte-aligned integer constructors. They are
// the subset of [BitFieldOptions] that is not implied by the alias.
type IntOptions struct {
	Name     string
	Fuzzable bool
	MinValue *int64
	MaxValue *int64
}

func alignedOptions(length int, signed bool, opts IntOptions) BitFieldOptions {
	return BitFieldOptions{
		Length:   length,
		Signed:   signed,
		MinValue: opts.MinValue,
		MaxValue: opts.MaxValue,
		Name:     opts.Name,
		Fuzzable: opts.Fuzzable,
	}
}

// NewUInt8 returns an unsigned 8-bit [BitField].
func NewUInt8(value uint8, opts IntOptions) (*BitField, error) {
	return newBitField(new(big.Int).SetUint64(uint64(value)), alignedOptions(8, false, opts))
}

// NewUInt16 returns an unsigned 16-bit [BitField].
func NewUInt16(value uint16, opts IntOptions) (*BitField, error) {
	return newBitField(new(big.Int).SetUint64(uint64(value)), alignedOptions(16, false, opts))
}

// NewUInt32 returns an unsigned 32-bit [BitField].
func NewUInt32(value uint32, opts IntOptions) (*BitField, error) {
	return newBitField(new(big.Int).SetUint64(uint64(value)), alignedOptions(32, false, opts))
}

// NewUInt64 returns an unsigned 64-bit [BitField].
func NewUInt64(value uint64, opts IntOptions) (*BitField, error) {
	return newBitField(new(big.Int).SetUint64(value), alignedOptions(64, false, opts))
}

// NewSInt8 returns a signed 8-bit [BitField].
func NewSInt8(value int8, opts IntOptions) (*BitField, error) {
	return newBitField(big.NewInt(int64(value)), alignedOptions(8, true, opts))
}

// NewSInt16 returns a signed 16-bit [BitField].
func NewSInt16(value int16, opts IntOptions) (*BitField, error) {
	return newBitField(big.NewInt(int64(value)), alignedOptions(16, true, opts))
}

// NewSInt32 returns a signed 32-bit [BitField].
func NewSInt32(value int32, opts IntOptions) (*BitField, error) {
	return newBitField(big.NewInt(int64(value)), alignedOptions(32, true, opts))
}

// NewSInt64 returns a signed 64-bit [BitField].
func NewSInt64(value int64, opts IntOptions) (*BitField, error) {
	return newBitField(big.NewInt(value), alignedOptions(64, true, opts))
}
