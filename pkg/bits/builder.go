package bits

// Builder accumulates bit strings without intermediate allocations per
// append. The zero value is ready to use.
//
// Builder is not safe for concurrent use.
type Builder struct {
	data []byte
	n    int
}

// Append adds b to the end of the builder.
func (w *Builder) Append(b Bits) {
	if b.n == 0 {
		return
	}

	total := w.n + b.n

	need := (total + 7) / 8
	for len(w.data) < need {
		w.data = append(w.data, 0)
	}

	off := w.n & 7
	if off == 0 {
		copy(w.data[w.n/8:], b.data)
	} else {
		di := w.n / 8
		for si, sb := range b.data {
			w.data[di+si] |= sb >> uint(off)
			if di+si+1 < len(w.data) {
				w.data[di+si+1] |= sb << uint(8-off)
			}
		}
	}

	w.n = total

	// Keep the invariant that bits past the end are zero.
	if rem := w.n & 7; rem != 0 {
		w.data[need-1] &= byte(0xff << (8 - rem))
	}
}

// Len returns the number of bits appended so far.
func (w *Builder) Len() int {
	return w.n
}

// Bits returns the accumulated bit string. The builder remains usable
// and further appends do not affect the returned value.
func (w *Builder) Bits() Bits {
	if w.n == 0 {
		return Bits{}
	}

	out := make([]byte, (w.n+7)/8)
	copy(out, w.data)

	return Bits{data: out, n: w.n}
}

// Reset empties the builder for reuse.
func (w *Builder) Reset() {
	w.data = w.data[:0]
	w.n = 0
}
