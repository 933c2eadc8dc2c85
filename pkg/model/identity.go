package model

import (
	"encoding/binary"
	"hash/fnv"
)

// identity computes structural FNV-1a 64 fingerprints over a field's
// static configuration. Every component is length-prefixed so that
// adjacent values cannot alias ("ab","c" vs "a","bc").
type identity struct {
	h []byte
}

func newIdentity(kind string) *identity {
	id := &identity{}
	id.str(kind)

	return id
}

func (id *identity) raw(b []byte) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(b)))
	id.h = append(id.h, n[:]...)
	id.h = append(id.h, b...)
}

func (id *identity) str(s string) { id.raw([]byte(s)) }

func (id *identity) bytes(b []byte) { id.raw(b) }

func (id *identity) int(v int64) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(v))
	id.raw(n[:])
}

func (id *identity) uint(v uint64) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], v)
	id.raw(n[:])
}

func (id *identity) bool(v bool) {
	if v {
		id.raw([]byte{1})
	} else {
		id.raw([]byte{0})
	}
}

// optInt distinguishes "unset" from any set value.
func (id *identity) optInt(v *int64) {
	if v == nil {
		id.raw(nil)

		return
	}

	id.int(*v)
}

func (id *identity) finish() uint64 {
	h := fnv.New64a()
	_, _ = h.Write(id.h)

	return h.Sum64()
}
