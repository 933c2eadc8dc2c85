// Package fieldtest provides shared behavior assertions for field
// tests. Helpers compare OBSERVABLE BEHAVIOR ONLY - they never reach
// into field internals.
package fieldtest

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/proteus-fuzz/proteus/pkg/bits"
	"github.com/proteus-fuzz/proteus/pkg/model"
)

// Key returns a comparable representation of a bit string (length
// prefix plus hex content).
func Key(b bits.Bits) string {
	return fmt.Sprintf("%d:%x", b.Len(), b.Bytes())
}

// Keys maps Key over a slice of renders.
func Keys(renders []bits.Bits) []string {
	out := make([]string, len(renders))
	for i, r := range renders {
		out[i] = Key(r)
	}

	return out
}

// Drain runs the standard mutation loop to exhaustion and returns the
// render after each successful Mutate.
func Drain(t *testing.T, f model.Field) []bits.Bits {
	t.Helper()

	var out []bits.Bits

	for f.Mutate() {
		r, err := f.Render()
		require.NoError(t, err)

		out = append(out, r)
	}

	return out
}

// CheckMutationCount verifies that NumMutations matches the number of
// successful Mutate calls, before and after Reset.
func CheckMutationCount(t *testing.T, f model.Field, want int) {
	t.Helper()

	require.Equal(t, want, f.NumMutations())
	require.Len(t, Drain(t, f), want)

	f.Reset()
	require.Equal(t, want, f.NumMutations(), "NumMutations changed across Reset")
	require.Len(t, Drain(t, f), want, "mutation count changed across Reset")
}

// RequireDistinct verifies a full sweep's renders are pairwise
// distinct.
func RequireDistinct(t *testing.T, renders []bits.Bits) {
	t.Helper()

	seen := make(map[string]int, len(renders))

	for i, r := range renders {
		k := Key(r)
		if prev, dup := seen[k]; dup {
			t.Fatalf("renders %d and %d are identical: %s", prev, i, r)
		}

		seen[k] = i
	}
}

// RequireSameSequence verifies two sweeps rendered identical sequences.
func RequireSameSequence(t *testing.T, want, got []bits.Bits) {
	t.Helper()

	if diff := cmp.Diff(Keys(want), Keys(got)); diff != "" {
		t.Fatalf("mutation sequences differ (-want +got):\n%s", diff)
	}
}

// CheckDefaultRoundTrip verifies the default render before mutation
// and after Reset.
func CheckDefaultRoundTrip(t *testing.T, f model.Field, want bits.Bits) {
	t.Helper()

	r, err := f.Render()
	require.NoError(t, err)
	require.True(t, want.Equal(r), "default render: want %s, got %s", want, r)

	f.Mutate()
	f.Reset()

	r, err = f.Render()
	require.NoError(t, err)
	require.True(t, want.Equal(r), "render after Reset: want %s, got %s", want, r)
}

// CheckNotFuzzable verifies the zero-mutation contract of a
// non-fuzzable field: no mutations, Mutate always false, render
// pinned to the default, before and after Reset.
func CheckNotFuzzable(t *testing.T, f model.Field, want bits.Bits) {
	t.Helper()

	require.Equal(t, 0, f.NumMutations())

	requireDefault := func() {
		r, err := f.Render()
		require.NoError(t, err)
		require.True(t, want.Equal(r), "want %s, got %s", want, r)
	}

	requireDefault()
	require.False(t, f.Mutate())
	requireDefault()

	f.Reset()
	require.False(t, f.Mutate())
	requireDefault()
}

// CheckSkip verifies the Skip contract on a fresh or reset field:
// Skip(n) returns min(n, NumMutations()) and draining afterwards
// yields exactly the remainder. The check runs twice with a Reset in
// between to verify idempotence.
func CheckSkip(t *testing.T, f model.Field, toSkip int) {
	t.Helper()

	total := f.NumMutations()

	wantSkipped := toSkip
	if total < wantSkipped {
		wantSkipped = total
	}

	for run := range 2 {
		skipped := f.Skip(toSkip)
		require.Equal(t, wantSkipped, skipped, "run %d", run)
		require.Len(t, Drain(t, f), total-wantSkipped, "run %d", run)

		f.Reset()
	}
}

// CheckSkipAgainstMutate verifies that Skip(n) followed by draining
// renders the same tail as n Mutate calls followed by draining.
func CheckSkipAgainstMutate(t *testing.T, skipped, mutated model.Field, n int) {
	t.Helper()

	skipped.Skip(n)
	tailAfterSkip := Drain(t, skipped)

	for range n {
		mutated.Mutate()
	}
	tailAfterMutate := Drain(t, mutated)

	RequireSameSequence(t, tailAfterMutate, tailAfterSkip)
}

// CheckIdentityHash verifies the identity-hash contract: two
// config-identical fields hash equal, and the hash is invariant across
// mutate/render/reset on one instance.
func CheckIdentityHash(t *testing.T, f, same model.Field) {
	t.Helper()

	want := f.IdentityHash()
	require.Equal(t, want, same.IdentityHash(), "config-identical fields must hash equal")

	f.Mutate()
	require.Equal(t, want, f.IdentityHash(), "hash changed after Mutate")

	_, _ = f.Render()
	require.Equal(t, want, f.IdentityHash(), "hash changed after Render")

	f.Reset()
	require.Equal(t, want, f.IdentityHash(), "hash changed after Reset")

	for f.Mutate() {
		_, _ = f.Render()
		require.Equal(t, want, f.IdentityHash(), "hash changed mid-sweep")
	}
}

// CheckLeafContract bundles the properties every fuzzable value leaf
// must satisfy: exact count, distinctness, replayability, default
// round trip and identity stability. build must return
// config-identical fresh instances.
func CheckLeafContract(t *testing.T, def bits.Bits, build func() model.Field) {
	t.Helper()

	f := build()
	count := f.NumMutations()

	first := Drain(t, f)
	require.Len(t, first, count)
	RequireDistinct(t, first)

	f.Reset()
	RequireSameSequence(t, first, Drain(t, f))

	RequireSameSequence(t, first, Drain(t, build()))

	CheckDefaultRoundTrip(t, build(), def)
	CheckIdentityHash(t, build(), build())

	for _, skip := range []int{0, 1, count / 2, count, count + 1} {
		CheckSkip(t, build(), skip)
	}
}
