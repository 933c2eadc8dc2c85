package model_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/proteus-fuzz/proteus/pkg/bits"
	"github.com/proteus-fuzz/proteus/pkg/model"
	"github.com/proteus-fuzz/proteus/pkg/model/internal/fieldtest"
)

func newRandomBits(t *testing.T, opts model.RandomBitsOptions) model.Field {
	t.Helper()

	f, err := model.NewRandomBits([]byte("kitty"), opts)
	require.NoError(t, err)

	return f
}

func newRandomBytes(t *testing.T, opts model.RandomBytesOptions) model.Field {
	t.Helper()

	f, err := model.NewRandomBytes([]byte("kitty"), opts)
	require.NoError(t, err)

	return f
}

func Test_RandomSpan_Construction_Rejects_Invalid_Ranges(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		min, max int
		step     int
		num      int
	}{
		{"negative min", -1, 4, 0, 0},
		{"negative max", -2, -1, 0, 0},
		{"zero max", 0, 0, 0, 0},
		{"min above max", 5, 4, 0, 0},
		{"negative step", 1, 5, -1, 0},
		{"negative min stepped", -1, 4, 1, 0},
		{"zero max stepped", 0, 0, 1, 0},
		{"min above max stepped", 5, 4, 1, 0},
		{"negative num mutations", 1, 5, 0, -1},
		{"step with explicit num mutations", 1, 50, 3, 10},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := model.NewRandomBits([]byte("kitty"), model.RandomBitsOptions{
				MinLength: tc.min, MaxLength: tc.max, Step: tc.step, NumMutations: tc.num, Fuzzable: true,
			})
			require.True(t, errors.Is(err, model.ErrConfiguration), "bits: want ErrConfiguration, got %v", err)

			_, err = model.NewRandomBytes([]byte("kitty"), model.RandomBytesOptions{
				MinLength: tc.min, MaxLength: tc.max, Step: tc.step, NumMutations: tc.num, Fuzzable: true,
			})
			require.True(t, errors.Is(err, model.ErrConfiguration), "bytes: want ErrConfiguration, got %v", err)
		})
	}
}

func Test_RandomBits_Rejects_Invalid_Unused_Bits(t *testing.T) {
	t.Parallel()

	_, err := model.NewRandomBits([]byte("kitty"), model.RandomBitsOptions{MinLength: 1, MaxLength: 4, UnusedBits: 8})
	require.True(t, errors.Is(err, model.ErrConfiguration), "got %v", err)

	_, err = model.NewRandomBits(nil, model.RandomBitsOptions{MinLength: 1, MaxLength: 4, UnusedBits: 3})
	require.True(t, errors.Is(err, model.ErrConfiguration), "got %v", err)
}

func Test_RandomBits_Unused_Bits_Trim_The_Default_Render_Only(t *testing.T) {
	t.Parallel()

	f := newRandomBits(t, model.RandomBitsOptions{MinLength: 5, MaxLength: 10, UnusedBits: 3, Fuzzable: true})

	def := mustRender(t, f)
	require.Equal(t, len("kitty")*8-3, def.Len())
	require.True(t, bits.FromBytes([]byte("kitty")).Truncate(37).Equal(def))

	for _, r := range fieldtest.Drain(t, f) {
		require.GreaterOrEqual(t, r.Len(), 5)
		require.LessOrEqual(t, r.Len(), 10)
	}
}

func Test_RandomSpan_Explicit_Mutation_Count_Is_Honored_Exactly(t *testing.T) {
	t.Parallel()

	fieldtest.CheckMutationCount(t,
		newRandomBits(t, model.RandomBitsOptions{MinLength: 10, MaxLength: 20, UnusedBits: 3, NumMutations: 100, Fuzzable: true}),
		100)

	fieldtest.CheckMutationCount(t,
		newRandomBytes(t, model.RandomBytesOptions{MinLength: 10, MaxLength: 20, NumMutations: 100, Fuzzable: true}),
		100)
}

func Test_RandomSpan_Defaults_To_A_Fixed_Mutation_Budget(t *testing.T) {
	t.Parallel()

	f := newRandomBytes(t, model.RandomBytesOptions{MinLength: 10, MaxLength: 100, Fuzzable: true})
	require.Equal(t, 25, f.NumMutations())
}

func Test_RandomSpan_Unstepped_Lengths_Stay_In_Range(t *testing.T) {
	t.Parallel()

	bitsField := newRandomBits(t, model.RandomBitsOptions{MinLength: 10, MaxLength: 100, UnusedBits: 3, Fuzzable: true})
	for _, r := range fieldtest.Drain(t, bitsField) {
		require.GreaterOrEqual(t, r.Len(), 10)
		require.LessOrEqual(t, r.Len(), 100)
	}

	bytesField := newRandomBytes(t, model.RandomBytesOptions{MinLength: 10, MaxLength: 100, Fuzzable: true})
	for _, r := range fieldtest.Drain(t, bytesField) {
		require.Zero(t, r.Len()%8, "byte variant must stay byte aligned")
		require.GreaterOrEqual(t, r.ByteLen(), 10)
		require.LessOrEqual(t, r.ByteLen(), 100)
	}
}

func Test_RandomSpan_Stepped_Mode_Walks_Lengths_Deterministically(t *testing.T) {
	t.Parallel()

	const (
		min  = 10
		max  = 100
		step = 3
	)

	wantCount := (max - min) / step

	bitsField := newRandomBits(t, model.RandomBitsOptions{MinLength: min, MaxLength: max, Step: step, UnusedBits: 7, Fuzzable: true})
	require.Equal(t, wantCount, bitsField.NumMutations())

	wantLen := min
	for bitsField.Mutate() {
		require.Equal(t, wantLen, mustRender(t, bitsField).Len())
		wantLen += step
	}

	bitsField.Reset()
	fieldtest.CheckMutationCount(t, bitsField, wantCount)

	bytesField := newRandomBytes(t, model.RandomBytesOptions{MinLength: min, MaxLength: max, Step: step, Fuzzable: true})
	require.Equal(t, wantCount, bytesField.NumMutations())

	wantLen = min
	for bytesField.Mutate() {
		require.Equal(t, wantLen, mustRender(t, bytesField).ByteLen())
		wantLen += step
	}
}

func Test_RandomSpan_Content_Is_Not_Constant(t *testing.T) {
	t.Parallel()

	f := newRandomBytes(t, model.RandomBytesOptions{MinLength: 10, MaxLength: 10, NumMutations: 20, Fuzzable: true})

	renders := fieldtest.Drain(t, f)
	fieldtest.RequireDistinct(t, renders)
}

func Test_RandomSpan_Same_Seed_Reproduces_The_Same_Sequence(t *testing.T) {
	t.Parallel()

	opts := model.RandomBytesOptions{MinLength: 10, MaxLength: 100, Seed: 11111, Fuzzable: true}

	first := fieldtest.Drain(t, newRandomBytes(t, opts))
	second := fieldtest.Drain(t, newRandomBytes(t, opts))
	fieldtest.RequireSameSequence(t, first, second)

	// And across Reset on one instance.
	f := newRandomBytes(t, opts)
	run1 := fieldtest.Drain(t, f)
	f.Reset()
	fieldtest.RequireSameSequence(t, run1, fieldtest.Drain(t, f))
}

func Test_RandomSpan_Different_Seeds_Produce_Different_Sequences(t *testing.T) {
	t.Parallel()

	bits1 := fieldtest.Keys(fieldtest.Drain(t, newRandomBits(t,
		model.RandomBitsOptions{MinLength: 10, MaxLength: 100, UnusedBits: 3, Seed: 11111, Fuzzable: true})))
	bits2 := fieldtest.Keys(fieldtest.Drain(t, newRandomBits(t,
		model.RandomBitsOptions{MinLength: 10, MaxLength: 100, UnusedBits: 3, Seed: 22222, Fuzzable: true})))

	if diff := cmp.Diff(bits1, bits2); diff == "" {
		t.Fatal("different seeds produced identical bit sequences")
	}

	bytes1 := fieldtest.Keys(fieldtest.Drain(t, newRandomBytes(t,
		model.RandomBytesOptions{MinLength: 10, MaxLength: 100, Seed: 11111, Fuzzable: true})))
	bytes2 := fieldtest.Keys(fieldtest.Drain(t, newRandomBytes(t,
		model.RandomBytesOptions{MinLength: 10, MaxLength: 100, Seed: 22222, Fuzzable: true})))

	if diff := cmp.Diff(bytes1, bytes2); diff == "" {
		t.Fatal("different seeds produced identical byte sequences")
	}
}

func Test_RandomSpan_Not_Fuzzable_Pins_The_Default(t *testing.T) {
	t.Parallel()

	f := newRandomBits(t, model.RandomBitsOptions{MinLength: 5, MaxLength: 10, UnusedBits: 3})
	fieldtest.CheckNotFuzzable(t, f, bits.FromBytes([]byte("kitty")).Truncate(37))

	g := newRandomBytes(t, model.RandomBytesOptions{MinLength: 5, MaxLength: 10})
	fieldtest.CheckNotFuzzable(t, g, bits.FromBytes([]byte("kitty")))
}

func Test_RandomSpan_Leaf_Contract(t *testing.T) {
	t.Parallel()

	for _, seed := range []uint64{0, 1, 42} {
		t.Run(fmt.Sprintf("seed=%d", seed), func(t *testing.T) {
			t.Parallel()

			build := func() model.Field {
				return newRandomBytes(t, model.RandomBytesOptions{
					MinLength: 8, MaxLength: 64, Seed: seed, Fuzzable: true,
				})
			}

			fieldtest.CheckLeafContract(t, bits.FromBytes([]byte("kitty")), build)
		})
	}
}
