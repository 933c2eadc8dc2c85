package model_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/proteus-fuzz/proteus/pkg/bits"
	"github.com/proteus-fuzz/proteus/pkg/model"
	"github.com/proteus-fuzz/proteus/pkg/model/internal/fieldtest"
)

func Test_String_Leaf_Contract(t *testing.T) {
	t.Parallel()

	build := func() model.Field {
		f, err := model.NewString("kitty", model.StringOptions{Fuzzable: true})
		require.NoError(t, err)

		return f
	}

	fieldtest.CheckLeafContract(t, bits.FromBytes([]byte("kitty")), build)
}

func Test_Delimiter_Leaf_Contract(t *testing.T) {
	t.Parallel()

	build := func() model.Field {
		f, err := model.NewDelimiter(": ", model.StringOptions{Fuzzable: true})
		require.NoError(t, err)

		return f
	}

	fieldtest.CheckLeafContract(t, bits.FromBytes([]byte(": ")), build)
}

func Test_String_Rejects_Negative_Max_Size(t *testing.T) {
	t.Parallel()

	_, err := model.NewString("kitty", model.StringOptions{MaxSize: -1})
	require.True(t, errors.Is(err, model.ErrConfiguration), "want ErrConfiguration, got %v", err)

	_, err = model.NewDelimiter(",", model.StringOptions{MaxSize: -1})
	require.True(t, errors.Is(err, model.ErrConfiguration), "want ErrConfiguration, got %v", err)
}

// Max size must FILTER over-length catalogue entries, never clip them:
// the bounded field's mutations are exactly the unbounded field's
// mutations that fit.
func Test_String_Max_Size_Filters_Whole_Entries(t *testing.T) {
	t.Parallel()

	const maxSize = 35

	unbounded, err := model.NewString("kitty", model.StringOptions{Fuzzable: true})
	require.NoError(t, err)

	bounded, err := model.NewString("kitty", model.StringOptions{Fuzzable: true, MaxSize: maxSize})
	require.NoError(t, err)

	all := fieldtest.Drain(t, unbounded)

	var wantKeys []string

	for _, m := range all {
		if m.ByteLen() <= maxSize {
			wantKeys = append(wantKeys, fieldtest.Key(m))
		}
	}

	require.Equal(t, len(wantKeys), bounded.NumMutations())

	got := fieldtest.Drain(t, bounded)
	if diff := cmp.Diff(wantKeys, fieldtest.Keys(got)); diff != "" {
		t.Fatalf("bounded mutations are not the filtered unbounded catalogue (-want +got):\n%s", diff)
	}

	// Some catalogue entries must actually have been filtered for the
	// check to mean anything.
	require.Less(t, bounded.NumMutations(), unbounded.NumMutations())
}

func Test_Delimiter_Max_Size_Filters_Whole_Entries(t *testing.T) {
	t.Parallel()

	const maxSize = 10

	unbounded, err := model.NewDelimiter("kitty", model.StringOptions{Fuzzable: true})
	require.NoError(t, err)

	bounded, err := model.NewDelimiter("kitty", model.StringOptions{Fuzzable: true, MaxSize: maxSize})
	require.NoError(t, err)

	var want int

	for _, m := range fieldtest.Drain(t, unbounded) {
		if m.ByteLen() <= maxSize {
			want++
		}
	}

	fieldtest.CheckMutationCount(t, bounded, want)
}

func Test_String_Not_Fuzzable_Renders_Default_Forever(t *testing.T) {
	t.Parallel()

	f, err := model.NewString("kitty", model.StringOptions{})
	require.NoError(t, err)

	fieldtest.CheckNotFuzzable(t, f, bits.FromBytes([]byte("kitty")))
}

func Test_String_Empty_Default_Still_Has_Mutations(t *testing.T) {
	t.Parallel()

	f, err := model.NewString("", model.StringOptions{Fuzzable: true})
	require.NoError(t, err)

	renders := fieldtest.Drain(t, f)
	require.NotEmpty(t, renders)
	fieldtest.RequireDistinct(t, renders)
}

func Test_String_And_Delimiter_With_Same_Value_Hash_Differently(t *testing.T) {
	t.Parallel()

	s, err := model.NewString(",", model.StringOptions{Fuzzable: true})
	require.NoError(t, err)

	d, err := model.NewDelimiter(",", model.StringOptions{Fuzzable: true})
	require.NoError(t, err)

	require.NotEqual(t, s.IdentityHash(), d.IdentityHash())
}
