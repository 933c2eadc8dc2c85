package model_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/proteus-fuzz/proteus/pkg/bits"
	"github.com/proteus-fuzz/proteus/pkg/model"
	"github.com/proteus-fuzz/proteus/pkg/model/internal/fieldtest"
)

func newDynamic(t *testing.T, opts model.DynamicOptions) *model.Dynamic {
	t.Helper()

	f, err := model.NewDynamic("session-id", []byte("default-value"), opts)
	require.NoError(t, err)

	return f
}

func Test_Dynamic_Construction_Rejects_Invalid_Configurations(t *testing.T) {
	t.Parallel()

	_, err := model.NewDynamic("", []byte("v"), model.DynamicOptions{})
	require.True(t, errors.Is(err, model.ErrConfiguration), "empty key: want ErrConfiguration, got %v", err)

	_, err = model.NewDynamic("k", []byte("v"), model.DynamicOptions{Length: -1})
	require.True(t, errors.Is(err, model.ErrConfiguration), "negative length: want ErrConfiguration, got %v", err)
}

func Test_Dynamic_Renders_Default_Until_Session_Data_Arrives(t *testing.T) {
	t.Parallel()

	f := newDynamic(t, model.DynamicOptions{})

	require.True(t, bits.FromBytes([]byte("default-value")).Equal(mustRender(t, f)))

	f.SetSessionData(map[string][]byte{"session-id": []byte("live-value")})
	require.True(t, bits.FromBytes([]byte("live-value")).Equal(mustRender(t, f)))
}

func Test_Dynamic_Ignores_Session_Data_For_Other_Keys(t *testing.T) {
	t.Parallel()

	f := newDynamic(t, model.DynamicOptions{})

	f.SetSessionData(map[string][]byte{"other-key": []byte("noise")})
	require.True(t, bits.FromBytes([]byte("default-value")).Equal(mustRender(t, f)))
}

// Installing data for a non-matching key must not discard a value
// installed earlier for the matching key: session installs merge.
func Test_Dynamic_Session_Installs_Merge(t *testing.T) {
	t.Parallel()

	f := newDynamic(t, model.DynamicOptions{})

	f.SetSessionData(map[string][]byte{"session-id": []byte("live-value")})
	f.SetSessionData(map[string][]byte{"other-key": []byte("noise")})
	require.True(t, bits.FromBytes([]byte("live-value")).Equal(mustRender(t, f)))

	f.SetSessionData(map[string][]byte{"session-id": []byte("newer-value")})
	require.True(t, bits.FromBytes([]byte("newer-value")).Equal(mustRender(t, f)))
}

func Test_Dynamic_Reset_Discards_Session_Data(t *testing.T) {
	t.Parallel()

	f := newDynamic(t, model.DynamicOptions{})

	f.SetSessionData(map[string][]byte{"session-id": []byte("live-value")})
	f.Reset()
	require.True(t, bits.FromBytes([]byte("default-value")).Equal(mustRender(t, f)))
}

func Test_Dynamic_Session_Value_Wins_Over_The_Current_Mutation(t *testing.T) {
	t.Parallel()

	f := newDynamic(t, model.DynamicOptions{Fuzzable: true})

	require.True(t, f.Mutate())
	mutated := mustRender(t, f)
	require.False(t, bits.FromBytes([]byte("default-value")).Equal(mutated))

	f.SetSessionData(map[string][]byte{"session-id": []byte("live-value")})
	require.True(t, bits.FromBytes([]byte("live-value")).Equal(mustRender(t, f)))
}

func Test_Dynamic_Session_Override_Works_When_Not_Fuzzable(t *testing.T) {
	t.Parallel()

	f := newDynamic(t, model.DynamicOptions{})
	require.Equal(t, 0, f.NumMutations())

	f.SetSessionData(map[string][]byte{"session-id": []byte("live-value")})
	require.False(t, f.Mutate())
	require.True(t, bits.FromBytes([]byte("live-value")).Equal(mustRender(t, f)))
}

func Test_Dynamic_Length_Caps_The_Perturbed_Span(t *testing.T) {
	t.Parallel()

	full := newDynamic(t, model.DynamicOptions{Fuzzable: true})
	capped := newDynamic(t, model.DynamicOptions{Fuzzable: true, Length: 2})

	require.Less(t, capped.NumMutations(), full.NumMutations())

	// Every capped mutation differs from the default only in the first
	// two bytes.
	def := []byte("default-value")
	for _, r := range fieldtest.Drain(t, capped) {
		require.Equal(t, def[2:], r.Bytes()[2:])
	}
}

func Test_Dynamic_Leaf_Contract(t *testing.T) {
	t.Parallel()

	build := func() model.Field {
		return newDynamic(t, model.DynamicOptions{Fuzzable: true})
	}

	fieldtest.CheckLeafContract(t, bits.FromBytes([]byte("default-value")), build)
}
