package scenario

import (
	"testing"

	"github.com/Swind/go-turn-loop/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	cases := map[string]core.Kind{
		"":             core.KindImmediate,
		"immediate":    core.KindImmediate,
		"Timer":        core.KindShortTimer,
		"short_timer":  core.KindShortTimer,
		"long_timer":   core.KindShortTimer,
		" end_of_turn": core.KindEndOfTurn,
	}
	for in, want := range cases {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseKind("microtask")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		sc   Scenario
		want string
	}{
		{
			name: "missing name",
			sc:   Scenario{Items: []Item{{Name: "a"}}},
			want: "name is required",
		},
		{
			name: "negative max turns",
			sc:   Scenario{Name: "s", MaxTurns: -1},
			want: "max_turns",
		},
		{
			name: "unnamed item",
			sc:   Scenario{Name: "s", Items: []Item{{Kind: "immediate"}}},
			want: "items[0].name is required",
		},
		{
			name: "duplicate nested name",
			sc: Scenario{Name: "s", Items: []Item{
				{Name: "a", Then: []Item{{Name: "b"}}},
				{Name: "b"},
			}},
			want: `"b" already used at items[0].then[0]`,
		},
		{
			name: "bad kind",
			sc:   Scenario{Name: "s", Items: []Item{{Name: "a", Kind: "microtask"}}},
			want: "items[0].kind",
		},
		{
			name: "fail and panic",
			sc:   Scenario{Name: "s", Items: []Item{{Name: "a", Fail: "x", Panic: "y"}}},
			want: "mutually exclusive",
		},
		{
			name: "unknown cancel target",
			sc:   Scenario{Name: "s", Items: []Item{{Name: "a", Cancel: []string{"ghost"}}}},
			want: `items[0].cancel[0]: unknown item "ghost"`,
		},
		{
			name: "unknown top-level cancel",
			sc:   Scenario{Name: "s", Items: []Item{{Name: "a"}}, Cancel: []string{"z"}},
			want: `cancel[0]: unknown item "z"`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.sc.Validate()
			require.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestValidate_CancelCanReferenceNestedItems(t *testing.T) {
	sc := Scenario{Name: "s", Items: []Item{
		{Name: "a", Cancel: []string{"c"}},
		{Name: "b", Then: []Item{{Name: "c"}}},
	}}
	assert.NoError(t, sc.Validate())
}
