package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzbill/sharedq/internal/entrystore"
)

var sample = []entrystore.Entry{
	{UID: "A1", Timestamp: "2024-01-01T10:00:00", Number: 1},
	{UID: "B2", Timestamp: "2024-01-01T11:00:00", Number: 2},
	{UID: "C3", Timestamp: "2024-01-02T09:00:00", Number: 0},
}

func matchUIDs(t *testing.T, expr string) []string {
	t.Helper()
	f, err := Compile(expr)
	require.NoError(t, err)
	var out []string
	for _, e := range f.Apply(sample) {
		out = append(out, e.UID)
	}
	return out
}

func TestEmptyMatchesAll(t *testing.T) {
	assert.Equal(t, []string{"A1", "B2", "C3"}, matchUIDs(t, "  "))
	var zero Filter
	assert.True(t, zero.Match(entrystore.Entry{}, 0))
}

func TestExpressions(t *testing.T) {
	cases := map[string][]string{
		`assigned`:                           {"A1", "B2"},
		`!assigned`:                          {"C3"},
		`number >= 2`:                        {"B2"},
		`uid.startsWith("B") || uid == "C3"`: {"B2", "C3"},
		`timestamp.startsWith("2024-01-01")`: {"A1", "B2"},
		`position == 0`:                      {"A1"},
	}
	for expr, want := range cases {
		assert.Equal(t, want, matchUIDs(t, expr), expr)
	}
}

func TestCompileErrors(t *testing.T) {
	for _, expr := range []string{`uid ==`, `number + 1`, `nosuchvar`} {
		_, err := Compile(expr)
		assert.ErrorIs(t, err, ErrInvalidExpression, expr)
	}
}
