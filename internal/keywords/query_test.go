package keywords_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socialwatch/searchagent/internal/keywords"
)

func TestParseMode(t *testing.T) {
	for in, want := range map[string]keywords.Mode{
		"or":    keywords.ModeOr,
		" AND ": keywords.ModeAnd,
		"Combo": keywords.ModeCombo,
	} {
		got, err := keywords.ParseMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := keywords.ParseMode("XOR")
	assert.True(t, errors.Is(err, keywords.ErrUnknownMode))
}

func TestBuildQueryOr(t *testing.T) {
	q, err := keywords.BuildQuery([]string{"India tariff", "#TradeWar"}, keywords.ModeOr)
	require.NoError(t, err)
	assert.Equal(t, `"India tariff" OR "#TradeWar"`, q)
}

func TestBuildQueryAnd(t *testing.T) {
	q, err := keywords.BuildQuery([]string{"a", "b", "c"}, keywords.ModeAnd)
	require.NoError(t, err)
	assert.Equal(t, `"a" AND "b" AND "c"`, q)
}

func TestBuildQueryCombo(t *testing.T) {
	q, err := keywords.BuildQuery([]string{"a", "b", "c"}, keywords.ModeCombo)
	require.NoError(t, err)
	assert.Equal(t, `(a AND b) OR (a AND c) OR (b AND c)`, q)
}

func TestBuildQueryEmpty(t *testing.T) {
	for _, mode := range []keywords.Mode{keywords.ModeOr, keywords.ModeAnd, keywords.ModeCombo} {
		q, err := keywords.BuildQuery(nil, mode)
		require.NoError(t, err)
		assert.Empty(t, q)
	}
}

func TestBuildQueryUnknownMode(t *testing.T) {
	_, err := keywords.BuildQuery([]string{"a"}, keywords.Mode("NOT"))
	assert.ErrorIs(t, err, keywords.ErrUnknownMode)
}

func TestCombinations(t *testing.T) {
	assert.Equal(t, []string{"x AND y"}, keywords.Combinations([]string{"x", "y"}))
	assert.Empty(t, keywords.Combinations([]string{"solo"}))
	assert.Len(t, keywords.Combinations([]string{"1", "2", "3", "4", "5"}), 10)
}
