package evo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectorFromName(t *testing.T) {
	s, err := SelectorFromName("tournament", SelectorOptions{TournamentSize: 5, PopulationSize: 10})
	require.NoError(t, err)
	assert.Equal(t, TournamentSelector{Size: 5}, s)

	s, err = SelectorFromName("softmax", SelectorOptions{})
	require.NoError(t, err)
	assert.Equal(t, "softmax", s.Name())
}

func TestSelectorFromNameRejectsBadConfiguration(t *testing.T) {
	_, err := SelectorFromName("roulette", SelectorOptions{})
	require.ErrorIs(t, err, ErrSelectorNotFound)
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = SelectorFromName("tournament", SelectorOptions{TournamentSize: 11, PopulationSize: 10})
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = SelectorFromName("tournament", SelectorOptions{TournamentSize: 0, PopulationSize: 10})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRegisterSelectorRejectsDuplicates(t *testing.T) {
	err := RegisterSelector("tournament", func(SelectorOptions) (Selector, error) { return SoftmaxSelector{}, nil })
	require.ErrorIs(t, err, ErrSelectorExists)
	require.Error(t, RegisterSelector("", func(SelectorOptions) (Selector, error) { return nil, nil }))
	require.Error(t, RegisterSelector("nil-factory", nil))

	assert.Subset(t, ListSelectors(), []string{"softmax", "tournament"})
}
