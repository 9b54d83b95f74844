package leumi

import (
	"testing"

	"github.com/acounter/leumi-scraper/internal/scraper/bank"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachine_HappyPath(t *testing.T) {
	var m machine

	path := []State{
		StateAuthenticated,
		StateTransactionsView,
		StateSearchOpen,
		StateFiltered,
		StateSearchOpen, // next account
		StateFiltered,
	}
	for _, next := range path {
		require.NoError(t, m.advance(next), "advance to %s", next)
	}
	assert.Equal(t, StateFiltered, m.state)
}

func TestMachine_RejectsSkippedStates(t *testing.T) {
	var m machine

	err := m.advance(StateTransactionsView)
	assert.ErrorIs(t, err, bank.ErrInvalidState)
	assert.Equal(t, StateLoggedOut, m.state, "state must not move on a rejected transition")

	err = m.require("fetch", inTransactions...)
	assert.ErrorIs(t, err, bank.ErrInvalidState)
	assert.ErrorContains(t, err, "LoggedOut")
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "SearchOpen", StateSearchOpen.String())
	assert.Equal(t, "State(42)", State(42).String())
}
