package leumi

import (
	"fmt"
	"slices"

	"github.com/acounter/leumi-scraper/internal/scraper/bank"
)

// State is a step of the web-banking session, from a blank page to a
// filtered transactions search.
type State int

const (
	StateLoggedOut State = iota
	StateAuthenticated
	StateTransactionsView
	StateSearchOpen
	StateFiltered
)

func (s State) String() string {
	switch s {
	case StateLoggedOut:
		return "LoggedOut"
	case StateAuthenticated:
		return "Authenticated"
	case StateTransactionsView:
		return "TransactionsView"
	case StateSearchOpen:
		return "SearchOpen"
	case StateFiltered:
		return "Filtered"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// transitions lists the states reachable from each state.
var transitions = map[State][]State{
	StateLoggedOut:        {StateAuthenticated},
	StateAuthenticated:    {StateTransactionsView},
	StateTransactionsView: {StateTransactionsView, StateSearchOpen},
	StateSearchOpen:       {StateTransactionsView, StateSearchOpen, StateFiltered},
	StateFiltered:         {StateTransactionsView, StateSearchOpen},
}

// inTransactions are the states in which the transactions view is loaded.
var inTransactions = []State{StateTransactionsView, StateSearchOpen, StateFiltered}

// machine guards the session's state. The state only moves on success, so
// after a failure it still names the last step that completed.
type machine struct {
	state State
}

func (m *machine) require(op string, allowed ...State) error {
	if slices.Contains(allowed, m.state) {
		return nil
	}
	return fmt.Errorf("%w: %s not allowed in %s", bank.ErrInvalidState, op, m.state)
}

func (m *machine) advance(to State) error {
	if !slices.Contains(transitions[m.state], to) {
		return fmt.Errorf("%w: %s -> %s", bank.ErrInvalidState, m.state, to)
	}
	m.state = to
	return nil
}
