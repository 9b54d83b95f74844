package bank

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfiguration      = errors.New("invalid configuration")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoAccounts         = errors.New("no accounts found")
	ErrInvalidState       = errors.New("invalid session state")

	ErrParsingFailed = errors.New("failed to parse bank response")
	ErrTimeout       = errors.New("operation timed out")
)

// ErrProtocol marks a bank response that was received but did not have the
// expected shape.
var ErrProtocol = ErrParsingFailed

// ScraperError provides detailed error context
type ScraperError struct {
	BankCode  BankCode
	Operation string
	// Phase is the session state the driver was in when the error happened.
	Phase string
	// Account is the displayed account label, empty for session-wide steps.
	Account string
	Cause   error
	Details string
}

func (e *ScraperError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s failed", e.BankCode, e.Operation)
	if e.Phase != "" {
		fmt.Fprintf(&b, " in %s", e.Phase)
	}
	if e.Account != "" {
		fmt.Fprintf(&b, " (account %s)", e.Account)
	}
	fmt.Fprintf(&b, ": %v", e.Cause)
	if e.Details != "" {
		fmt.Fprintf(&b, " - %s", e.Details)
	}
	return b.String()
}

func (e *ScraperError) Unwrap() error {
	return e.Cause
}

// AccountErrors collects the failures of a multi-account fetch that was
// allowed to continue past a failing account.
type AccountErrors struct {
	Failures []error
}

func (e *AccountErrors) Error() string {
	msgs := make([]string, len(e.Failures))
	for i, err := range e.Failures {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d account(s) failed: %s", len(e.Failures), strings.Join(msgs, "; "))
}

func (e *AccountErrors) Unwrap() []error {
	return e.Failures
}
