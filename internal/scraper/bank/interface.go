// Package bank defines the common structs and logic used throughout bank
// implementations.
package bank

import "context"

type BankScraper interface {
	// Login authenticates with the bank and leaves the session in the
	// browser page.
	Login(ctx context.Context, creds Credentials) error

	// FetchAccounts returns every account visible to the session, with
	// transactions in the cross-bank shape.
	FetchAccounts(ctx context.Context) ([]AccountData, error)

	// Release frees the browser resources owned by the scraper.
	Release() error
}

type BankCode string

const (
	BankLeumi BankCode = "LEUMI"
)
