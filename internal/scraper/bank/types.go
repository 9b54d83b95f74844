package bank

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Currency string

const (
	CurrencyILS Currency = "ILS"
)

type TransactionType string

const (
	TransactionNormal TransactionType = "normal"
)

type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
)

// Credentials are the login pair for a web-banking user.
type Credentials struct {
	Username string
	Password string
}

// Validate reports ErrConfiguration when a field is missing.
func (c Credentials) Validate() error {
	switch {
	case c.Username == "" && c.Password == "":
		return fmt.Errorf("%w: username and password are required", ErrConfiguration)
	case c.Username == "":
		return fmt.Errorf("%w: username is required", ErrConfiguration)
	case c.Password == "":
		return fmt.Errorf("%w: password is required", ErrConfiguration)
	}
	return nil
}

// Transaction is the cross-bank transaction shape. It is lossy compared to
// any bank's raw record.
type Transaction struct {
	Date             time.Time         `json:"date"`
	ProcessedDate    time.Time         `json:"processedDate"`
	OriginalAmount   decimal.Decimal   `json:"originalAmount"`
	OriginalCurrency Currency          `json:"originalCurrency"`
	ChargedAmount    decimal.Decimal   `json:"chargedAmount"`
	ChargedCurrency  Currency          `json:"chargedCurrency"`
	Description      string            `json:"description"`
	Memo             string            `json:"memo"`
	Type             TransactionType   `json:"type"`
	Status           TransactionStatus `json:"status"`
	Identifier       int64             `json:"identifier"`
}

// AccountData is one account with its transactions in the cross-bank shape.
type AccountData struct {
	AccountNumber string           `json:"accountNumber"`
	Balance       *decimal.Decimal `json:"balance,omitempty"`
	Transactions  []Transaction    `json:"transactions"`
}
