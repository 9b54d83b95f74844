package leumi

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/acounter/leumi-scraper/internal/scraper/bank"
)

// RawTransaction is one transaction exactly as the bank's API returns it.
// Field names follow the wire format.
type RawTransaction struct {
	DateUTC          string          `json:"DateUTC"`
	DateSO           string          `json:"DateSO"`
	Amount           decimal.Decimal `json:"Amount"`
	Credit           decimal.Decimal `json:"Credit"`
	Debit            decimal.Decimal `json:"Debit"`
	TransactionSign  bool            `json:"TransactionSign"`
	Description      string          `json:"Description"`
	RunningBalance   decimal.Decimal `json:"RunningBalance"`
	EffectiveDateUTC string          `json:"EffectiveDateUTC"`
	EffectiveDateSO  string          `json:"EffectiveDateSO"`
	// ReferenceNumberLong is the natural key within one account and date
	// range. It is not globally unique.
	ReferenceNumberLong             int64           `json:"ReferenceNumberLong"`
	TypeInt                         int             `json:"TypeInt"`
	AdditionalDescriptionIdentifier bool            `json:"AdditionalDescriptionIdentifier"`
	AdditionalData                  string          `json:"AdditionalData"`
	AdditionalActivityTypeInt       int             `json:"AdditionalActivityTypeInt"`
	SegmentationFlagInt             int             `json:"SegmentationFlagInt"`
	ExtensionTypeCode               int             `json:"ExtensionTypeCode"`
	CreditCardIndex                 int             `json:"CreditCardIndex"`
	Period                          int             `json:"Period"`
	IfLinkInt                       int             `json:"IfLinkInt"`
	InvoiceStatus                   json.RawMessage `json:"InvoiceStatus,omitempty"`
	CheckNumberLong                 *int64          `json:"CheckNumberLong"`
	FITID                           string          `json:"FITID"`
	TrxIndex                        int             `json:"TrxIndex"`
}

// Transaction is a RawTransaction with its status and parsed dates.
type Transaction struct {
	RawTransaction
	Status        bank.TransactionStatus `json:"status"`
	Date          time.Time              `json:"date"`
	EffectiveDate time.Time              `json:"effectiveDate"`
}

// Metadata carries the balance variants the API returns next to the
// transactions.
type Metadata struct {
	BalanceIncludingToday  decimal.Decimal `json:"balanceIncludingToday"`
	BalanceIncludingDelays decimal.Decimal `json:"balanceIncludingDelays"`
	TotalCredit            decimal.Decimal `json:"totalCredit"`
	AsOfDate               string          `json:"asOfDate"`
	TodayFlag              bool            `json:"todayFlag"`
}

// AccountData is one account's transactions for a single search. Pending
// transactions come first, then completed ones, each in API order.
type AccountData struct {
	AccountNumber string           `json:"accountNumber"`
	Balance       *decimal.Decimal `json:"balance,omitempty"`
	Transactions  []Transaction    `json:"transactions"`
	Metadata      *Metadata        `json:"metadata,omitempty"`
}
