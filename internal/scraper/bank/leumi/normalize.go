package leumi

import (
	"github.com/acounter/leumi-scraper/internal/scraper/bank"
)

// ToNormalized projects a raw transaction onto the cross-bank shape. Every
// field not in bank.Transaction is dropped. An unparsable DateUTC yields a
// zero date rather than an error.
func ToNormalized(raw RawTransaction, status bank.TransactionStatus) bank.Transaction {
	date, _ := ParseBankTime(raw.DateUTC)

	return bank.Transaction{
		Date:             date,
		ProcessedDate:    date,
		OriginalAmount:   raw.Amount,
		OriginalCurrency: bank.CurrencyILS,
		ChargedAmount:    raw.Amount,
		ChargedCurrency:  bank.CurrencyILS,
		Description:      raw.Description,
		Memo:             raw.AdditionalData,
		Type:             bank.TransactionNormal,
		Status:           status,
		Identifier:       raw.ReferenceNumberLong,
	}
}

// ToNormalizedAccount projects an account onto the cross-bank shape. The
// status recorded at parse time (array membership) is authoritative;
// InferStatus is consulted only for transactions that carry none.
func ToNormalizedAccount(acc AccountData) bank.AccountData {
	txns := make([]bank.Transaction, len(acc.Transactions))
	for i, txn := range acc.Transactions {
		status := txn.Status
		if status == "" {
			status = InferStatus(txn.RawTransaction)
		}
		txns[i] = ToNormalized(txn.RawTransaction, status)
	}

	return bank.AccountData{
		AccountNumber: acc.AccountNumber,
		Balance:       acc.Balance,
		Transactions:  txns,
	}
}

// InferStatus guesses a status from the running balance: completed when it
// is nonzero, pending otherwise. It misclassifies completed transactions
// whose running balance happens to be zero.
//
// Deprecated: use Transaction.Status, which is taken from the response array
// the transaction was found in.
func InferStatus(raw RawTransaction) bank.TransactionStatus {
	if raw.RunningBalance.IsZero() {
		return bank.StatusPending
	}
	return bank.StatusCompleted
}

func NormalizeAll(accounts []AccountData) []bank.AccountData {
	out := make([]bank.AccountData, len(accounts))
	for i, acc := range accounts {
		out[i] = ToNormalizedAccount(acc)
	}
	return out
}
