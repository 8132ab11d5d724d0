// Package account defines canonical balance, transfer and deposit/withdrawal
// records.
package account

import "github.com/quantfabric/unifex/types"

// Balance holds one currency's balance within an account.
type Balance struct {
	Currency  string
	Total     types.Number
	Free      types.Number
	Used      types.Number
}

// Holdings is the canonical balance response keyed by currency code.
type Holdings struct {
	Timestamp int64
	Balances  map[string]Balance
}

// TransactionType discriminates deposits from withdrawals.
type TransactionType string

// Transaction types
const (
	Deposit    TransactionType = "deposit"
	Withdrawal TransactionType = "withdrawal"
)

// TransactionStatus is the canonical on-chain transfer state. Unmapped venue
// values pass through; Known reports canonical membership.
type TransactionStatus string

// Transaction statuses
const (
	TransactionPending  TransactionStatus = "pending"
	TransactionOK       TransactionStatus = "ok"
	TransactionFailed   TransactionStatus = "failed"
	TransactionCanceled TransactionStatus = "canceled"
)

// Known reports whether the status is part of the canonical vocabulary.
func (s TransactionStatus) Known() bool {
	switch s {
	case TransactionPending, TransactionOK, TransactionFailed, TransactionCanceled:
		return true
	}
	return false
}

// MapTransactionStatus translates a venue status through a lookup table with
// the standard passthrough default.
func MapTransactionStatus(raw string, table map[string]TransactionStatus) TransactionStatus {
	if s, ok := table[raw]; ok {
		return s
	}
	return TransactionStatus(raw)
}

// Transaction is a canonical deposit or withdrawal record.
type Transaction struct {
	ID        string
	TxID      string
	Timestamp int64
	Datetime  string
	Address   string
	Tag       string
	Type      TransactionType
	Amount    types.Number
	Currency  string
	Status    TransactionStatus
	Fee       types.Number
	Network   string
}

// TransferStatus is the canonical internal transfer state.
type TransferStatus string

// Transfer statuses
const (
	TransferPending  TransferStatus = "pending"
	TransferOK       TransferStatus = "ok"
	TransferFailed   TransferStatus = "failed"
	TransferCanceled TransferStatus = "canceled"
)

// Transfer is a canonical internal account transfer record.
type Transfer struct {
	ID          string
	Timestamp   int64
	Datetime    string
	Currency    string
	Amount      types.Number
	FromAccount string
	ToAccount   string
	Status      TransferStatus
}

// DepositAddress is a canonical funding address.
type DepositAddress struct {
	Currency string
	Address  string
	Tag      string
	Network  string
}
