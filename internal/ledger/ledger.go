package ledger

import (
	"context"
	"errors"
)

var (
	// ErrInsufficientFunds occurs when the source account lacks available balance
	// to cover a requested posting.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrDuplicateTransaction indicates the provided client transaction identifier
	// already exists and therefore the operation should be treated as idempotent.
	ErrDuplicateTransaction = errors.New("duplicate transaction")
)

const (
	// TransactionStatusCompleted represents a fully applied posting.
	TransactionStatusCompleted = "completed"
	// StorageSuspenseAccountCode is the ledger account that parks storage
	// deposits for the lifetime of the record they paid for.
	StorageSuspenseAccountCode = "suspense:storage"
)

// TransactionResult captures the outcome of a ledger posting.
type TransactionResult struct {
	TransactionID string
	FromBalance   int64
	ToBalance     int64
}

// DepositResult captures the outcome of a storage deposit hold or release.
type DepositResult struct {
	TransactionID string
	WalletBalance int64
}

// Ledger defines the contract implemented by ledger backends (e.g. Postgres).
// Every method records one balanced posting atomically: either all entries it
// describes are applied or none is.
type Ledger interface {
	EnsureAccount(ctx context.Context, code string) error
	Balance(ctx context.Context, code string) (int64, error)
	Transfer(ctx context.Context, fromCode, toCode, kind, clientTxID string, amount int64) (TransactionResult, error)
	HoldDeposit(ctx context.Context, walletCode, clientTxID string, amount int64) (DepositResult, error)
	ReleaseDeposit(ctx context.Context, walletCode, clientTxID string, amount int64) (DepositResult, error)
}
