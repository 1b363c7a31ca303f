package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLedger persists ledger entries in PostgreSQL ensuring double-entry balance.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger constructs a Postgres-backed ledger implementation.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// EnsureAccount guarantees an account exists for the provided code.
func (l *PostgresLedger) EnsureAccount(ctx context.Context, code string) error {
	_, err := l.db.Exec(ctx, `INSERT INTO accounts (id, code) VALUES ($1, $2)
        ON CONFLICT (code) DO NOTHING`, uuid.New(), code)
	return err
}

// Balance returns the summed balance for the specified account code.
func (l *PostgresLedger) Balance(ctx context.Context, code string) (int64, error) {
	const query = `
        SELECT COALESCE(SUM(e.amount), 0)
        FROM entries e
        INNER JOIN accounts a ON a.id = e.account_id
        WHERE a.code = $1`
	var balance int64
	if err := l.db.QueryRow(ctx, query, code).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("account %s not found", code)
		}
		return 0, err
	}
	return balance, nil
}

// Transfer records a balanced posting between two accounts after verifying the
// source account covers the amount. The funds check and both entries commit in
// one database transaction.
func (l *PostgresLedger) Transfer(ctx context.Context, fromCode, toCode, kind, clientTxID string, amount int64) (TransactionResult, error) {
	if amount < 0 {
		return TransactionResult{}, fmt.Errorf("amount must not be negative")
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return TransactionResult{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	fromAccountID, err := accountIDForCode(ctx, tx, fromCode)
	if err != nil {
		return TransactionResult{}, err
	}
	toAccountID, err := accountIDForCode(ctx, tx, toCode)
	if err != nil {
		return TransactionResult{}, err
	}

	const existingTxQuery = `SELECT id FROM transactions WHERE client_tx_id = $1 AND kind = $2`
	var existingTxID uuid.UUID
	if err := tx.QueryRow(ctx, existingTxQuery, clientTxID, kind).Scan(&existingTxID); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return TransactionResult{}, err
		}
	} else {
		fromBal, err := balanceForAccount(ctx, tx, fromAccountID)
		if err != nil {
			return TransactionResult{}, err
		}
		toBal, err := balanceForAccount(ctx, tx, toAccountID)
		if err != nil {
			return TransactionResult{}, err
		}
		return TransactionResult{TransactionID: existingTxID.String(), FromBalance: fromBal, ToBalance: toBal}, ErrDuplicateTransaction
	}

	fromBalance, err := balanceForAccount(ctx, tx, fromAccountID)
	if err != nil {
		return TransactionResult{}, err
	}
	if fromBalance < amount {
		return TransactionResult{}, ErrInsufficientFunds
	}

	txID, err := insertPosting(ctx, tx, kind, clientTxID, fromAccountID, toAccountID, amount)
	if err != nil {
		return TransactionResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return TransactionResult{}, err
	}

	// Retrieve updated balances after commit.
	fromBal, err := l.Balance(ctx, fromCode)
	if err != nil {
		return TransactionResult{}, err
	}
	toBal, err := l.Balance(ctx, toCode)
	if err != nil {
		return TransactionResult{}, err
	}

	return TransactionResult{TransactionID: txID.String(), FromBalance: fromBal, ToBalance: toBal}, nil
}

// HoldDeposit moves a storage deposit from the wallet into the suspense
// account, verifying the wallet covers it.
func (l *PostgresLedger) HoldDeposit(ctx context.Context, walletCode, clientTxID string, amount int64) (DepositResult, error) {
	if amount < 0 {
		return DepositResult{}, fmt.Errorf("amount must not be negative")
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return DepositResult{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	walletAccountID, err := accountIDForCode(ctx, tx, walletCode)
	if err != nil {
		return DepositResult{}, err
	}
	suspenseAccountID, err := accountIDForCode(ctx, tx, StorageSuspenseAccountCode)
	if err != nil {
		return DepositResult{}, err
	}

	if res, err := existingDeposit(ctx, tx, "deposit_hold", clientTxID, walletAccountID); err != nil {
		return DepositResult{}, err
	} else if res != nil {
		return *res, ErrDuplicateTransaction
	}

	walletBalance, err := balanceForAccount(ctx, tx, walletAccountID)
	if err != nil {
		return DepositResult{}, err
	}
	if walletBalance < amount {
		return DepositResult{}, ErrInsufficientFunds
	}

	txID, err := insertPosting(ctx, tx, "deposit_hold", clientTxID, walletAccountID, suspenseAccountID, amount)
	if err != nil {
		return DepositResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return DepositResult{}, err
	}

	updated, err := l.Balance(ctx, walletCode)
	if err != nil {
		return DepositResult{}, err
	}
	return DepositResult{TransactionID: txID.String(), WalletBalance: updated}, nil
}

// ReleaseDeposit returns a held storage deposit from the suspense account to
// the wallet that paid it. The suspense account was funded by the matching
// hold, so no funds check is performed.
func (l *PostgresLedger) ReleaseDeposit(ctx context.Context, walletCode, clientTxID string, amount int64) (DepositResult, error) {
	if amount < 0 {
		return DepositResult{}, fmt.Errorf("amount must not be negative")
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return DepositResult{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	walletAccountID, err := accountIDForCode(ctx, tx, walletCode)
	if err != nil {
		return DepositResult{}, err
	}
	suspenseAccountID, err := accountIDForCode(ctx, tx, StorageSuspenseAccountCode)
	if err != nil {
		return DepositResult{}, err
	}

	if res, err := existingDeposit(ctx, tx, "deposit_release", clientTxID, walletAccountID); err != nil {
		return DepositResult{}, err
	} else if res != nil {
		return *res, ErrDuplicateTransaction
	}

	txID, err := insertPosting(ctx, tx, "deposit_release", clientTxID, suspenseAccountID, walletAccountID, amount)
	if err != nil {
		return DepositResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return DepositResult{}, err
	}

	updated, err := l.Balance(ctx, walletCode)
	if err != nil {
		return DepositResult{}, err
	}
	return DepositResult{TransactionID: txID.String(), WalletBalance: updated}, nil
}

func insertPosting(ctx context.Context, tx pgx.Tx, kind, clientTxID string, fromAccountID, toAccountID uuid.UUID, amount int64) (uuid.UUID, error) {
	txID := uuid.New()
	if _, err := tx.Exec(ctx, `INSERT INTO transactions (id, client_tx_id, kind, status) VALUES ($1, $2, $3, $4)`, txID, clientTxID, kind, TransactionStatusCompleted); err != nil {
		return uuid.Nil, err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO entries (id, transaction_id, account_id, amount) VALUES ($1, $2, $3, $4)`, uuid.New(), txID, fromAccountID, -amount); err != nil {
		return uuid.Nil, err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO entries (id, transaction_id, account_id, amount) VALUES ($1, $2, $3, $4)`, uuid.New(), txID, toAccountID, amount); err != nil {
		return uuid.Nil, err
	}
	return txID, nil
}

func existingDeposit(ctx context.Context, tx pgx.Tx, kind, clientTxID string, walletAccountID uuid.UUID) (*DepositResult, error) {
	const query = `SELECT id FROM transactions WHERE client_tx_id = $1 AND kind = $2`
	var existingTxID uuid.UUID
	if err := tx.QueryRow(ctx, query, clientTxID, kind).Scan(&existingTxID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	walletBal, err := balanceForAccount(ctx, tx, walletAccountID)
	if err != nil {
		return nil, err
	}
	return &DepositResult{TransactionID: existingTxID.String(), WalletBalance: walletBal}, nil
}

func accountIDForCode(ctx context.Context, tx pgx.Tx, code string) (uuid.UUID, error) {
	const query = `SELECT id FROM accounts WHERE code = $1 FOR UPDATE`
	var id uuid.UUID
	if err := tx.QueryRow(ctx, query, code).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("account %s not found", code)
		}
		return uuid.Nil, err
	}
	return id, nil
}

func balanceForAccount(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) (int64, error) {
	const query = `SELECT COALESCE(SUM(amount), 0) FROM entries WHERE account_id = $1`
	var balance int64
	if err := tx.QueryRow(ctx, query, accountID).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return balance, nil
}
