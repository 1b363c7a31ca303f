package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Tx-scoped primitives for callers that compose ledger postings with other
// table mutations in one caller-owned database transaction.

// AccountForUpdate resolves an account code and row-locks the account for the
// remainder of tx.
func AccountForUpdate(ctx context.Context, tx pgx.Tx, code string) (uuid.UUID, error) {
	return accountIDForCode(ctx, tx, code)
}

// AccountBalance sums the entries posted against the account inside tx.
func AccountBalance(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) (int64, error) {
	return balanceForAccount(ctx, tx, accountID)
}

// PostTransaction records one balanced posting inside tx.
func PostTransaction(ctx context.Context, tx pgx.Tx, kind, clientTxID string, fromAccountID, toAccountID uuid.UUID, amount int64) (uuid.UUID, error) {
	return insertPosting(ctx, tx, kind, clientTxID, fromAccountID, toAccountID, amount)
}

// FindTransaction reports whether a posting with this kind and client
// transaction identifier already exists.
func FindTransaction(ctx context.Context, tx pgx.Tx, kind, clientTxID string) (uuid.UUID, bool, error) {
	const query = `SELECT id FROM transactions WHERE client_tx_id = $1 AND kind = $2`
	var id uuid.UUID
	if err := tx.QueryRow(ctx, query, clientTxID, kind).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, err
	}
	return id, true, nil
}
