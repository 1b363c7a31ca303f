package settlement

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/asset"
	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/ledger"
	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/offer"
)

// PostgresExecutor applies the whole settlement inside one database
// transaction: payment posting, deposit refund, asset ownership update and
// offer row removal commit together or roll back together.
type PostgresExecutor struct {
	db *pgxpool.Pool
}

// NewPostgresExecutor constructs a Postgres-backed settlement executor.
func NewPostgresExecutor(db *pgxpool.Pool) *PostgresExecutor {
	return &PostgresExecutor{db: db}
}

// Execute runs the plan. The involved accounts are row-locked for the
// duration of the transaction, which supplies the exclusive record access the
// settlement protocol requires.
func (e *PostgresExecutor) Execute(ctx context.Context, p Plan) (Outcome, error) {
	tx, err := e.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Outcome{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	buyerID, err := ledger.AccountForUpdate(ctx, tx, p.BuyerAccount)
	if err != nil {
		return Outcome{}, err
	}
	sellerID, err := ledger.AccountForUpdate(ctx, tx, p.SellerAccount)
	if err != nil {
		return Outcome{}, err
	}
	suspenseID, err := ledger.AccountForUpdate(ctx, tx, ledger.StorageSuspenseAccountCode)
	if err != nil {
		return Outcome{}, err
	}

	if existingID, found, err := ledger.FindTransaction(ctx, tx, settlementKind, p.ClientTxID); err != nil {
		return Outcome{}, err
	} else if found {
		buyerBalance, err := ledger.AccountBalance(ctx, tx, buyerID)
		if err != nil {
			return Outcome{}, err
		}
		sellerBalance, err := ledger.AccountBalance(ctx, tx, sellerID)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{TransactionID: existingID.String(), BuyerBalance: buyerBalance, SellerBalance: sellerBalance}, ledger.ErrDuplicateTransaction
	}

	buyerBalance, err := ledger.AccountBalance(ctx, tx, buyerID)
	if err != nil {
		return Outcome{}, err
	}
	if buyerBalance < p.Payment {
		return Outcome{}, ledger.ErrInsufficientFunds
	}

	txID, err := ledger.PostTransaction(ctx, tx, settlementKind, p.ClientTxID, buyerID, sellerID, p.Payment)
	if err != nil {
		return Outcome{}, err
	}
	if _, err := ledger.PostTransaction(ctx, tx, "deposit_release", "offer:"+p.Offer.ID, suspenseID, buyerID, p.Offer.Deposit); err != nil {
		return Outcome{}, err
	}
	if err := asset.SetOwnerTx(ctx, tx, p.Asset.ID, p.Offer.OwnerID); err != nil {
		return Outcome{}, err
	}
	if err := offer.DeleteTx(ctx, tx, p.Offer.ID); err != nil {
		return Outcome{}, err
	}

	finalBuyer, err := ledger.AccountBalance(ctx, tx, buyerID)
	if err != nil {
		return Outcome{}, err
	}
	finalSeller, err := ledger.AccountBalance(ctx, tx, sellerID)
	if err != nil {
		return Outcome{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Outcome{}, err
	}
	return Outcome{TransactionID: txID.String(), BuyerBalance: finalBuyer, SellerBalance: finalSeller}, nil
}
