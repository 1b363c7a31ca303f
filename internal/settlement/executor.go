package settlement

import (
	"context"

	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/asset"
	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/ledger"
	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/offer"
)

// Plan is the fully validated set of mutations one settlement applies: the
// payment posting, the asset ownership change, the offer destruction and the
// refund of the offer's storage deposit to the buyer.
type Plan struct {
	ClientTxID    string
	BuyerAccount  string
	SellerAccount string
	Payment       int64
	Asset         asset.Asset
	Offer         offer.Offer
}

// Outcome reports the ledger state after a plan was applied.
type Outcome struct {
	TransactionID string
	BuyerBalance  int64
	SellerBalance int64
}

// Executor applies a settlement plan as one indivisible unit: either every
// mutation the plan describes lands, or none does.
type Executor interface {
	Execute(ctx context.Context, p Plan) (Outcome, error)
}

// serviceExecutor composes the in-memory backends directly. The funds check,
// debit and credit happen inside one atomic Transfer, and the in-memory
// record mutations that follow cannot fail for records the plan already
// resolved, so the sequence is indivisible in effect.
type serviceExecutor struct {
	assets *asset.Service
	offers *offer.Service
	ledger ledger.Ledger
}

func (e *serviceExecutor) Execute(ctx context.Context, p Plan) (Outcome, error) {
	res, err := e.ledger.Transfer(ctx, p.BuyerAccount, p.SellerAccount, settlementKind, p.ClientTxID, p.Payment)
	if err != nil {
		return Outcome{}, err
	}
	if err := e.assets.TransferOwnership(ctx, p.Asset.ID, p.Offer.OwnerID); err != nil {
		return Outcome{}, err
	}
	if err := e.offers.Close(ctx, p.Offer); err != nil {
		return Outcome{}, err
	}

	buyerBalance, err := e.ledger.Balance(ctx, p.BuyerAccount)
	if err != nil {
		return Outcome{}, err
	}
	sellerBalance, err := e.ledger.Balance(ctx, p.SellerAccount)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{TransactionID: res.TransactionID, BuyerBalance: buyerBalance, SellerBalance: sellerBalance}, nil
}
