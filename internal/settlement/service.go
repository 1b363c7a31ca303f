package settlement

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/bits"
	"time"

	"github.com/google/uuid"

	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/asset"
	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/ledger"
	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/notification"
	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/offer"
	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/wallet"
)

var (
	// ErrNotAssetOwner indicates the accepting party does not hold title to
	// the asset at the moment of execution.
	ErrNotAssetOwner = errors.New("not owner of asset")

	// ErrOfferMismatch indicates the offer references a different asset than
	// the one being settled.
	ErrOfferMismatch = errors.New("offer does not reference asset")

	// ErrAmountOverflow indicates the settlement amount cannot be represented
	// in 64 bits.
	ErrAmountOverflow = errors.New("settlement amount overflow")
)

// settlementKind tags ledger postings written by the settlement engine.
const settlementKind = "settlement"

// Service executes the atomic acceptance of a buy offer: it validates, moves
// funds, transfers asset ownership and closes the offer as one indivisible
// operation.
//
// Every fallible step (authorization, reference check, payment computation)
// completes before the first record mutation; the mutations themselves are
// handed to an Executor that applies them as one unit, so a failed call
// leaves every record and balance exactly as it found them.
type Service struct {
	assets   *asset.Service
	offers   *offer.Service
	wallets  *wallet.Service
	exec     Executor
	notifier notification.Notifier
}

// NewService constructs a settlement service. A nil exec selects an executor
// that composes ledgerBackend and the record services directly, which is
// indivisible on the in-memory backends.
func NewService(assets *asset.Service, offers *offer.Service, wallets *wallet.Service, ledgerBackend ledger.Ledger, exec Executor, notifier notification.Notifier) *Service {
	if exec == nil {
		exec = &serviceExecutor{assets: assets, offers: offers, ledger: ledgerBackend}
	}
	return &Service{assets: assets, offers: offers, wallets: wallets, exec: exec, notifier: notifier}
}

// AcceptInput identifies the records a settlement touches. SellerID comes
// from the authenticated request; the buyer is the offer's owner.
type AcceptInput struct {
	SellerID   string
	AssetID    string
	OfferID    string
	ClientTxID string
}

// AcceptResult describes a completed settlement.
type AcceptResult struct {
	TransactionID string
	AssetID       string
	NewOwnerID    string
	Payment       int64
	SellerBalance int64
	BuyerBalance  int64
	CompletedAt   time.Time
}

// AcceptBuyOffer fills a standing buy offer: the buyer pays amount*price, the
// asset's ownership moves to the buyer, and the offer record is destroyed with
// its storage deposit handed back to the buyer.
func (s *Service) AcceptBuyOffer(ctx context.Context, input AcceptInput) (AcceptResult, error) {
	if input.ClientTxID == "" {
		input.ClientTxID = uuid.New().String()
	}

	a, err := s.assets.Get(ctx, input.AssetID)
	if err != nil {
		return AcceptResult{}, err
	}
	if a.OwnerID != input.SellerID {
		return AcceptResult{}, ErrNotAssetOwner
	}

	o, err := s.offers.Get(ctx, input.OfferID)
	if err != nil {
		return AcceptResult{}, err
	}
	if o.AssetID != a.ID {
		return AcceptResult{}, ErrOfferMismatch
	}

	payment, err := settlementAmount(o.Amount, o.Price)
	if err != nil {
		return AcceptResult{}, err
	}

	buyerWallet, err := s.wallets.GetByOwner(ctx, o.OwnerID)
	if err != nil {
		return AcceptResult{}, err
	}
	sellerWallet, err := s.wallets.GetByOwner(ctx, input.SellerID)
	if err != nil {
		return AcceptResult{}, err
	}

	// All checks passed; the executor applies the payment, the deposit
	// refund, the ownership change and the offer removal as one unit. A
	// shortfall or storage failure aborts with nothing written anywhere.
	res, err := s.exec.Execute(ctx, Plan{
		ClientTxID:    input.ClientTxID,
		BuyerAccount:  buyerWallet.AccountCode,
		SellerAccount: sellerWallet.AccountCode,
		Payment:       payment,
		Asset:         a,
		Offer:         o,
	})
	if err != nil {
		return AcceptResult{}, err
	}

	outcome := AcceptResult{
		TransactionID: res.TransactionID,
		AssetID:       a.ID,
		NewOwnerID:    o.OwnerID,
		Payment:       payment,
		SellerBalance: res.SellerBalance,
		BuyerBalance:  res.BuyerBalance,
		CompletedAt:   time.Now().UTC(),
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindTradeSettled,
			Destination: o.OwnerID,
			Body:        fmt.Sprintf("You bought %d %s for %d", o.Amount, a.Symbol, payment),
		})
	}

	return outcome, nil
}

// settlementAmount computes amount*price with overflow checking. Products
// above the signed 64-bit range cannot be posted to the ledger and fail the
// same way a full unsigned overflow does.
func settlementAmount(amount, price uint64) (int64, error) {
	hi, lo := bits.Mul64(amount, price)
	if hi != 0 || lo > math.MaxInt64 {
		return 0, ErrAmountOverflow
	}
	return int64(lo), nil
}
