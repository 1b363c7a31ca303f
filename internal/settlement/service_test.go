package settlement

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/asset"
	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/ledger"
	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/notification"
	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/offer"
	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/wallet"
)

type testNotifier struct {
	last notification.Message
}

func (n *testNotifier) Send(_ context.Context, msg notification.Message) error {
	n.last = msg
	return nil
}

type fixture struct {
	settle   *Service
	assets   *asset.Service
	offers   *offer.Service
	wallets  *wallet.Service
	ledger   ledger.Ledger
	notifier *testNotifier
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	led := ledger.NewInMemory()
	_ = led.EnsureAccount(context.Background(), ledger.StorageSuspenseAccountCode)
	walletSvc := wallet.NewService(wallet.NewMemoryRepository(), led)
	assetSvc := asset.NewService(asset.NewMemoryRepository(), walletSvc, led, 2)
	offerSvc := offer.NewService(offer.NewMemoryRepository(), assetSvc, walletSvc, led, nil, 2)
	notifier := &testNotifier{}
	return fixture{
		settle:   NewService(assetSvc, offerSvc, walletSvc, led, nil, notifier),
		assets:   assetSvc,
		offers:   offerSvc,
		wallets:  walletSvc,
		ledger:   led,
		notifier: notifier,
	}
}

func (f fixture) fundedTrader(t *testing.T, amount int64) (string, wallet.Wallet) {
	t.Helper()
	ownerID := uuid.NewString()
	w, err := f.wallets.Create(context.Background(), wallet.CreateInput{OwnerID: ownerID})
	if err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	ledger.SeedBalance(f.ledger, w.AccountCode, amount)
	return ownerID, w
}

// listedAsset creates "Apple Inc"/"AAPL"; with rate 2 the asset deposit is 122
// and the offer deposit is 160.
func (f fixture) listedAsset(t *testing.T, ownerID string) asset.Asset {
	t.Helper()
	a, err := f.assets.Create(context.Background(), asset.CreateInput{
		Name: "Apple Inc", Symbol: "AAPL", TotalSupply: 1_000, CurrentPrice: 150, OwnerID: ownerID,
	})
	if err != nil {
		t.Fatalf("create asset: %v", err)
	}
	return a
}

func (f fixture) standingOffer(t *testing.T, assetID, ownerID string, amount, price uint64) offer.Offer {
	t.Helper()
	o, err := f.offers.Create(context.Background(), offer.CreateInput{AssetID: assetID, Amount: amount, Price: price, OwnerID: ownerID})
	if err != nil {
		t.Fatalf("create offer: %v", err)
	}
	return o
}

func TestAcceptBuyOffer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	seller, sellerWallet := f.fundedTrader(t, 200)
	a := f.listedAsset(t, seller) // seller: 200-122 = 78
	buyer, buyerWallet := f.fundedTrader(t, 6_000)
	o := f.standingOffer(t, a.ID, buyer, 100, 50) // buyer: 6000-160 = 5840

	res, err := f.settle.AcceptBuyOffer(ctx, AcceptInput{SellerID: seller, AssetID: a.ID, OfferID: o.ID})
	if err != nil {
		t.Fatalf("accept buy offer: %v", err)
	}

	if res.Payment != 5_000 {
		t.Fatalf("expected payment 5000, got %d", res.Payment)
	}

	updated, _ := f.assets.Get(ctx, a.ID)
	if updated.OwnerID != buyer {
		t.Fatalf("expected ownership transferred to buyer, got %s", updated.OwnerID)
	}

	if _, err := f.offers.Get(ctx, o.ID); !errors.Is(err, offer.ErrNotFound) {
		t.Fatalf("expected offer destroyed, got %v", err)
	}

	sellerBalance, _ := f.ledger.Balance(ctx, sellerWallet.AccountCode)
	if sellerBalance != 5_078 {
		t.Fatalf("expected seller credited 5000, balance %d", sellerBalance)
	}
	// Buyer pays 5000 and recovers the 160 deposit of the closed offer.
	buyerBalance, _ := f.ledger.Balance(ctx, buyerWallet.AccountCode)
	if buyerBalance != 1_000 {
		t.Fatalf("expected buyer debited 5000 and refunded deposit, balance %d", buyerBalance)
	}

	if f.notifier.last.Kind != notification.KindTradeSettled || f.notifier.last.Destination != buyer {
		t.Fatalf("expected trade notification to buyer, got %+v", f.notifier.last)
	}
}

func TestAcceptBuyOfferInsufficientFunds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	seller, sellerWallet := f.fundedTrader(t, 200)
	a := f.listedAsset(t, seller)
	buyer, buyerWallet := f.fundedTrader(t, 200)
	o := f.standingOffer(t, a.ID, buyer, 100, 50) // buyer left with 40, payment is 5000

	if _, err := f.settle.AcceptBuyOffer(ctx, AcceptInput{SellerID: seller, AssetID: a.ID, OfferID: o.ID}); !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	// The failed attempt must be indistinguishable from never having happened.
	updated, _ := f.assets.Get(ctx, a.ID)
	if updated.OwnerID != seller {
		t.Fatalf("failed settlement changed ownership to %s", updated.OwnerID)
	}
	if _, err := f.offers.Get(ctx, o.ID); err != nil {
		t.Fatalf("failed settlement destroyed the offer: %v", err)
	}
	sellerBalance, _ := f.ledger.Balance(ctx, sellerWallet.AccountCode)
	if sellerBalance != 78 {
		t.Fatalf("failed settlement moved seller balance: %d", sellerBalance)
	}
	buyerBalance, _ := f.ledger.Balance(ctx, buyerWallet.AccountCode)
	if buyerBalance != 40 {
		t.Fatalf("failed settlement moved buyer balance: %d", buyerBalance)
	}
}

func TestAcceptBuyOfferNotAssetOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	seller, _ := f.fundedTrader(t, 200)
	a := f.listedAsset(t, seller)
	buyer, _ := f.fundedTrader(t, 6_000)
	o := f.standingOffer(t, a.ID, buyer, 100, 50)
	imposter, _ := f.fundedTrader(t, 6_000)

	if _, err := f.settle.AcceptBuyOffer(ctx, AcceptInput{SellerID: imposter, AssetID: a.ID, OfferID: o.ID}); !errors.Is(err, ErrNotAssetOwner) {
		t.Fatalf("expected ErrNotAssetOwner, got %v", err)
	}
	if _, err := f.offers.Get(ctx, o.ID); err != nil {
		t.Fatalf("offer must survive a rejected settlement: %v", err)
	}
}

func TestAcceptBuyOfferMismatchedReference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	seller, _ := f.fundedTrader(t, 500)
	first := f.listedAsset(t, seller)
	second, err := f.assets.Create(ctx, asset.CreateInput{Name: "Tesla Inc", Symbol: "TSLA", TotalSupply: 500, CurrentPrice: 900, OwnerID: seller})
	if err != nil {
		t.Fatalf("create second asset: %v", err)
	}
	buyer, _ := f.fundedTrader(t, 6_000)
	o := f.standingOffer(t, first.ID, buyer, 100, 50)

	if _, err := f.settle.AcceptBuyOffer(ctx, AcceptInput{SellerID: seller, AssetID: second.ID, OfferID: o.ID}); !errors.Is(err, ErrOfferMismatch) {
		t.Fatalf("expected ErrOfferMismatch, got %v", err)
	}
}

func TestAcceptBuyOfferOverflow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	seller, sellerWallet := f.fundedTrader(t, 200)
	a := f.listedAsset(t, seller)
	buyer, _ := f.fundedTrader(t, 6_000)

	cases := []struct {
		amount, price uint64
	}{
		// wraps 64 bits entirely
		{math.MaxUint64, 2},
		// fits 64 unsigned bits but not a ledger posting
		{1 << 62, 2},
	}
	for _, tc := range cases {
		o := f.standingOffer(t, a.ID, buyer, tc.amount, tc.price)
		if _, err := f.settle.AcceptBuyOffer(ctx, AcceptInput{SellerID: seller, AssetID: a.ID, OfferID: o.ID}); !errors.Is(err, ErrAmountOverflow) {
			t.Fatalf("amount=%d price=%d: expected ErrAmountOverflow, got %v", tc.amount, tc.price, err)
		}
		if _, err := f.offers.Get(ctx, o.ID); err != nil {
			t.Fatalf("offer must survive an overflowing settlement: %v", err)
		}
	}
	sellerBalance, _ := f.ledger.Balance(ctx, sellerWallet.AccountCode)
	if sellerBalance != 78 {
		t.Fatalf("overflowing settlement moved seller balance: %d", sellerBalance)
	}
}

func TestAcceptSelfOffer(t *testing.T) {
	// Degenerate case: the asset owner fills its own offer. The payment is a
	// self-transfer that nets to zero and ownership stays with the same
	// identity.
	f := newFixture(t)
	ctx := context.Background()

	seller, sellerWallet := f.fundedTrader(t, 6_000)
	a := f.listedAsset(t, seller)
	o := f.standingOffer(t, a.ID, seller, 100, 50)

	if _, err := f.settle.AcceptBuyOffer(ctx, AcceptInput{SellerID: seller, AssetID: a.ID, OfferID: o.ID}); err != nil {
		t.Fatalf("accept self offer: %v", err)
	}

	updated, _ := f.assets.Get(ctx, a.ID)
	if updated.OwnerID != seller {
		t.Fatalf("self settlement changed ownership to %s", updated.OwnerID)
	}
	if _, err := f.offers.Get(ctx, o.ID); !errors.Is(err, offer.ErrNotFound) {
		t.Fatalf("expected offer destroyed, got %v", err)
	}
	// Only the asset deposit remains held: 6000 - 122.
	balance, _ := f.ledger.Balance(ctx, sellerWallet.AccountCode)
	if balance != 5_878 {
		t.Fatalf("self settlement must net to zero, balance %d", balance)
	}
}

type refusingExecutor struct{}

func (refusingExecutor) Execute(context.Context, Plan) (Outcome, error) {
	return Outcome{}, errors.New("storage unavailable")
}

func TestAcceptBuyOfferFailedExecutionLeavesNoTrace(t *testing.T) {
	// Every mutation lives behind the executor, so an execution that fails at
	// the storage layer must leave balances, ownership and the offer record
	// exactly as they were.
	f := newFixture(t)
	ctx := context.Background()

	seller, sellerWallet := f.fundedTrader(t, 200)
	a := f.listedAsset(t, seller)
	buyer, buyerWallet := f.fundedTrader(t, 6_000)
	o := f.standingOffer(t, a.ID, buyer, 100, 50)

	broken := NewService(f.assets, f.offers, f.wallets, f.ledger, refusingExecutor{}, f.notifier)
	if _, err := broken.AcceptBuyOffer(ctx, AcceptInput{SellerID: seller, AssetID: a.ID, OfferID: o.ID}); err == nil {
		t.Fatalf("expected execution failure")
	}

	updated, _ := f.assets.Get(ctx, a.ID)
	if updated.OwnerID != seller {
		t.Fatalf("failed execution changed ownership to %s", updated.OwnerID)
	}
	if _, err := f.offers.Get(ctx, o.ID); err != nil {
		t.Fatalf("failed execution destroyed the offer: %v", err)
	}
	sellerBalance, _ := f.ledger.Balance(ctx, sellerWallet.AccountCode)
	if sellerBalance != 78 {
		t.Fatalf("failed execution moved seller balance: %d", sellerBalance)
	}
	buyerBalance, _ := f.ledger.Balance(ctx, buyerWallet.AccountCode)
	if buyerBalance != 5_840 {
		t.Fatalf("failed execution moved buyer balance: %d", buyerBalance)
	}
	if f.notifier.last.Kind != "" {
		t.Fatalf("failed execution sent a notification: %+v", f.notifier.last)
	}
}

func TestServiceExecutorAppliesPlanAtomically(t *testing.T) {
	// The composed executor must report balances that include the deposit
	// refund, and replaying a client transaction id must surface the
	// duplicate instead of posting twice.
	f := newFixture(t)
	ctx := context.Background()

	seller, _ := f.fundedTrader(t, 200)
	a := f.listedAsset(t, seller)
	buyer, _ := f.fundedTrader(t, 6_000)
	o := f.standingOffer(t, a.ID, buyer, 100, 50)

	clientTxID := uuid.NewString()
	res, err := f.settle.AcceptBuyOffer(ctx, AcceptInput{SellerID: seller, AssetID: a.ID, OfferID: o.ID, ClientTxID: clientTxID})
	if err != nil {
		t.Fatalf("accept buy offer: %v", err)
	}
	if res.BuyerBalance != 1_000 || res.SellerBalance != 5_078 {
		t.Fatalf("expected post-refund balances 1000/5078, got %d/%d", res.BuyerBalance, res.SellerBalance)
	}

	if _, err := f.settle.AcceptBuyOffer(ctx, AcceptInput{SellerID: seller, AssetID: a.ID, OfferID: o.ID, ClientTxID: clientTxID}); !errors.Is(err, offer.ErrNotFound) {
		t.Fatalf("expected replay to fail on the destroyed offer, got %v", err)
	}
}

func TestSettlementAmount(t *testing.T) {
	if got, err := settlementAmount(100, 50); err != nil || got != 5_000 {
		t.Fatalf("expected 5000, got %d (%v)", got, err)
	}
	if _, err := settlementAmount(math.MaxUint64, math.MaxUint64); !errors.Is(err, ErrAmountOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
	if got, err := settlementAmount(0, 0); err != nil || got != 0 {
		t.Fatalf("zero offer settles for zero, got %d (%v)", got, err)
	}
}
