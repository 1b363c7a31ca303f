package asset

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/ledger"
	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/wallet"
)

func newTestService(t *testing.T) (*Service, *wallet.Service, ledger.Ledger) {
	t.Helper()
	led := ledger.NewInMemory()
	_ = led.EnsureAccount(context.Background(), ledger.StorageSuspenseAccountCode)
	walletSvc := wallet.NewService(wallet.NewMemoryRepository(), led)
	svc := NewService(NewMemoryRepository(), walletSvc, led, 2)
	return svc, walletSvc, led
}

func TestCreateAsset(t *testing.T) {
	svc, walletSvc, led := newTestService(t)
	ctx := context.Background()

	creator := uuid.NewString()
	w, _ := walletSvc.Create(ctx, wallet.CreateInput{OwnerID: creator})
	ledger.SeedBalance(led, w.AccountCode, 1_000)

	a, err := svc.Create(ctx, CreateInput{
		Name:         "Apple Inc",
		Symbol:       "AAPL",
		TotalSupply:  1_000,
		CurrentPrice: 150,
		OwnerID:      creator,
	})
	if err != nil {
		t.Fatalf("create asset: %v", err)
	}

	if a.OwnerID != creator {
		t.Fatalf("expected owner %s, got %s", creator, a.OwnerID)
	}
	if a.Name != "Apple Inc" || a.Symbol != "AAPL" {
		t.Fatalf("unexpected name/symbol: %q %q", a.Name, a.Symbol)
	}
	if a.TotalSupply != 1_000 || a.CurrentPrice != 150 {
		t.Fatalf("unexpected supply/price: %d %d", a.TotalSupply, a.CurrentPrice)
	}

	// Record is 48 fixed bytes + 9 name + 4 symbol = 61; rate 2 => 122.
	if a.Deposit != 122 {
		t.Fatalf("expected deposit 122, got %d", a.Deposit)
	}
	balance, _ := led.Balance(ctx, w.AccountCode)
	if balance != 878 {
		t.Fatalf("expected creator charged deposit, balance %d", balance)
	}

	fetched, err := svc.Get(ctx, a.ID)
	if err != nil {
		t.Fatalf("get asset: %v", err)
	}
	if fetched != a {
		t.Fatalf("fetched record differs: %+v vs %+v", fetched, a)
	}
}

func TestCreateAssetOverExistingSlot(t *testing.T) {
	svc, walletSvc, led := newTestService(t)
	ctx := context.Background()

	creator := uuid.NewString()
	w, _ := walletSvc.Create(ctx, wallet.CreateInput{OwnerID: creator})
	ledger.SeedBalance(led, w.AccountCode, 1_000)

	slot := uuid.NewString()
	if _, err := svc.Create(ctx, CreateInput{ID: slot, Name: "Apple Inc", Symbol: "AAPL", TotalSupply: 1_000, CurrentPrice: 150, OwnerID: creator}); err != nil {
		t.Fatalf("first create: %v", err)
	}

	balanceBefore, _ := led.Balance(ctx, w.AccountCode)
	if _, err := svc.Create(ctx, CreateInput{ID: slot, Name: "Apple Inc", Symbol: "AAPL", TotalSupply: 1_000, CurrentPrice: 150, OwnerID: creator}); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	balanceAfter, _ := led.Balance(ctx, w.AccountCode)
	if balanceAfter != balanceBefore {
		t.Fatalf("failed create must not charge a deposit: %d vs %d", balanceAfter, balanceBefore)
	}
}

func TestCreateAssetValidation(t *testing.T) {
	svc, walletSvc, led := newTestService(t)
	ctx := context.Background()

	creator := uuid.NewString()
	w, _ := walletSvc.Create(ctx, wallet.CreateInput{OwnerID: creator})
	ledger.SeedBalance(led, w.AccountCode, 1_000)

	cases := []CreateInput{
		{Name: "", Symbol: "AAPL", OwnerID: creator},
		{Name: "this name is much longer than thirty-two bytes", Symbol: "AAPL", OwnerID: creator},
		{Name: "Apple Inc", Symbol: "", OwnerID: creator},
		{Name: "Apple Inc", Symbol: "TOOLONGSYM", OwnerID: creator},
		{Name: "Apple Inc", Symbol: "AAPL", OwnerID: "not-a-uuid"},
	}
	for _, input := range cases {
		if _, err := svc.Create(ctx, input); err == nil {
			t.Fatalf("expected validation failure for %+v", input)
		}
	}
}

func TestCreateAssetInsufficientDeposit(t *testing.T) {
	svc, walletSvc, led := newTestService(t)
	ctx := context.Background()

	creator := uuid.NewString()
	w, _ := walletSvc.Create(ctx, wallet.CreateInput{OwnerID: creator})
	ledger.SeedBalance(led, w.AccountCode, 10)

	if _, err := svc.Create(ctx, CreateInput{Name: "Apple Inc", Symbol: "AAPL", TotalSupply: 1_000, CurrentPrice: 150, OwnerID: creator}); !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if assets, _ := svc.List(ctx); len(assets) != 0 {
		t.Fatalf("failed create must not persist a record, got %d", len(assets))
	}
}

func TestTransferOwnership(t *testing.T) {
	svc, walletSvc, led := newTestService(t)
	ctx := context.Background()

	creator := uuid.NewString()
	w, _ := walletSvc.Create(ctx, wallet.CreateInput{OwnerID: creator})
	ledger.SeedBalance(led, w.AccountCode, 1_000)

	a, err := svc.Create(ctx, CreateInput{Name: "Apple Inc", Symbol: "AAPL", TotalSupply: 1_000, CurrentPrice: 150, OwnerID: creator})
	if err != nil {
		t.Fatalf("create asset: %v", err)
	}

	newOwner := uuid.NewString()
	if err := svc.TransferOwnership(ctx, a.ID, newOwner); err != nil {
		t.Fatalf("transfer ownership: %v", err)
	}
	updated, _ := svc.Get(ctx, a.ID)
	if updated.OwnerID != newOwner {
		t.Fatalf("expected owner %s, got %s", newOwner, updated.OwnerID)
	}
}
