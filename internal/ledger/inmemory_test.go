package ledger

import (
	"context"
	"errors"
	"testing"
)

func TestTransferMovesFunds(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	_ = l.EnsureAccount(ctx, "wallet:a")
	_ = l.EnsureAccount(ctx, "wallet:b")
	SeedBalance(l, "wallet:a", 5_000)

	res, err := l.Transfer(ctx, "wallet:a", "wallet:b", "settlement", "tx-1", 2_000)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if res.FromBalance != 3_000 || res.ToBalance != 2_000 {
		t.Fatalf("unexpected balances: %+v", res)
	}
}

func TestTransferInsufficientFunds(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	_ = l.EnsureAccount(ctx, "wallet:a")
	_ = l.EnsureAccount(ctx, "wallet:b")
	SeedBalance(l, "wallet:a", 100)

	if _, err := l.Transfer(ctx, "wallet:a", "wallet:b", "settlement", "tx-1", 101); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	balance, err := l.Balance(ctx, "wallet:a")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 100 {
		t.Fatalf("failed transfer mutated balance: %d", balance)
	}
}

func TestTransferDuplicateClientTxID(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	_ = l.EnsureAccount(ctx, "wallet:a")
	_ = l.EnsureAccount(ctx, "wallet:b")
	SeedBalance(l, "wallet:a", 1_000)

	if _, err := l.Transfer(ctx, "wallet:a", "wallet:b", "settlement", "tx-1", 400); err != nil {
		t.Fatalf("first transfer: %v", err)
	}
	res, err := l.Transfer(ctx, "wallet:a", "wallet:b", "settlement", "tx-1", 400)
	if !errors.Is(err, ErrDuplicateTransaction) {
		t.Fatalf("expected duplicate transaction, got %v", err)
	}
	if res.FromBalance != 600 {
		t.Fatalf("duplicate replay should return original result, got %+v", res)
	}
}

func TestTransferToSelfNetsZero(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	_ = l.EnsureAccount(ctx, "wallet:a")
	SeedBalance(l, "wallet:a", 900)

	res, err := l.Transfer(ctx, "wallet:a", "wallet:a", "settlement", "tx-1", 900)
	if err != nil {
		t.Fatalf("self transfer: %v", err)
	}
	if res.ToBalance != 900 {
		t.Fatalf("self transfer must net to zero, got %+v", res)
	}
}

func TestDepositHoldAndRelease(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	_ = l.EnsureAccount(ctx, "wallet:a")
	_ = l.EnsureAccount(ctx, StorageSuspenseAccountCode)
	SeedBalance(l, "wallet:a", 500)

	held, err := l.HoldDeposit(ctx, "wallet:a", "offer-1", 120)
	if err != nil {
		t.Fatalf("hold deposit: %v", err)
	}
	if held.WalletBalance != 380 {
		t.Fatalf("expected wallet balance 380, got %d", held.WalletBalance)
	}
	suspense, _ := l.Balance(ctx, StorageSuspenseAccountCode)
	if suspense != 120 {
		t.Fatalf("expected suspense balance 120, got %d", suspense)
	}

	released, err := l.ReleaseDeposit(ctx, "wallet:a", "offer-1", 120)
	if err != nil {
		t.Fatalf("release deposit: %v", err)
	}
	if released.WalletBalance != 500 {
		t.Fatalf("expected wallet balance restored to 500, got %d", released.WalletBalance)
	}
	suspense, _ = l.Balance(ctx, StorageSuspenseAccountCode)
	if suspense != 0 {
		t.Fatalf("expected suspense drained, got %d", suspense)
	}
}

func TestDepositHoldInsufficientFunds(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	_ = l.EnsureAccount(ctx, "wallet:a")
	_ = l.EnsureAccount(ctx, StorageSuspenseAccountCode)
	SeedBalance(l, "wallet:a", 50)

	if _, err := l.HoldDeposit(ctx, "wallet:a", "offer-1", 120); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
}
