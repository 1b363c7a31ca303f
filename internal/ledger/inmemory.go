package ledger

import (
	"context"
	"fmt"
	"sync"
)

type inMemoryLedger struct {
	mu           sync.RWMutex
	balances     map[string]int64
	transactions map[string]TransactionResult
	depositTx    map[string]DepositResult
}

// NewInMemory creates a concurrency-safe in-memory ledger useful for unit tests.
func NewInMemory() Ledger {
	return &inMemoryLedger{
		balances:     make(map[string]int64),
		transactions: make(map[string]TransactionResult),
		depositTx:    make(map[string]DepositResult),
	}
}

func (l *inMemoryLedger) EnsureAccount(_ context.Context, code string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.balances[code]; !exists {
		l.balances[code] = 0
	}
	return nil
}

func (l *inMemoryLedger) Balance(_ context.Context, code string) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	balance, exists := l.balances[code]
	if !exists {
		return 0, fmt.Errorf("account %s not found", code)
	}
	return balance, nil
}

func (l *inMemoryLedger) Transfer(_ context.Context, fromCode, toCode, kind, clientTxID string, amount int64) (TransactionResult, error) {
	if amount < 0 {
		return TransactionResult{}, fmt.Errorf("amount must not be negative")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if res, exists := l.transactions[kind+":"+clientTxID]; exists {
		return res, ErrDuplicateTransaction
	}

	fromBalance, ok := l.balances[fromCode]
	if !ok {
		return TransactionResult{}, fmt.Errorf("account %s not found", fromCode)
	}
	if _, ok := l.balances[toCode]; !ok {
		return TransactionResult{}, fmt.Errorf("account %s not found", toCode)
	}

	if fromBalance < amount {
		return TransactionResult{}, ErrInsufficientFunds
	}

	// Debit then credit against the map so a transfer between an account and
	// itself nets to zero instead of double-counting.
	l.balances[fromCode] -= amount
	l.balances[toCode] += amount

	res := TransactionResult{
		TransactionID: kind + ":" + clientTxID,
		FromBalance:   l.balances[fromCode],
		ToBalance:     l.balances[toCode],
	}

	l.transactions[kind+":"+clientTxID] = res
	return res, nil
}

func (l *inMemoryLedger) HoldDeposit(_ context.Context, walletCode, clientTxID string, amount int64) (DepositResult, error) {
	if amount < 0 {
		return DepositResult{}, fmt.Errorf("amount must not be negative")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key := "deposit_hold:" + clientTxID
	if res, exists := l.depositTx[key]; exists {
		return res, ErrDuplicateTransaction
	}

	walletBalance, ok := l.balances[walletCode]
	if !ok {
		return DepositResult{}, fmt.Errorf("account %s not found", walletCode)
	}
	if walletBalance < amount {
		return DepositResult{}, ErrInsufficientFunds
	}

	l.balances[walletCode] = walletBalance - amount
	l.balances[StorageSuspenseAccountCode] += amount

	res := DepositResult{TransactionID: key, WalletBalance: l.balances[walletCode]}
	l.depositTx[key] = res
	return res, nil
}

func (l *inMemoryLedger) ReleaseDeposit(_ context.Context, walletCode, clientTxID string, amount int64) (DepositResult, error) {
	if amount < 0 {
		return DepositResult{}, fmt.Errorf("amount must not be negative")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key := "deposit_release:" + clientTxID
	if res, exists := l.depositTx[key]; exists {
		return res, ErrDuplicateTransaction
	}

	walletBalance, ok := l.balances[walletCode]
	if !ok {
		return DepositResult{}, fmt.Errorf("account %s not found", walletCode)
	}

	// The suspense account was funded by the matching hold, so the release is
	// applied without a funds check.
	l.balances[StorageSuspenseAccountCode] -= amount
	l.balances[walletCode] = walletBalance + amount

	res := DepositResult{TransactionID: key, WalletBalance: l.balances[walletCode]}
	l.depositTx[key] = res
	return res, nil
}
