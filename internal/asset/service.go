package asset

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/ledger"
	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/wallet"
)

// Service owns the asset record lifecycle: creation and, on behalf of the
// settlement engine, ownership transfer.
type Service struct {
	repo        Repository
	wallets     *wallet.Service
	ledger      ledger.Ledger
	depositRate int64
}

// NewService builds an asset registry service. depositRate is the per-byte
// storage deposit charged to record creators.
func NewService(repo Repository, wallets *wallet.Service, ledgerBackend ledger.Ledger, depositRate int64) *Service {
	return &Service{repo: repo, wallets: wallets, ledger: ledgerBackend, depositRate: depositRate}
}

// CreateInput captures data required to create an asset record. ID is the
// target storage slot; when empty a fresh identifier is allocated.
type CreateInput struct {
	ID           string
	Name         string
	Symbol       string
	TotalSupply  uint64
	CurrentPrice uint64
	OwnerID      string
}

// Create allocates an asset record owned by the creator and charges the
// creator's wallet the storage deposit for it.
func (s *Service) Create(ctx context.Context, input CreateInput) (Asset, error) {
	if input.Name == "" || len(input.Name) > maxNameLen {
		return Asset{}, fmt.Errorf("name must be 1-%d bytes", maxNameLen)
	}
	if input.Symbol == "" || len(input.Symbol) > maxSymbolLen {
		return Asset{}, fmt.Errorf("symbol must be 1-%d bytes", maxSymbolLen)
	}
	if _, err := uuid.Parse(input.OwnerID); err != nil {
		return Asset{}, fmt.Errorf("invalid owner id: %w", err)
	}

	id := input.ID
	if id == "" {
		id = uuid.New().String()
	} else {
		if _, err := uuid.Parse(id); err != nil {
			return Asset{}, fmt.Errorf("invalid asset id: %w", err)
		}
		if _, err := s.repo.Get(ctx, id); err == nil {
			return Asset{}, ErrAlreadyExists
		} else if !errors.Is(err, ErrNotFound) {
			return Asset{}, err
		}
	}

	ownerWallet, err := s.wallets.GetByOwner(ctx, input.OwnerID)
	if err != nil {
		return Asset{}, err
	}

	deposit := s.depositRate * RecordSize(input.Name, input.Symbol)
	if _, err := s.ledger.HoldDeposit(ctx, ownerWallet.AccountCode, "asset:"+id, deposit); err != nil {
		return Asset{}, err
	}

	a := Asset{
		ID:           id,
		OwnerID:      input.OwnerID,
		Name:         input.Name,
		Symbol:       input.Symbol,
		TotalSupply:  input.TotalSupply,
		CurrentPrice: input.CurrentPrice,
		Deposit:      deposit,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, a); err != nil {
		// The slot turned out to be taken after the deposit was held; hand
		// the deposit back before surfacing the failure.
		_, _ = s.ledger.ReleaseDeposit(ctx, ownerWallet.AccountCode, "asset:"+id, deposit)
		return Asset{}, err
	}

	return a, nil
}

// Get retrieves an asset record.
func (s *Service) Get(ctx context.Context, id string) (Asset, error) {
	return s.repo.Get(ctx, id)
}

// List returns all asset records.
func (s *Service) List(ctx context.Context) ([]Asset, error) {
	return s.repo.List(ctx)
}

// TransferOwnership reassigns the asset to newOwnerID unconditionally. It is
// invoked solely by the settlement engine, which performs every authorization
// check before calling.
func (s *Service) TransferOwnership(ctx context.Context, assetID, newOwnerID string) error {
	return s.repo.SetOwner(ctx, assetID, newOwnerID)
}
