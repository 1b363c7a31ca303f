package offer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/asset"
	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/ledger"
	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/notification"
	"github.com/shreeomw/2---Decentralized-Stock-exchange/internal/wallet"
)

// Service owns the offer record lifecycle: creation, owner cancellation and,
// on behalf of the settlement engine, closure.
type Service struct {
	repo        Repository
	assets      *asset.Service
	wallets     *wallet.Service
	ledger      ledger.Ledger
	notifier    notification.Notifier
	depositRate int64
}

// NewService builds an offer store service. depositRate is the per-byte
// storage deposit charged to offer creators.
func NewService(repo Repository, assets *asset.Service, wallets *wallet.Service, ledgerBackend ledger.Ledger, notifier notification.Notifier, depositRate int64) *Service {
	return &Service{repo: repo, assets: assets, wallets: wallets, ledger: ledgerBackend, notifier: notifier, depositRate: depositRate}
}

// CreateInput captures data required to create an offer. ID is the target
// storage slot; when empty a fresh identifier is allocated. Amount and Price
// carry no minimum: zero values are accepted, and no cap against the asset's
// total supply is enforced.
type CreateInput struct {
	ID      string
	AssetID string
	Amount  uint64
	Price   uint64
	OwnerID string
}

// Create records a standing buy intent against an existing asset and charges
// the creator's wallet the storage deposit for it. Nothing prevents the
// asset's current owner from creating an offer against its own asset.
func (s *Service) Create(ctx context.Context, input CreateInput) (Offer, error) {
	if _, err := uuid.Parse(input.OwnerID); err != nil {
		return Offer{}, fmt.Errorf("invalid owner id: %w", err)
	}
	if _, err := s.assets.Get(ctx, input.AssetID); err != nil {
		return Offer{}, err
	}

	id := input.ID
	if id == "" {
		id = uuid.New().String()
	} else {
		if _, err := uuid.Parse(id); err != nil {
			return Offer{}, fmt.Errorf("invalid offer id: %w", err)
		}
		if _, err := s.repo.Get(ctx, id); err == nil {
			return Offer{}, ErrAlreadyExists
		} else if !errors.Is(err, ErrNotFound) {
			return Offer{}, err
		}
	}

	ownerWallet, err := s.wallets.GetByOwner(ctx, input.OwnerID)
	if err != nil {
		return Offer{}, err
	}

	deposit := s.depositRate * recordSize
	if _, err := s.ledger.HoldDeposit(ctx, ownerWallet.AccountCode, "offer:"+id, deposit); err != nil {
		return Offer{}, err
	}

	o := Offer{
		ID:        id,
		AssetID:   input.AssetID,
		Amount:    input.Amount,
		Price:     input.Price,
		OwnerID:   input.OwnerID,
		Deposit:   deposit,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, o); err != nil {
		// The slot turned out to be taken after the deposit was held; hand
		// the deposit back before surfacing the failure.
		_, _ = s.ledger.ReleaseDeposit(ctx, ownerWallet.AccountCode, "offer:"+id, deposit)
		return Offer{}, err
	}

	return o, nil
}

// Get retrieves an offer record.
func (s *Service) Get(ctx context.Context, id string) (Offer, error) {
	return s.repo.Get(ctx, id)
}

// ListByAsset returns every standing offer against the given asset.
func (s *Service) ListByAsset(ctx context.Context, assetID string) ([]Offer, error) {
	return s.repo.ListByAsset(ctx, assetID)
}

// Cancel destroys an offer at its owner's request and refunds the storage
// deposit. Only the offer owner may cancel.
func (s *Service) Cancel(ctx context.Context, id, requestorID string) error {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if o.OwnerID != requestorID {
		return ErrNotOwner
	}
	if err := s.Close(ctx, o); err != nil {
		return err
	}
	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindOfferCancelled,
			Destination: o.OwnerID,
			Body:        fmt.Sprintf("Offer %s withdrawn, deposit of %d refunded", o.ID, o.Deposit),
		})
	}
	return nil
}

// Close destroys an offer record and releases its storage deposit back to
// the owner that funded it. Invoked by Cancel and, on successful settlement,
// by the settlement engine; all authorization happens before the call.
func (s *Service) Close(ctx context.Context, o Offer) error {
	if err := s.repo.Delete(ctx, o.ID); err != nil {
		return err
	}
	ownerWallet, err := s.wallets.GetByOwner(ctx, o.OwnerID)
	if err != nil {
		return err
	}
	_, err = s.ledger.ReleaseDeposit(ctx, ownerWallet.AccountCode, "offer:"+o.ID, o.Deposit)
	return err
}
