package offer

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrAlreadyExists indicates the target offer slot already holds an
	// initialized record.
	ErrAlreadyExists = errors.New("offer already exists")

	// ErrNotFound indicates the referenced offer record does not resolve.
	ErrNotFound = errors.New("offer not found")

	// ErrNotOwner indicates the caller does not own the offer it tried to cancel.
	ErrNotOwner = errors.New("not owner of offer")
)

// Repository persists offer records.
type Repository interface {
	Create(ctx context.Context, o Offer) error
	Get(ctx context.Context, id string) (Offer, error)
	ListByAsset(ctx context.Context, assetID string) ([]Offer, error)
	Delete(ctx context.Context, id string) error
}

// PostgresRepository stores offers in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts an offer record, failing when the identifier is taken.
func (r *PostgresRepository) Create(ctx context.Context, o Offer) error {
	offerID, err := uuid.Parse(o.ID)
	if err != nil {
		return err
	}
	assetID, err := uuid.Parse(o.AssetID)
	if err != nil {
		return err
	}
	ownerID, err := uuid.Parse(o.OwnerID)
	if err != nil {
		return err
	}
	cmd, err := r.db.Exec(ctx, `INSERT INTO offers (id, asset_id, amount, price, owner_id, deposit, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (id) DO NOTHING`,
		offerID, assetID, int64(o.Amount), int64(o.Price), ownerID, o.Deposit, o.CreatedAt.UTC())
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAlreadyExists
	}
	return nil
}

// Get fetches an offer record by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Offer, error) {
	offerID, err := uuid.Parse(id)
	if err != nil {
		return Offer{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT id, asset_id, amount, price, owner_id, deposit, created_at
        FROM offers WHERE id = $1`, offerID)
	o, err := scanOffer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Offer{}, ErrNotFound
		}
		return Offer{}, err
	}
	return o, nil
}

// ListByAsset returns every standing offer against the given asset.
func (r *PostgresRepository) ListByAsset(ctx context.Context, assetID string) ([]Offer, error) {
	assetUUID, err := uuid.Parse(assetID)
	if err != nil {
		return nil, ErrNotFound
	}
	rows, err := r.db.Query(ctx, `SELECT id, asset_id, amount, price, owner_id, deposit, created_at
        FROM offers WHERE asset_id = $1 ORDER BY created_at`, assetUUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var offers []Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, o)
	}
	return offers, rows.Err()
}

const deleteOfferSQL = `DELETE FROM offers WHERE id = $1`

// Delete removes an offer record.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	offerID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, deleteOfferSQL, offerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTx removes an offer record inside a caller-owned transaction.
func DeleteTx(ctx context.Context, tx pgx.Tx, id string) error {
	offerID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := tx.Exec(ctx, deleteOfferSQL, offerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanOffer(row pgx.Row) (Offer, error) {
	var (
		o         Offer
		id        uuid.UUID
		assetID   uuid.UUID
		ownerID   uuid.UUID
		amount    int64
		price     int64
		createdAt time.Time
	)
	if err := row.Scan(&id, &assetID, &amount, &price, &ownerID, &o.Deposit, &createdAt); err != nil {
		return Offer{}, err
	}
	o.ID = id.String()
	o.AssetID = assetID.String()
	o.Amount = uint64(amount)
	o.Price = uint64(price)
	o.OwnerID = ownerID.String()
	o.CreatedAt = createdAt.UTC()
	return o, nil
}
