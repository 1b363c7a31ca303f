package asset

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrAlreadyExists indicates the target asset slot already holds an
	// initialized record.
	ErrAlreadyExists = errors.New("asset already exists")

	// ErrNotFound indicates the referenced asset record does not resolve.
	ErrNotFound = errors.New("asset not found")
)

// Repository persists asset records.
type Repository interface {
	Create(ctx context.Context, a Asset) error
	Get(ctx context.Context, id string) (Asset, error)
	List(ctx context.Context) ([]Asset, error)
	SetOwner(ctx context.Context, id, ownerID string) error
}

// PostgresRepository stores assets in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts an asset record, failing when the identifier is taken.
func (r *PostgresRepository) Create(ctx context.Context, a Asset) error {
	assetID, err := uuid.Parse(a.ID)
	if err != nil {
		return err
	}
	ownerID, err := uuid.Parse(a.OwnerID)
	if err != nil {
		return err
	}
	cmd, err := r.db.Exec(ctx, `INSERT INTO assets (id, owner_id, name, symbol, total_supply, current_price, deposit, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (id) DO NOTHING`,
		assetID, ownerID, a.Name, a.Symbol, int64(a.TotalSupply), int64(a.CurrentPrice), a.Deposit, a.CreatedAt.UTC())
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAlreadyExists
	}
	return nil
}

// Get fetches an asset record by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Asset, error) {
	assetID, err := uuid.Parse(id)
	if err != nil {
		return Asset{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT id, owner_id, name, symbol, total_supply, current_price, deposit, created_at
        FROM assets WHERE id = $1`, assetID)
	a, err := scanAsset(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Asset{}, ErrNotFound
		}
		return Asset{}, err
	}
	return a, nil
}

// List returns every asset record.
func (r *PostgresRepository) List(ctx context.Context) ([]Asset, error) {
	rows, err := r.db.Query(ctx, `SELECT id, owner_id, name, symbol, total_supply, current_price, deposit, created_at
        FROM assets ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

const setOwnerSQL = `UPDATE assets SET owner_id = $1 WHERE id = $2`

// SetOwner reassigns the asset's owner unconditionally. Callers perform all
// authorization checks before invoking it.
func (r *PostgresRepository) SetOwner(ctx context.Context, id, ownerID string) error {
	assetID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	newOwner, err := uuid.Parse(ownerID)
	if err != nil {
		return err
	}
	cmd, err := r.db.Exec(ctx, setOwnerSQL, newOwner, assetID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetOwnerTx reassigns the asset's owner inside a caller-owned transaction.
func SetOwnerTx(ctx context.Context, tx pgx.Tx, id, ownerID string) error {
	assetID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	newOwner, err := uuid.Parse(ownerID)
	if err != nil {
		return err
	}
	cmd, err := tx.Exec(ctx, setOwnerSQL, newOwner, assetID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAsset(row pgx.Row) (Asset, error) {
	var (
		a            Asset
		id           uuid.UUID
		ownerID      uuid.UUID
		totalSupply  int64
		currentPrice int64
		createdAt    time.Time
	)
	if err := row.Scan(&id, &ownerID, &a.Name, &a.Symbol, &totalSupply, &currentPrice, &a.Deposit, &createdAt); err != nil {
		return Asset{}, err
	}
	a.ID = id.String()
	a.OwnerID = ownerID.String()
	a.TotalSupply = uint64(totalSupply)
	a.CurrentPrice = uint64(currentPrice)
	a.CreatedAt = createdAt.UTC()
	return a, nil
}
