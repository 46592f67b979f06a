package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Fanatic033/shoro-market/internal/domain"
	"github.com/Fanatic033/shoro-market/pkg/database"
	apperrors "github.com/Fanatic033/shoro-market/pkg/errors"
)

const (
	addressColumns = `id, user_id, city, district, village, street, full_address, is_default, created_at`

	listAddressesSQL = `
		SELECT ` + addressColumns + `
		FROM addresses
		WHERE user_id = $1
		ORDER BY created_at, id`

	getAddressSQL = `
		SELECT ` + addressColumns + `
		FROM addresses
		WHERE id = $1 AND user_id = $2`

	getDefaultAddressSQL = `
		SELECT ` + addressColumns + `
		FROM addresses
		WHERE user_id = $1 AND is_default`

	insertAddressSQL = `
		INSERT INTO addresses (id, user_id, city, district, village, street, full_address, created_at, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8,
			NOT EXISTS (SELECT 1 FROM addresses WHERE user_id = $2 AND is_default))
		RETURNING is_default`

	updateAddressSQL = `
		UPDATE addresses
		SET city = $3, district = $4, village = $5, street = $6, full_address = $7
		WHERE id = $1 AND user_id = $2`

	deleteAddressSQL = `
		DELETE FROM addresses
		WHERE id = $1 AND user_id = $2
		RETURNING is_default`

	promoteOldestAddressSQL = `
		UPDATE addresses SET is_default = TRUE
		WHERE id = (
			SELECT id FROM addresses WHERE user_id = $1
			ORDER BY created_at, id
			LIMIT 1
		)`

	clearDefaultAddressSQL = `
		UPDATE addresses SET is_default = FALSE
		WHERE user_id = $1 AND is_default AND id <> $2`

	markDefaultAddressSQL = `
		UPDATE addresses SET is_default = TRUE
		WHERE id = $1 AND user_id = $2`
)

// AddressRepository implements repository.AddressRepository using PostgreSQL.
type AddressRepository struct {
	pool database.DBTX
}

// NewAddressRepository creates a new PostgreSQL-backed address repository.
func NewAddressRepository(pool database.DBTX) *AddressRepository {
	return &AddressRepository{pool: pool}
}

// ListByUser returns a customer's addresses, oldest first.
func (r *AddressRepository) ListByUser(ctx context.Context, userID string) (_ []domain.Address, err error) {
	ctx, end := database.TraceQuery(ctx, "ListAddresses", listAddressesSQL)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, listAddressesSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	addresses := make([]domain.Address, 0)
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan address row: %w", err)
		}
		addresses = append(addresses, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate address rows: %w", err)
	}

	return addresses, nil
}

// Get returns one of the customer's addresses.
func (r *AddressRepository) Get(ctx context.Context, userID, id string) (_ *domain.Address, err error) {
	ctx, end := database.TraceQuery(ctx, "GetAddress", getAddressSQL)
	defer func() { end(err) }()

	a, err := scanAddress(r.pool.QueryRow(ctx, getAddressSQL, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("address", id)
		}
		return nil, fmt.Errorf("scan address: %w", err)
	}
	return &a, nil
}

// GetDefault returns the customer's default address.
func (r *AddressRepository) GetDefault(ctx context.Context, userID string) (_ *domain.Address, err error) {
	ctx, end := database.TraceQuery(ctx, "GetDefaultAddress", getDefaultAddressSQL)
	defer func() { end(err) }()

	a, err := scanAddress(r.pool.QueryRow(ctx, getDefaultAddressSQL, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("default address", userID)
		}
		return nil, fmt.Errorf("scan default address: %w", err)
	}
	return &a, nil
}

// Create inserts an address, making it the default when the customer has none.
func (r *AddressRepository) Create(ctx context.Context, a *domain.Address) (err error) {
	ctx, end := database.TraceQuery(ctx, "CreateAddress", insertAddressSQL)
	defer func() { end(err) }()

	err = r.pool.QueryRow(ctx, insertAddressSQL,
		a.ID,
		a.UserID,
		a.City,
		a.District,
		a.Village,
		a.Street,
		a.FullAddress,
		a.CreatedAt,
	).Scan(&a.IsDefault)
	if err != nil {
		return fmt.Errorf("insert address: %w", err)
	}
	return nil
}

// Update overwrites the address parts and full address.
func (r *AddressRepository) Update(ctx context.Context, a *domain.Address) (err error) {
	ctx, end := database.TraceQuery(ctx, "UpdateAddress", updateAddressSQL)
	defer func() { end(err) }()

	tag, err := r.pool.Exec(ctx, updateAddressSQL,
		a.ID,
		a.UserID,
		a.City,
		a.District,
		a.Village,
		a.Street,
		a.FullAddress,
	)
	if err != nil {
		return fmt.Errorf("update address: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("address", a.ID)
	}
	return nil
}

// Delete removes an address and promotes the oldest remaining one when the
// default was removed.
func (r *AddressRepository) Delete(ctx context.Context, userID, id string) (wasDefault bool, err error) {
	ctx, end := database.TraceQuery(ctx, "DeleteAddress", deleteAddressSQL)
	defer func() { end(err) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err = tx.QueryRow(ctx, deleteAddressSQL, id, userID).Scan(&wasDefault); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, apperrors.NotFound("address", id)
		}
		return false, fmt.Errorf("delete address: %w", err)
	}

	if wasDefault {
		if _, err = tx.Exec(ctx, promoteOldestAddressSQL, userID); err != nil {
			return false, fmt.Errorf("promote default address: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit transaction: %w", err)
	}
	return wasDefault, nil
}

// SetDefault makes id the customer's only default address.
func (r *AddressRepository) SetDefault(ctx context.Context, userID, id string) (err error) {
	ctx, end := database.TraceQuery(ctx, "SetDefaultAddress", markDefaultAddressSQL)
	defer func() { end(err) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err = tx.Exec(ctx, clearDefaultAddressSQL, userID, id); err != nil {
		return fmt.Errorf("clear default address: %w", err)
	}

	tag, err := tx.Exec(ctx, markDefaultAddressSQL, id, userID)
	if err != nil {
		return fmt.Errorf("mark default address: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("address", id)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func scanAddress(row pgx.Row) (domain.Address, error) {
	var a domain.Address
	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.City,
		&a.District,
		&a.Village,
		&a.Street,
		&a.FullAddress,
		&a.IsDefault,
		&a.CreatedAt,
	)
	return a, err
}
