package addresses

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saltyperk/kidocart/internal/domain/address"
)

var ErrNotFound = errors.New("address not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

func (r *Repo) ListByUser(ctx context.Context, userID int64) ([]address.Address, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, first_name, last_name, address, COALESCE(apartment,''),
		       city, state, pincode, is_default, created_at
		FROM addresses
		WHERE user_id = $1
		ORDER BY is_default DESC, created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []address.Address
	for rows.Next() {
		var a address.Address
		if err := rows.Scan(&a.ID, &a.UserID, &a.FirstName, &a.LastName, &a.Address, &a.Apartment,
			&a.City, &a.State, &a.Pincode, &a.IsDefault, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type AddressInput struct {
	FirstName string
	LastName  string
	Address   string
	Apartment string
	City      string
	State     string
	Pincode   string
	IsDefault bool
}

// Create inserts an address. The first address for a user always becomes
// default; an explicit default clears all others. Both writes run inside
// one transaction so the at-most-one-default invariant holds even if a
// concurrent request is doing the same.
func (r *Repo) Create(ctx context.Context, userID int64, in AddressInput) (address.Address, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return address.Address{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var count int
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM addresses WHERE user_id=$1`, userID).Scan(&count); err != nil {
		return address.Address{}, err
	}

	makeDefault := count == 0 || in.IsDefault
	if makeDefault {
		if _, err := tx.Exec(ctx, `UPDATE addresses SET is_default=false WHERE user_id=$1`, userID); err != nil {
			return address.Address{}, err
		}
	}

	var a address.Address
	err = tx.QueryRow(ctx, `
		INSERT INTO addresses (user_id, first_name, last_name, address, apartment, city, state, pincode, is_default)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id, user_id, first_name, last_name, address, COALESCE(apartment,''),
		          city, state, pincode, is_default, created_at
	`, userID, in.FirstName, in.LastName, in.Address, in.Apartment, in.City, in.State, in.Pincode, makeDefault).Scan(
		&a.ID, &a.UserID, &a.FirstName, &a.LastName, &a.Address, &a.Apartment,
		&a.City, &a.State, &a.Pincode, &a.IsDefault, &a.CreatedAt,
	)
	if err != nil {
		return address.Address{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return address.Address{}, err
	}
	return a, nil
}

func (r *Repo) Update(ctx context.Context, userID, id int64, in AddressInput) (address.Address, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return address.Address{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if in.IsDefault {
		if _, err := tx.Exec(ctx, `UPDATE addresses SET is_default=false WHERE user_id=$1`, userID); err != nil {
			return address.Address{}, err
		}
	}

	var a address.Address
	err = tx.QueryRow(ctx, `
		UPDATE addresses
		SET first_name=$3, last_name=$4, address=$5, apartment=$6, city=$7, state=$8, pincode=$9,
		    is_default = (is_default OR $10)
		WHERE id=$2 AND user_id=$1
		RETURNING id, user_id, first_name, last_name, address, COALESCE(apartment,''),
		          city, state, pincode, is_default, created_at
	`, userID, id, in.FirstName, in.LastName, in.Address, in.Apartment, in.City, in.State, in.Pincode, in.IsDefault).Scan(
		&a.ID, &a.UserID, &a.FirstName, &a.LastName, &a.Address, &a.Apartment,
		&a.City, &a.State, &a.Pincode, &a.IsDefault, &a.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return address.Address{}, ErrNotFound
	}
	if err != nil {
		return address.Address{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return address.Address{}, err
	}
	return a, nil
}

// Delete removes an address. When the default goes away, the most
// recently created remaining address is promoted inside the same
// transaction so the user is never left without a default.
func (r *Repo) Delete(ctx context.Context, userID, id int64) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var wasDefault bool
	err = tx.QueryRow(ctx, `
		DELETE FROM addresses WHERE id=$1 AND user_id=$2
		RETURNING is_default
	`, id, userID).Scan(&wasDefault)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if wasDefault {
		_, err = tx.Exec(ctx, `
			UPDATE addresses SET is_default=true
			WHERE id = (
				SELECT id FROM addresses WHERE user_id=$1
				ORDER BY created_at DESC LIMIT 1
			)
		`, userID)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
