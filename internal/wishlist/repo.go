package wishlist

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saltyperk/kidocart/internal/domain/wishlist"
)

type Store interface {
	Toggle(ctx context.Context, userID, productID int64) (added bool, err error)
	Remove(ctx context.Context, userID, productID int64) error
	List(ctx context.Context, userID int64) ([]wishlist.Item, error)
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

// Toggle adds the product and reports added=true, or removes it and
// reports added=false. The insert uses ON CONFLICT DO NOTHING so two
// concurrent toggles for the same user cannot duplicate an entry.
func (r *Repo) Toggle(ctx context.Context, userID, productID int64) (bool, error) {
	ct, err := r.db.Exec(ctx, `
		INSERT INTO wishlist_items (user_id, product_id)
		VALUES ($1,$2)
		ON CONFLICT (user_id, product_id) DO NOTHING
	`, userID, productID)
	if err != nil {
		return false, err
	}
	if ct.RowsAffected() > 0 {
		return true, nil
	}

	// already present: toggle means remove
	if _, err := r.db.Exec(ctx, `
		DELETE FROM wishlist_items WHERE user_id=$1 AND product_id=$2
	`, userID, productID); err != nil {
		return false, err
	}
	return false, nil
}

// Remove is idempotent; deleting an absent entry is not an error.
func (r *Repo) Remove(ctx context.Context, userID, productID int64) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM wishlist_items WHERE user_id=$1 AND product_id=$2
	`, userID, productID)
	return err
}

func (r *Repo) List(ctx context.Context, userID int64) ([]wishlist.Item, error) {
	rows, err := r.db.Query(ctx, `
		SELECT
		  wi.product_id, wi.added_at,
		  p.name, p.price,
		  COALESCE(p.images[1], ''),
		  p.availability, p.stock
		FROM wishlist_items wi
		JOIN products p ON p.id = wi.product_id
		WHERE wi.user_id = $1
		ORDER BY wi.added_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []wishlist.Item{}
	for rows.Next() {
		var it wishlist.Item
		if err := rows.Scan(&it.ProductID, &it.AddedAt, &it.Name, &it.Price, &it.Image, &it.Availability, &it.Stock); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
