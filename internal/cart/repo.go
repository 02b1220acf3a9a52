package cart

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saltyperk/kidocart/internal/domain/cart"
)

var ErrNotFound = errors.New("cart item not found")

// Store is what the handlers and the order/payment flows need from cart
// persistence.
type Store interface {
	GetCart(ctx context.Context, userID int64) (cart.Cart, error)
	AddItem(ctx context.Context, userID, productID int64, qty int, size, color string) error
	UpdateItem(ctx context.Context, userID, productID int64, qty int, size, color string) error
	RemoveItem(ctx context.Context, userID, productID int64, size, color string) error
	ClearCart(ctx context.Context, userID int64) error
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

func (r *Repo) getOrCreateCartID(ctx context.Context, userID int64) (int64, error) {
	var cartID int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO carts (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = now()
		RETURNING id
	`, userID).Scan(&cartID)
	return cartID, err
}

// AddItem is an atomic find-or-increment keyed by (product, size, color).
// Two concurrent adds for the same key land on one row with the summed
// quantity instead of racing into duplicates.
func (r *Repo) AddItem(ctx context.Context, userID, productID int64, qty int, size, color string) error {
	size, color = NormalizeVariant(size, color)

	cartID, err := r.getOrCreateCartID(ctx, userID)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO cart_items (cart_id, product_id, size, color, quantity)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (cart_id, product_id, size, color)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
	`, cartID, productID, size, color, qty)
	return err
}

// UpdateItem sets the quantity of an existing line item. Quantity <= 0
// removes the line; that is the documented policy, not an error. A
// missing cart or item is ErrNotFound.
func (r *Repo) UpdateItem(ctx context.Context, userID, productID int64, qty int, size, color string) error {
	size, color = NormalizeVariant(size, color)

	if qty <= 0 {
		ct, err := r.db.Exec(ctx, `
			DELETE FROM cart_items ci
			USING carts c
			WHERE ci.cart_id = c.id AND c.user_id = $1
			  AND ci.product_id = $2 AND ci.size = $3 AND ci.color = $4
		`, userID, productID, size, color)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	}

	ct, err := r.db.Exec(ctx, `
		UPDATE cart_items ci
		SET quantity = $5
		FROM carts c
		WHERE ci.cart_id = c.id AND c.user_id = $1
		  AND ci.product_id = $2 AND ci.size = $3 AND ci.color = $4
	`, userID, productID, size, color, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveItem is a no-op when the line is already gone, so retries are
// harmless.
func (r *Repo) RemoveItem(ctx context.Context, userID, productID int64, size, color string) error {
	size, color = NormalizeVariant(size, color)

	_, err := r.db.Exec(ctx, `
		DELETE FROM cart_items ci
		USING carts c
		WHERE ci.cart_id = c.id AND c.user_id = $1
		  AND ci.product_id = $2 AND ci.size = $3 AND ci.color = $4
	`, userID, productID, size, color)
	return err
}

// GetCart returns an empty cart (items: []) when none exists yet; "no
// cart" and "empty cart" look identical to callers.
func (r *Repo) GetCart(ctx context.Context, userID int64) (cart.Cart, error) {
	out := cart.Cart{UserID: userID, Items: []cart.CartItem{}}

	err := r.db.QueryRow(ctx, `
		SELECT id, updated_at FROM carts WHERE user_id = $1
	`, userID).Scan(&out.ID, &out.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// no cart yet
		return out, nil
	}
	if err != nil {
		return cart.Cart{}, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT
		  ci.id, ci.product_id, ci.quantity, ci.size, ci.color, ci.added_at,
		  p.name, p.price,
		  COALESCE(p.images[1], ''),
		  p.stock, p.availability
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.added_at DESC
	`, out.ID)
	if err != nil {
		return cart.Cart{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var it cart.CartItem
		if err := rows.Scan(
			&it.ID, &it.ProductID, &it.Quantity, &it.Size, &it.Color, &it.AddedAt,
			&it.Name, &it.Price, &it.Image, &it.Stock, &it.Availability,
		); err != nil {
			return cart.Cart{}, err
		}
		out.Items = append(out.Items, it)
	}
	return out, rows.Err()
}

// ClearCart empties the item list. Called by the payment-success path,
// never by order creation.
func (r *Repo) ClearCart(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM cart_items ci
		USING carts c
		WHERE ci.cart_id = c.id AND c.user_id = $1
	`, userID)
	return err
}
