package orders

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saltyperk/kidocart/internal/domain/order"
	"github.com/saltyperk/kidocart/internal/products"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

// Create inserts the order snapshot and decrements stock for every line
// in one transaction. If any line would oversell, the whole order rolls
// back and ErrInsufficientStock comes out.
func (r *Repo) Create(ctx context.Context, o *order.Order) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO orders
			(order_number, user_id, subtotal, shipping, tax, total,
			 ship_first_name, ship_last_name, ship_phone, ship_address, ship_address2,
			 ship_city, ship_state, ship_zip, ship_country,
			 payment_method, payment_status, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$19)
		RETURNING id
	`, o.OrderNumber, o.UserID, o.Subtotal, o.Shipping, o.Tax, o.Total,
		o.ShippingAddress.FirstName, o.ShippingAddress.LastName, o.ShippingAddress.Phone,
		o.ShippingAddress.Address, o.ShippingAddress.Address2,
		o.ShippingAddress.City, o.ShippingAddress.State, o.ShippingAddress.Zip, o.ShippingAddress.Country,
		o.PaymentMethod, o.PaymentStatus, o.Status, o.CreatedAt).Scan(&o.ID)
	if err != nil {
		return err
	}

	for _, it := range o.Items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items (order_id, product_id, name, price, quantity, size, color, image)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`, o.ID, it.ProductID, it.Name, it.Price, it.Quantity, it.Size, it.Color, it.Image); err != nil {
			return err
		}

		if err := products.DecrementStock(ctx, tx, it.ProductID, it.Quantity); err != nil {
			if errors.Is(err, products.ErrInsufficientStock) {
				return ErrInsufficientStock
			}
			return err
		}
	}

	return tx.Commit(ctx)
}

const orderCols = `
	id, order_number, user_id, subtotal, shipping, tax, total,
	ship_first_name, ship_last_name, ship_phone, ship_address, COALESCE(ship_address2,''),
	ship_city, ship_state, ship_zip, COALESCE(ship_country,''),
	payment_method, payment_status, COALESCE(transaction_id,''), COALESCE(merchant_transaction_id,''),
	paid_at, status, cancelled_at, created_at, updated_at`

func scanOrder(row pgx.Row) (order.Order, error) {
	var o order.Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.Subtotal, &o.Shipping, &o.Tax, &o.Total,
		&o.ShippingAddress.FirstName, &o.ShippingAddress.LastName, &o.ShippingAddress.Phone,
		&o.ShippingAddress.Address, &o.ShippingAddress.Address2,
		&o.ShippingAddress.City, &o.ShippingAddress.State, &o.ShippingAddress.Zip, &o.ShippingAddress.Country,
		&o.PaymentMethod, &o.PaymentStatus, &o.TransactionID, &o.MerchantTransactionID,
		&o.PaidAt, &o.Status, &o.CancelledAt, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

func (r *Repo) loadItems(ctx context.Context, o *order.Order) error {
	rows, err := r.db.Query(ctx, `
		SELECT product_id, name, price, quantity, size, color, COALESCE(image,'')
		FROM order_items WHERE order_id = $1 ORDER BY id ASC
	`, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	o.Items = []order.Item{}
	for rows.Next() {
		var it order.Item
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Price, &it.Quantity, &it.Size, &it.Color, &it.Image); err != nil {
			return err
		}
		o.Items = append(o.Items, it)
	}
	return rows.Err()
}

func (r *Repo) ByNumber(ctx context.Context, number string) (order.Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderCols+` FROM orders WHERE order_number=$1`, number))
	if errors.Is(err, pgx.ErrNoRows) {
		return order.Order{}, ErrNotFound
	}
	if err != nil {
		return order.Order{}, err
	}
	return o, r.loadItems(ctx, &o)
}

func (r *Repo) ByNumberForUser(ctx context.Context, userID int64, number string) (order.Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, `
		SELECT `+orderCols+` FROM orders WHERE order_number=$1 AND user_id=$2
	`, number, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return order.Order{}, ErrNotFound
	}
	if err != nil {
		return order.Order{}, err
	}
	return o, r.loadItems(ctx, &o)
}

func (r *Repo) list(ctx context.Context, q string, args ...any) ([]order.Order, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []order.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := r.loadItems(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *Repo) ListByUser(ctx context.Context, userID int64) ([]order.Order, error) {
	return r.list(ctx, `SELECT `+orderCols+` FROM orders WHERE user_id=$1 ORDER BY created_at DESC`, userID)
}

func (r *Repo) ListAll(ctx context.Context) ([]order.Order, error) {
	return r.list(ctx, `SELECT `+orderCols+` FROM orders ORDER BY created_at DESC`)
}

// MarkCancelled flips the status conditionally and returns the
// reserved stock in the same transaction; the guard on current status
// makes the transition happen at most once even when two cancel
// requests race, and a restock failure rolls the flip back.
func (r *Repo) MarkCancelled(ctx context.Context, number string, at time.Time) (bool, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var orderID int64
	err = tx.QueryRow(ctx, `
		UPDATE orders
		SET status=$2, cancelled_at=$3, updated_at=now()
		WHERE order_number=$1 AND status NOT IN ($4, $2)
		RETURNING id
	`, number, order.StatusCancelled, at, order.StatusDelivered).Scan(&orderID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	rows, err := tx.Query(ctx, `
		SELECT product_id, quantity FROM order_items WHERE order_id=$1
	`, orderID)
	if err != nil {
		return false, err
	}
	type line struct {
		productID int64
		qty       int
	}
	var lines []line
	for rows.Next() {
		var l line
		if err := rows.Scan(&l.productID, &l.qty); err != nil {
			rows.Close()
			return false, err
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return false, err
	}

	for _, l := range lines {
		if err := products.Restock(ctx, tx, l.productID, l.qty); err != nil {
			return false, err
		}
	}

	return true, tx.Commit(ctx)
}

func (r *Repo) UpdateStatus(ctx context.Context, number, status string) (order.Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, `
		UPDATE orders SET status=$2, updated_at=now()
		WHERE order_number=$1
		RETURNING `+orderCols+`
	`, number, status))
	if errors.Is(err, pgx.ErrNoRows) {
		return order.Order{}, ErrNotFound
	}
	if err != nil {
		return order.Order{}, err
	}
	return o, r.loadItems(ctx, &o)
}

// SetPaymentInitiated stores the merchant transaction id handed to the
// gateway and moves payment to initiated.
func (r *Repo) SetPaymentInitiated(ctx context.Context, number, merchantTxnID string) error {
	ct, err := r.db.Exec(ctx, `
		UPDATE orders
		SET merchant_transaction_id=$2, payment_status=$3, updated_at=now()
		WHERE order_number=$1
	`, number, merchantTxnID, order.PaymentInitiated)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPaymentResult records the callback outcome. The guard on the
// current payment status makes paid a terminal state: of two racing
// deliveries only one write lands, and the caller learns which one it
// was from the return value.
func (r *Repo) SetPaymentResult(ctx context.Context, number, status, transactionID string, paidAt *time.Time) (bool, error) {
	ct, err := r.db.Exec(ctx, `
		UPDATE orders
		SET payment_status=$2, transaction_id=$3, paid_at=$4, updated_at=now()
		WHERE order_number=$1 AND payment_status <> $5
	`, number, status, transactionID, paidAt, order.PaymentPaid)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}
