package products

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saltyperk/kidocart/internal/domain/product"
)

var (
	ErrNotFound          = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

const productCols = `
	id, name, COALESCE(description,''), price, COALESCE(original_price,0),
	category, COALESCE(age_group,''), COALESCE(brand,''), images, stock,
	availability, rating, review_count, sizes, colors, COALESCE(badge,''),
	featured, created_at, updated_at`

func scanProduct(row pgx.Row) (product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.OriginalPrice,
		&p.Category, &p.AgeGroup, &p.Brand, &p.Images, &p.Stock,
		&p.Availability, &p.Rating, &p.ReviewCount, &p.Sizes, &p.Colors, &p.Badge,
		&p.Featured, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

type ListFilter struct {
	Category string
	Featured bool
}

func (r *Repo) List(ctx context.Context, f ListFilter) ([]product.Product, error) {
	q := `SELECT ` + productCols + ` FROM products WHERE true`
	args := []any{}
	if f.Category != "" {
		args = append(args, f.Category)
		q += ` AND category = $1`
	}
	if f.Featured {
		q += ` AND featured = true`
	}
	q += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []product.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) ByID(ctx context.Context, id int64) (product.Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productCols+` FROM products WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return product.Product{}, ErrNotFound
	}
	return p, err
}

type ProductInput struct {
	Name          string
	Description   string
	Price         float64
	OriginalPrice float64
	Category      string
	AgeGroup      string
	Brand         string
	Images        []string
	Stock         int
	Sizes         []string
	Colors        []string
	Badge         string
	Featured      bool
}

func (r *Repo) Create(ctx context.Context, in ProductInput) (product.Product, error) {
	return scanProduct(r.db.QueryRow(ctx, `
		INSERT INTO products
			(name, description, price, original_price, category, age_group, brand,
			 images, stock, availability, sizes, colors, badge, featured)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$9 > 0,$10,$11,$12,$13)
		RETURNING `+productCols+`
	`, in.Name, in.Description, in.Price, in.OriginalPrice, in.Category, in.AgeGroup, in.Brand,
		in.Images, in.Stock, in.Sizes, in.Colors, in.Badge, in.Featured))
}

// Update overwrites the allow-listed catalog fields. Stock changes go
// through DecrementStock/Restock, not here.
func (r *Repo) Update(ctx context.Context, id int64, in ProductInput) (product.Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `
		UPDATE products SET
			name=$2, description=$3, price=$4, original_price=$5, category=$6,
			age_group=$7, brand=$8, images=$9, sizes=$10, colors=$11, badge=$12,
			featured=$13, updated_at=now()
		WHERE id=$1
		RETURNING `+productCols+`
	`, id, in.Name, in.Description, in.Price, in.OriginalPrice, in.Category,
		in.AgeGroup, in.Brand, in.Images, in.Sizes, in.Colors, in.Badge, in.Featured))
	if errors.Is(err, pgx.ErrNoRows) {
		return product.Product{}, ErrNotFound
	}
	return p, err
}

// DecrementStock is a single conditional update with a floor check so
// concurrent checkouts can never drive stock negative. Availability is
// cleared in the same statement when the decrement empties the shelf.
// It runs on the caller's transaction: order insert and stock decrement
// must commit or roll back together.
func DecrementStock(ctx context.Context, tx pgx.Tx, productID int64, qty int) error {
	ct, err := tx.Exec(ctx, `
		UPDATE products
		SET stock = stock - $2,
		    availability = (stock - $2) > 0,
		    updated_at = now()
		WHERE id = $1 AND stock >= $2
	`, productID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// Restock compensates a cancelled order. Like DecrementStock it runs
// on the caller's transaction: the status flip and the stock return
// commit or roll back together.
func Restock(ctx context.Context, tx pgx.Tx, productID int64, qty int) error {
	_, err := tx.Exec(ctx, `
		UPDATE products
		SET stock = stock + $2,
		    availability = true,
		    updated_at = now()
		WHERE id = $1
	`, productID, qty)
	return err
}
