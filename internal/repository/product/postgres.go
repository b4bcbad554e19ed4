package product

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"lavibaby-storefront/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const productColumns = `id, name, price_cents, original_price_cents, image, category, sizes, colors, rating, COALESCE(description, ''), stock, created_at`

func (r *postgresRepo) List(ctx context.Context, f Filter) ([]domain.Product, error) {
	q := `SELECT ` + productColumns + `
FROM products
WHERE ($1 = '' OR lower(category) = lower($1))
ORDER BY id
`
	rows, err := r.pool.Query(ctx, q, f.Category)
	if err != nil {
		r.logger.Error("product repo: list failed", zap.String("category", f.Category), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	result := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("product repo: list rows failed", zap.Error(err))
		return nil, err
	}
	r.logger.Debug("product repo: list", zap.String("category", f.Category), zap.Int("count", len(result)))
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("product repo: get failed", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT category FROM products WHERE category <> '' ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Upsert inserts a product or replaces the one with the same id. A zero id
// lets the database pick one.
func (r *postgresRepo) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	sizes, colors := nonNil(p.Sizes), nonNil(p.Colors)
	var (
		row pgx.Row
		q   string
	)
	if p.ID == 0 {
		q = `
INSERT INTO products (name, price_cents, original_price_cents, image, category, sizes, colors, rating, description, stock)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10)
RETURNING ` + productColumns
		row = r.pool.QueryRow(ctx, q, p.Name, int64(p.Price), int64(p.OriginalPrice), p.Image, p.Category, sizes, colors, p.Rating, p.Description, p.Stock)
	} else {
		q = `
INSERT INTO products (id, name, price_cents, original_price_cents, image, category, sizes, colors, rating, description, stock)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), $11)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    price_cents = EXCLUDED.price_cents,
    original_price_cents = EXCLUDED.original_price_cents,
    image = EXCLUDED.image,
    category = EXCLUDED.category,
    sizes = EXCLUDED.sizes,
    colors = EXCLUDED.colors,
    rating = EXCLUDED.rating,
    description = EXCLUDED.description,
    stock = EXCLUDED.stock
RETURNING ` + productColumns
		row = r.pool.QueryRow(ctx, q, p.ID, p.Name, int64(p.Price), int64(p.OriginalPrice), p.Image, p.Category, sizes, colors, p.Rating, p.Description, p.Stock)
	}
	res, err := scanProduct(row)
	if err != nil {
		r.logger.Error("product repo: upsert failed", zap.Int64("id", p.ID), zap.String("name", p.Name), zap.Error(err))
		return nil, err
	}
	if p.ID != 0 {
		// keep the identity sequence ahead of explicitly chosen ids
		const bump = `SELECT setval(pg_get_serial_sequence('products', 'id'), GREATEST((SELECT MAX(id) FROM products), 1))`
		if _, err := r.pool.Exec(ctx, bump); err != nil {
			return nil, err
		}
	}
	r.logger.Info("product repo: upserted", zap.Int64("id", res.ID), zap.String("name", res.Name))
	return res, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	var price, original int64
	if err := row.Scan(&p.ID, &p.Name, &price, &original, &p.Image, &p.Category, &p.Sizes, &p.Colors, &p.Rating, &p.Description, &p.Stock, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Price = domain.Money(price)
	p.OriginalPrice = domain.Money(original)
	return &p, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
