package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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

const orderColumns = `id::text, session_id, user_id, items, subtotal_cents, shipping_cents, total_cents,
shipping_method, customer, ship_to, payment_method, payment_status, installments,
transaction_id, pix_code, boleto_url, boleto_due_date, created_at`

func (r *postgresRepo) Create(ctx context.Context, o domain.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	customer, err := json.Marshal(o.Customer)
	if err != nil {
		return fmt.Errorf("encode customer: %w", err)
	}
	shipTo, err := json.Marshal(o.ShipTo)
	if err != nil {
		return fmt.Errorf("encode address: %w", err)
	}

	q := `
INSERT INTO orders (id, session_id, user_id, items, subtotal_cents, shipping_cents, total_cents,
    shipping_method, customer, ship_to, payment_method, payment_status, installments,
    transaction_id, pix_code, boleto_url, boleto_due_date, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
`
	_, err = r.pool.Exec(ctx, q,
		o.ID, o.SessionID, o.UserID, items,
		int64(o.Subtotal), int64(o.Shipping), int64(o.Total),
		string(o.ShippingMethod), customer, shipTo,
		string(o.PaymentMethod), string(o.PaymentStatus), o.Installments,
		o.TransactionID, o.PixCode, o.BoletoURL, o.BoletoDueDate, o.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAlreadyExists
		}
		r.logger.Error("order repo: create failed", zap.String("order_id", o.ID), zap.Error(err))
		return err
	}
	r.logger.Debug("order repo: created", zap.String("order_id", o.ID), zap.Int64("total", int64(o.Total)))
	return nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE id::text = $1`
	o, err := scanOrder(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) ListBySession(ctx context.Context, sessionID string) ([]domain.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE session_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (r *postgresRepo) UpdatePayment(ctx context.Context, id string, status domain.OrderPaymentStatus, transactionID string) error {
	q := `
UPDATE orders
SET payment_status = $2,
    transaction_id = CASE WHEN $3 = '' THEN transaction_id ELSE $3 END,
    updated_at = now()
WHERE id::text = $1
`
	tag, err := r.pool.Exec(ctx, q, id, string(status), transactionID)
	if err != nil {
		r.logger.Error("order repo: update payment failed", zap.String("order_id", id), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o                            domain.Order
		items, customer, shipTo      []byte
		subtotal, shipping, total    int64
		method, payMethod, payStatus string
	)
	err := row.Scan(&o.ID, &o.SessionID, &o.UserID, &items, &subtotal, &shipping, &total,
		&method, &customer, &shipTo, &payMethod, &payStatus, &o.Installments,
		&o.TransactionID, &o.PixCode, &o.BoletoURL, &o.BoletoDueDate, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("decode items of order %s: %w", o.ID, err)
	}
	if err := json.Unmarshal(customer, &o.Customer); err != nil {
		return nil, fmt.Errorf("decode customer of order %s: %w", o.ID, err)
	}
	if err := json.Unmarshal(shipTo, &o.ShipTo); err != nil {
		return nil, fmt.Errorf("decode address of order %s: %w", o.ID, err)
	}
	o.Subtotal, o.Shipping, o.Total = domain.Money(subtotal), domain.Money(shipping), domain.Money(total)
	o.ShippingMethod = domain.ShippingMethod(method)
	o.PaymentMethod = domain.PaymentMethod(payMethod)
	o.PaymentStatus = domain.OrderPaymentStatus(payStatus)
	return &o, nil
}
