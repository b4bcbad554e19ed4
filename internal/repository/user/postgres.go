package user

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

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

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const userColumns = `id::text, email, role, name, cpf, phone, address, accepts_newsletter, password_hash, created_at`

func (r *postgresRepo) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	var addrJSON []byte
	if u.Address != nil {
		var err error
		addrJSON, err = json.Marshal(u.Address)
		if err != nil {
			return nil, err
		}
	}
	role := u.Role
	if role == "" {
		role = domain.RoleUser
	}

	q := `
INSERT INTO users (email, role, name, cpf, phone, address, accepts_newsletter, password_hash)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + userColumns
	return r.scanUser(r.pool.QueryRow(ctx, q,
		strings.ToLower(strings.TrimSpace(u.Email)),
		string(role),
		u.Name,
		u.CPF,
		u.Phone,
		addrJSON,
		u.AcceptsNewsletter,
		u.PasswordHash,
	))
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1) LIMIT 1`
	return r.scanUser(r.pool.QueryRow(ctx, q, strings.TrimSpace(email)))
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id::text = $1 LIMIT 1`
	return r.scanUser(r.pool.QueryRow(ctx, q, id))
}

func (r *postgresRepo) scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var role string
	var addrJSON []byte
	err := row.Scan(&u.ID, &u.Email, &role, &u.Name, &u.CPF, &u.Phone, &addrJSON, &u.AcceptsNewsletter, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Error("user repo: scan failed", zap.Error(err))
		return nil, err
	}
	u.Role = domain.Role(role)
	if len(addrJSON) > 0 {
		var a domain.Address
		if err := json.Unmarshal(addrJSON, &a); err != nil {
			return nil, err
		}
		u.Address = &a
	}
	return &u, nil
}
