package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fincompass/fincompass/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindUserByID(ctx context.Context, id int64) (*User, error)
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, email, name, passwordHash, role string) (*User, error)
	TouchLastLogin(ctx context.Context, id int64) error
	// FindAPIKeyByHash returns a non-revoked key with the given hash along
	// with the owner of the key's business.
	FindAPIKeyByHash(ctx context.Context, hash string) (*APIKey, *User, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, email, name, password_hash, role, created_at, COALESCE(last_login, 'epoch'::timestamptz)`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.LastLogin); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// FindUserByID fetches a user by id.
func (r *PGRepository) FindUserByID(ctx context.Context, id int64) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// FindUserByEmail fetches a user by email.
func (r *PGRepository) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// CreateUser inserts a new account.
func (r *PGRepository) CreateUser(ctx context.Context, email, name, passwordHash, role string) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO users (email, name, password_hash, role, created_at)
		 VALUES ($1, $2, $3, $4, now())
		 RETURNING `+userColumns,
		email, name, passwordHash, role)
	user, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

// TouchLastLogin records a successful login timestamp.
func (r *PGRepository) TouchLastLogin(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_login = $1 WHERE id = $2`, time.Now().UTC(), id)
	return err
}

// FindAPIKeyByHash resolves a non-revoked API key and its business owner.
func (r *PGRepository) FindAPIKeyByHash(ctx context.Context, hash string) (*APIKey, *User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT k.id, k.business_id, COALESCE(k.name, ''), k.key_hash, COALESCE(k.scopes, ''), k.revoked, k.created_at,
		        u.id, u.email, u.name, u.password_hash, u.role, u.created_at, COALESCE(u.last_login, 'epoch'::timestamptz)
		 FROM api_keys k
		 JOIN businesses b ON b.id = k.business_id
		 JOIN users u ON u.id = b.owner_id
		 WHERE k.key_hash = $1 AND k.revoked = FALSE
		 LIMIT 1`, hash)
	var key APIKey
	var owner User
	var rawScopes string
	err := row.Scan(
		&key.ID, &key.BusinessID, &key.Name, &key.KeyHash, &rawScopes, &key.Revoked, &key.CreatedAt,
		&owner.ID, &owner.Email, &owner.Name, &owner.PasswordHash, &owner.Role, &owner.CreatedAt, &owner.LastLogin,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, shared.ErrNotFound
		}
		return nil, nil, err
	}
	key.Scopes = shared.SplitScopes(rawScopes)
	return &key, &owner, nil
}

var _ Repository = (*PGRepository)(nil)
