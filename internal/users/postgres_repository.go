package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yourusername/thankful-journal/internal/common"
	"github.com/yourusername/thankful-journal/internal/dbx"
)

const uniqueViolation = "23505"

// PostgresRepository は PostgreSQL 上の Repository 実装です。
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository は PostgresRepository を作成します。
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create はユーザーを挿入し、採番された ID と作成日時を設定して返します。
// ユーザー名の一意制約違反は common.ErrDuplicateUsername になります。
func (r *PostgresRepository) Create(ctx context.Context, user *User) (*User, error) {
	query :=
		`INSERT INTO users (name, username, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, user.Name, user.Username, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrDuplicateUsername
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

// GetByUsername はユーザー名（大文字小文字を区別）でユーザーを取得します。
func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	query :=
		`SELECT id, name, username, password_hash, created_at FROM users
		 WHERE username = $1`

	return r.scanOne(r.db.QueryRowContext(ctx, query, username))
}

// GetByID は ID でユーザーを取得します。
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	query :=
		`SELECT id, name, username, password_hash, created_at FROM users
		 WHERE id = $1`

	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*User, error) {
	user := &User{}
	err := row.Scan(&user.ID, &user.Name, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}
