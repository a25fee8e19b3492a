package entries

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/yourusername/thankful-journal/internal/common"
	"github.com/yourusername/thankful-journal/internal/dbx"
)

// PostgresRepository は PostgreSQL 上の Repository 実装です。
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository は PostgresRepository を作成します。
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, entry *Entry) (*Entry, error) {
	query :=
		`INSERT INTO entries (body, entry_date, user_id)
		 VALUES ($1, $2, $3)
		 RETURNING id`

	err := r.db.QueryRowContext(ctx, query, entry.Body, entry.EntryDate, entry.UserID).Scan(&entry.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return entry, nil
}

// ListByUser はユーザーのエントリーを作成日時の昇順で返します。
func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]Entry, error) {
	query :=
		`SELECT id, body, entry_date, user_id FROM entries
		 WHERE user_id = $1
		 ORDER BY entry_date ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Body, &e.EntryDate, &e.UserID); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		e.EntryDate = e.EntryDate.UTC()
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// DeleteByID は所有者に関係なくエントリーを削除します。
func (r *PostgresRepository) DeleteByID(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM entries WHERE id = $1`, id)
	return affectedOrNotFound(res, err)
}

// DeleteByIDForUser は userID が所有するエントリーのみ削除します。
func (r *PostgresRepository) DeleteByIDForUser(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM entries WHERE id = $1 AND user_id = $2`, id, userID)
	return affectedOrNotFound(res, err)
}

func affectedOrNotFound(res sql.Result, err error) error {
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
