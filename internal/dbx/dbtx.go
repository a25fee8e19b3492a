// Package dbx はリポジトリ間で共有する最小限の DB 抽象を提供します。
package dbx

import (
	"context"
	"database/sql"
)

// DBTX は *sql.DB と *sql.Tx の両方が満たすインターフェースです。
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
