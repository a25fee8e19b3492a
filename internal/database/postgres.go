// Package database は PostgreSQL への接続とスキーマのマイグレーションを担います。
package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/thankful-journal/internal/config"
	"github.com/yourusername/thankful-journal/internal/migrations"
)

// テストで差し替えるためのシーム
var (
	sqlOpen        = sql.Open
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return goose.UpContext(ctx, db, dir, opts...)
	}
)

// Open は接続プールを作成し、疎通確認を行います。
func Open(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := sqlOpen("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"max_open_conns": cfg.DBMaxOpenConns,
		"max_idle_conns": cfg.DBMaxIdleConns,
	}).Info("connected to database")
	return db, nil
}

// Migrate は埋め込まれたマイグレーションを適用します。
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("goose dialect error: %w", err)
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	logrus.Info("database migrations applied")
	return nil
}
