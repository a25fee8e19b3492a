// Package main は Web サーバーのエントリーポイントです。
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/thankful-journal/internal/auth"
	"github.com/yourusername/thankful-journal/internal/config"
	"github.com/yourusername/thankful-journal/internal/database"
	"github.com/yourusername/thankful-journal/internal/entries"
	"github.com/yourusername/thankful-journal/internal/logging"
	"github.com/yourusername/thankful-journal/internal/users"
	"github.com/yourusername/thankful-journal/internal/web"
)

const (
	startupTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	logging.Setup(os.Stdout, cfg.LogLevel, cfg.IsRelease())

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	startCtx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	db, err := database.Open(startCtx, cfg)
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(startCtx, db); err != nil {
		logrus.Fatalf("Failed to migrate database: %v", err)
	}

	userSvc := users.NewService(users.NewPostgresRepository(db), cfg.BcryptCost)
	entrySvc := entries.NewService(entries.NewPostgresRepository(db), entries.Options{
		RequireOwner: cfg.DeleteRequireOwner,
	})
	if !cfg.DeleteRequireOwner {
		logrus.Warn("DELETE_REQUIRE_OWNER=false: any client can delete any entry by id")
	}

	// セッションストアの設定
	store, closeStore, err := setupSessionStore(startCtx, cfg)
	if err != nil {
		logrus.Fatalf("Failed to set up session store: %v", err)
	}
	defer closeStore()

	handler := web.NewHandler(userSvc, entrySvc, auth.NewManager(cfg, userSvc), db)
	router, err := web.NewRouter(cfg, handler, store)
	if err != nil {
		logrus.Fatalf("Failed to set up router: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.WithFields(logrus.Fields{
			"addr":          srv.Addr,
			"mode":          cfg.GinMode,
			"session_store": cfg.SessionStore,
		}).Info("Starting web server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// SIGINT / SIGTERM で停止
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down web server")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("graceful shutdown failed")
	}
}
