package web

import (
	"fmt"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/thankful-journal/internal/config"
	"github.com/yourusername/thankful-journal/internal/middleware"
	"github.com/yourusername/thankful-journal/internal/session"
)

// NewRouter はミドルウェア・テンプレート・ルートを設定した gin.Engine を返します。
func NewRouter(cfg *config.Config, h *Handler, store sessions.Store) (*gin.Engine, error) {
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Recovery())

	// CORS は許可オリジンが設定されている場合のみ有効にする
	if origins := cfg.AllowedOrigins(); len(origins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = origins
		corsConfig.AllowCredentials = true
		corsConfig.AllowHeaders = []string{
			"Origin",
			"Content-Type",
			"Accept",
			"X-CSRF-Token", // CSRF保護用ヘッダー
			"X-Request-ID",
		}
		corsConfig.ExposeHeaders = []string{"X-Request-ID"}
		router.Use(cors.New(corsConfig))
	}

	router.Use(sessions.Sessions(session.CookieName, store))

	tmpl, err := LoadTemplates()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	router.SetHTMLTemplate(tmpl)

	setupRoutes(router, h)
	return router, nil
}

// setupRoutes はページとヘルスチェックのルートを登録します。
func setupRoutes(router *gin.Engine, h *Handler) {
	router.GET("/health", h.Health)

	site := router.Group("")
	site.Use(h.auth.LoadUser(), h.auth.VerifyCSRF())
	{
		site.GET("/", h.Home)
		site.GET("/about", h.About)

		site.GET("/register", h.RegisterForm)
		site.POST("/register", h.Register)
		site.GET("/login", h.LoginForm)
		site.POST("/login", h.Login)
		site.GET("/logout", h.Logout)

		// どちらのメソッドでも削除できる。ログインは削除ポリシー側で判定する
		site.GET("/delete/:id", h.Delete)
		site.POST("/delete/:id", h.Delete)

		protected := site.Group("")
		protected.Use(h.auth.RequireLogin())
		{
			protected.GET("/IAmThankful", h.Thankful)
			protected.POST("/IAmThankful", h.CreateEntry)
		}
	}

	router.NoRoute(h.auth.LoadUser(), h.NotFound)
}
