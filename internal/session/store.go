// Package session は設定に応じたセッションストアを提供します。
package session

import (
	"fmt"
	"net/http"

	ginsessions "github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gorilla/securecookie"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/thankful-journal/internal/config"
)

// CookieName はセッションクッキーの名前です。
const CookieName = "thankful_session"

// NewStore は cfg.SessionStore に応じてクッキーまたは Redis のストアを返します。
// redis を選ぶ場合は client が必須です。
func NewStore(cfg *config.Config, client Client) (ginsessions.Store, error) {
	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		// 開発時のみ。再起動するとセッションは無効になる
		logrus.Warn("SESSION_SECRET is not set; using a random key")
		secret = securecookie.GenerateRandomKey(32)
	}

	var store ginsessions.Store
	switch cfg.SessionStore {
	case config.SessionStoreCookie:
		store = cookie.NewStore(secret)
	case config.SessionStoreRedis:
		if client == nil {
			return nil, fmt.Errorf("redis client is required for SESSION_STORE=redis")
		}
		store = NewRedisStore(client, secret)
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}

	store.Options(CookieOptions(cfg))
	return store, nil
}

// CookieOptions はセッションクッキーの属性を返します。
func CookieOptions(cfg *config.Config) ginsessions.Options {
	return ginsessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionMaxLifetime.Seconds()),
		HttpOnly: true,
		Secure:   cfg.IsRelease(),
		SameSite: http.SameSiteLaxMode,
	}
}
