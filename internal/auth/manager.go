// Package auth はセッションによるログイン状態の管理を提供します。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/thankful-journal/internal/config"
	sessionstore "github.com/yourusername/thankful-journal/internal/session"
	"github.com/yourusername/thankful-journal/internal/users"
)

const (
	sessionKeyUser       = "user_id"
	sessionKeyIssuedAt   = "issued_at"
	sessionKeyLastActive = "last_activity"
	sessionKeyCSRF       = "csrf_token"

	// CSRFFormField はフォームで CSRF トークンを送るフィールド名です。
	CSRFFormField = "csrf_token"
	csrfHeader    = "X-CSRF-Token"

	// last_activity の更新間隔。毎リクエストの書き込みを避ける
	activityResolution = time.Minute
)

// ContextIdentityKey は、ハンドラー間でログイン済みユーザーを共有するためのキーです。
const ContextIdentityKey = "auth.identity"

// UserFinder はセッションのユーザー ID からユーザーを解決します。
type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*users.User, error)
}

// Identity はリクエスト中のログイン済みユーザーです。
type Identity struct {
	UserID   int64
	Name     string
	Username string
}

// Manager は認証処理と状態をまとめた構造体です。
type Manager struct {
	users       UserFinder
	maxLifetime time.Duration
	idleTimeout time.Duration
	now         func() time.Time
}

// NewManager は認証マネージャーを作成します。
func NewManager(cfg *config.Config, finder UserFinder) *Manager {
	return &Manager{
		users:       finder,
		maxLifetime: cfg.SessionMaxLifetime,
		idleTimeout: cfg.SessionIdleTimeout,
		now:         time.Now,
	}
}

// Login はユーザーをログイン状態にします。既存のセッション値は破棄され、
// サーバー側ストアではセッション ID も新しくなります。
func (m *Manager) Login(c *gin.Context, user *users.User) error {
	token, err := generateToken()
	if err != nil {
		return fmt.Errorf("generate csrf token: %w", err)
	}

	session := sessions.Default(c)
	now := m.now()
	session.Clear()
	session.Set(sessionKeyUser, user.ID)
	session.Set(sessionKeyIssuedAt, now.Unix())
	session.Set(sessionKeyLastActive, now.Unix())
	session.Set(sessionKeyCSRF, token)
	session.Set(sessionstore.RotateIDKey, true)

	if err := session.Save(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	c.Set(ContextIdentityKey, Identity{UserID: user.ID, Name: user.Name, Username: user.Username})
	return nil
}

// Logout はセッションからログイン情報を取り除きます。
func (m *Manager) Logout(c *gin.Context) error {
	session := sessions.Default(c)
	session.Clear()
	session.Set(sessionstore.RotateIDKey, true)
	if err := session.Save(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	c.Set(ContextIdentityKey, nil)
	return nil
}

// CurrentUser はログイン済みであればそのユーザーを返します。
func CurrentUser(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(ContextIdentityKey)
	if !ok {
		return Identity{}, false
	}
	identity, ok := v.(Identity)
	if !ok || identity.UserID == 0 {
		return Identity{}, false
	}
	return identity, true
}

// CSRFToken はセッションの CSRF トークンを返します。未発行なら発行して保存します。
func (m *Manager) CSRFToken(c *gin.Context) (string, error) {
	session := sessions.Default(c)
	if token, ok := session.Get(sessionKeyCSRF).(string); ok && token != "" {
		return token, nil
	}

	token, err := generateToken()
	if err != nil {
		return "", fmt.Errorf("generate csrf token: %w", err)
	}
	session.Set(sessionKeyCSRF, token)
	if err := session.Save(); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	return token, nil
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func readUnix(v interface{}) time.Time {
	switch t := v.(type) {
	case int64:
		return time.Unix(t, 0)
	case int:
		return time.Unix(int64(t), 0)
	case float64:
		return time.Unix(int64(t), 0)
	default:
		return time.Time{}
	}
}

func readID(v interface{}) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, t > 0
	case int:
		return int64(t), t > 0
	case float64:
		return int64(t), t > 0
	default:
		return 0, false
	}
}
