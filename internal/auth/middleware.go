package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/thankful-journal/internal/common"
)

const loginRequiredMessage = "Please log in to access this page."

// LoadUser はセッションのユーザー ID を解決し、Identity をコンテキストに設定するミドルウェアです。
// 期限切れのセッションや存在しないユーザーはセッションを破棄して未ログインとして扱います。
func (m *Manager) LoadUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		id, ok := readID(session.Get(sessionKeyUser))
		if !ok {
			c.Next()
			return
		}

		logCtx := logrus.WithField("user_id", id)
		now := m.now()
		issuedAt := readUnix(session.Get(sessionKeyIssuedAt))
		lastActive := readUnix(session.Get(sessionKeyLastActive))

		if issuedAt.IsZero() || now.Sub(issuedAt) > m.maxLifetime {
			logCtx.Info("session expired")
			m.discard(session)
			c.Next()
			return
		}
		if lastActive.IsZero() || now.Sub(lastActive) > m.idleTimeout {
			logCtx.Info("session idle timeout")
			m.discard(session)
			c.Next()
			return
		}

		user, err := m.users.FindByID(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				logCtx.Warn("session user no longer exists")
				m.discard(session)
			} else {
				logCtx.WithError(err).Error("failed to load session user")
			}
			c.Next()
			return
		}

		if now.Sub(lastActive) >= activityResolution {
			session.Set(sessionKeyLastActive, now.Unix())
			if err := session.Save(); err != nil {
				logCtx.WithError(err).Error("failed to save session")
			}
		}

		c.Set(ContextIdentityKey, Identity{UserID: user.ID, Name: user.Name, Username: user.Username})
		c.Next()
	}
}

// RequireLogin は未ログインのリクエストをログインページへリダイレクトするミドルウェアです。
func (m *Manager) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); ok {
			c.Next()
			return
		}
		if err := Flash(c, FlashInfo, loginRequiredMessage); err != nil {
			logrus.WithError(err).Error("failed to save flash")
		}
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
	}
}

// VerifyCSRF は状態を変更するリクエストの CSRF トークンを検証するミドルウェアです。
// トークンは csrf_token フォームフィールドまたは X-CSRF-Token ヘッダーで受け取ります。
func (m *Manager) VerifyCSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}

		session := sessions.Default(c)
		expected, ok := session.Get(sessionKeyCSRF).(string)
		if !ok || expected == "" {
			rejectCSRF(c, "csrf token missing from session")
			return
		}

		received := c.PostForm(CSRFFormField)
		if received == "" {
			received = c.GetHeader(csrfHeader)
		}
		if subtle.ConstantTimeCompare([]byte(expected), []byte(received)) != 1 {
			rejectCSRF(c, "csrf token mismatch")
			return
		}

		c.Next()
	}
}

func rejectCSRF(c *gin.Context, reason string) {
	logrus.WithFields(logrus.Fields{
		"path":   c.Request.URL.Path,
		"method": c.Request.Method,
	}).Warn(reason)
	c.String(http.StatusForbidden, "The CSRF token is missing or invalid.")
	c.Abort()
}

func (m *Manager) discard(session sessions.Session) {
	session.Delete(sessionKeyUser)
	session.Delete(sessionKeyIssuedAt)
	session.Delete(sessionKeyLastActive)
	if err := session.Save(); err != nil {
		logrus.WithError(err).Error("failed to save session")
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}
