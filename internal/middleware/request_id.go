// Package middleware は全リクエスト共通のミドルウェアを提供します。
package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	requestIDContextKey = "request_id"
	requestIDHeaderName = "X-Request-ID"
	maxRequestIDLength  = 128
)

// RequestIDFromContext はリクエスト ID を返します。未設定なら空文字です。
func RequestIDFromContext(c *gin.Context) string {
	value, ok := c.Get(requestIDContextKey)
	if !ok {
		return ""
	}
	requestID, _ := value.(string)
	return requestID
}

// RequestID はリクエスト ID をコンテキストとレスポンスヘッダーに設定し、
// リクエストごとに 1 行のアクセスログを出力します。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		startedAt := time.Now()
		requestID := normalizeRequestID(c.GetHeader(requestIDHeaderName))
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set(requestIDContextKey, requestID)
		c.Writer.Header().Set(requestIDHeaderName, requestID)

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		entry := logrus.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       path,
			"status":     c.Writer.Status(),
			"latency_ms": float64(time.Since(startedAt).Microseconds()) / 1000.0,
			"client_ip":  c.ClientIP(),
		})
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.Error("request completed")
		case status >= 400:
			entry.Warn("request completed")
		default:
			entry.Info("request completed")
		}
	}
}

func normalizeRequestID(raw string) string {
	candidate := strings.TrimSpace(raw)
	if len(candidate) > maxRequestIDLength {
		candidate = candidate[:maxRequestIDLength]
	}
	return candidate
}
