package middleware

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Recovery は panic をログに記録して 500 を返すミドルウェアです。
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		logrus.WithFields(logrus.Fields{
			"request_id": RequestIDFromContext(c),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"panic":      recovered,
		}).Error("panic recovered")
		c.AbortWithStatus(http.StatusInternalServerError)
	})
}
