// Package logging は logrus の初期設定を提供します。
package logging

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Setup は標準ロガーのレベルとフォーマットを設定します。
// release モードでは JSON、それ以外ではテキストで出力します。
func Setup(out io.Writer, level string, release bool) *logrus.Logger {
	logger := logrus.StandardLogger()
	logger.SetOutput(out)

	if release {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
		logger.Warnf("invalid LOG_LEVEL %q, using info", level)
		return logger
	}
	logger.SetLevel(lvl)
	return logger
}
