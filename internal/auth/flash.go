package auth

import (
	"encoding/gob"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// フラッシュメッセージのカテゴリ
const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashDanger  = "danger"
)

func init() {
	// セッションに保存されるフラッシュのスライス
	gob.Register([]interface{}{})
}

// FlashMessage は次のページで一度だけ表示するメッセージです。
type FlashMessage struct {
	Category string
	Message  string
}

// Flash はメッセージをセッションに追加して保存します。
func Flash(c *gin.Context, category, message string) error {
	session := sessions.Default(c)
	session.AddFlash([]string{category, message})
	return session.Save()
}

// Flashes はセッションのメッセージを取り出します。取り出したメッセージは削除されます。
func Flashes(c *gin.Context) []FlashMessage {
	session := sessions.Default(c)
	raw := session.Flashes()
	if len(raw) == 0 {
		return nil
	}
	_ = session.Save()

	out := make([]FlashMessage, 0, len(raw))
	for _, v := range raw {
		switch f := v.(type) {
		case []string:
			if len(f) == 2 {
				out = append(out, FlashMessage{Category: f[0], Message: f[1]})
			}
		case string:
			out = append(out, FlashMessage{Category: FlashInfo, Message: f})
		}
	}
	return out
}
