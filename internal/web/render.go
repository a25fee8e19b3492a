package web

import (
	"embed"
	"html/template"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/thankful-journal/internal/auth"
	"github.com/yourusername/thankful-journal/internal/forms"
)

//go:embed templates/*.html
var templateFS embed.FS

const entryTimeLayout = "Jan 2, 2006 15:04 UTC"

var funcMap = template.FuncMap{
	"formatTime": func(t time.Time) string {
		return t.UTC().Format(entryTimeLayout)
	},
	"errorsFor": func(errs forms.Errors, field string) []string {
		return errs.Get(field)
	},
}

// LoadTemplates は埋め込みテンプレートを読み込みます。
func LoadTemplates() (*template.Template, error) {
	return template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.html")
}

// render は共通の値（ログインユーザー、フラッシュ、CSRF トークン）を加えてページを描画します。
func (h *Handler) render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}

	token, err := h.auth.CSRFToken(c)
	if err != nil {
		h.serverError(c, err)
		return
	}
	data["CSRFToken"] = token
	data["Flashes"] = auth.Flashes(c)
	if identity, ok := auth.CurrentUser(c); ok {
		data["User"] = identity
	}

	c.HTML(status, name, data)
}
