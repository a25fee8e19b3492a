// Package web は HTML ページのハンドラーとルーティングを提供します。
package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/thankful-journal/internal/auth"
	"github.com/yourusername/thankful-journal/internal/common"
	"github.com/yourusername/thankful-journal/internal/entries"
	"github.com/yourusername/thankful-journal/internal/forms"
	"github.com/yourusername/thankful-journal/internal/middleware"
	"github.com/yourusername/thankful-journal/internal/users"
)

const (
	serviceName    = "thankful-journal"
	serviceVersion = "0.1.0"
	healthTimeout  = 2 * time.Second
)

// 画面に表示するお知らせ
const (
	msgAccountCreated = "Account Created. You may now log in."
	msgEntryDeleted   = "Entry Deleted"
	msgLoggedOut      = "Log Out Successful. See you again soon."
	msgLoginRequired  = "Please log in to access this page."
	msgInvalidForm    = "The form could not be read. Please try again."
)

// UserService はユーザー登録と認証を行います。
type UserService interface {
	Register(ctx context.Context, name, username, password string) (*users.User, error)
	Verify(ctx context.Context, username, password string) (*users.User, error)
}

// EntryService はエントリーの作成・一覧・削除を行います。
type EntryService interface {
	Create(ctx context.Context, userID int64, body string) (*entries.Entry, error)
	ListByUser(ctx context.Context, userID int64) ([]entries.Entry, error)
	Delete(ctx context.Context, actorID, entryID int64) error
}

// Pinger はヘルスチェックでデータベースの疎通を確認します。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler はページごとのハンドラーをまとめた構造体です。
type Handler struct {
	users   UserService
	entries EntryService
	auth    *auth.Manager
	db      Pinger
}

// NewHandler は Handler を作成します。
func NewHandler(userSvc UserService, entrySvc EntryService, authManager *auth.Manager, db Pinger) *Handler {
	return &Handler{
		users:   userSvc,
		entries: entrySvc,
		auth:    authManager,
		db:      db,
	}
}

// Home はトップページです。
func (h *Handler) Home(c *gin.Context) {
	h.render(c, http.StatusOK, "home.html", gin.H{"Title": "Home"})
}

// About は紹介ページです。
func (h *Handler) About(c *gin.Context) {
	h.render(c, http.StatusOK, "about.html", gin.H{"Title": "About"})
}

// RegisterForm は登録フォームを表示します。
func (h *Handler) RegisterForm(c *gin.Context) {
	h.renderRegister(c, forms.RegistrationForm{}, forms.Errors{})
}

// Register は登録フォームの送信を処理します。
func (h *Handler) Register(c *gin.Context) {
	var form forms.RegistrationForm
	if err := c.ShouldBind(&form); err != nil {
		errs := forms.Errors{}
		errs.Add("form", msgInvalidForm)
		h.renderRegister(c, form, errs)
		return
	}

	errs := form.Validate()
	if !errs.Valid() {
		h.renderRegister(c, form, errs)
		return
	}

	_, err := h.users.Register(c.Request.Context(), form.Name, form.Username, form.Password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrDuplicateUsername):
			errs.Add("username", forms.MsgUsernameTaken)
		case errors.Is(err, common.ErrValidation):
			errs.Add("form", msgInvalidForm)
		default:
			h.serverError(c, err)
			return
		}
		h.renderRegister(c, form, errs)
		return
	}

	h.flash(c, auth.FlashSuccess, msgAccountCreated)
	c.Redirect(http.StatusFound, "/login")
}

// LoginForm はログインフォームを表示します。
func (h *Handler) LoginForm(c *gin.Context) {
	h.renderLogin(c, forms.LoginForm{}, forms.Errors{})
}

// Login はログインフォームの送信を処理します。
// ユーザー名とパスワードのどちらが誤っているかは区別しません。
func (h *Handler) Login(c *gin.Context) {
	var form forms.LoginForm
	if err := c.ShouldBind(&form); err != nil {
		errs := forms.Errors{}
		errs.Add("form", msgInvalidForm)
		h.renderLogin(c, form, errs)
		return
	}

	errs := form.Validate()
	if !errs.Valid() {
		h.renderLogin(c, form, errs)
		return
	}

	user, err := h.users.Verify(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		if errors.Is(err, common.ErrAuthFailure) {
			errs.Add("password", forms.MsgLoginFailed)
			h.renderLogin(c, form, errs)
			return
		}
		h.serverError(c, err)
		return
	}

	if err := h.auth.Login(c, user); err != nil {
		h.serverError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/IAmThankful")
}

// Thankful はログインユーザーのエントリー一覧を表示します。
func (h *Handler) Thankful(c *gin.Context) {
	h.renderThankful(c, http.StatusOK, forms.EntryForm{}, forms.Errors{})
}

// CreateEntry はエントリーを追加して一覧へ戻ります。
func (h *Handler) CreateEntry(c *gin.Context) {
	identity, ok := auth.CurrentUser(c)
	if !ok {
		h.redirectToLogin(c)
		return
	}

	var form forms.EntryForm
	if err := c.ShouldBind(&form); err != nil {
		errs := forms.Errors{}
		errs.Add("entry", msgInvalidForm)
		h.renderThankful(c, http.StatusOK, form, errs)
		return
	}

	errs := form.Validate()
	if !errs.Valid() {
		h.renderThankful(c, http.StatusOK, form, errs)
		return
	}

	if _, err := h.entries.Create(c.Request.Context(), identity.UserID, form.Entry); err != nil {
		if errors.Is(err, common.ErrValidation) {
			errs.Add("entry", forms.MsgEntryRequired)
			h.renderThankful(c, http.StatusOK, form, errs)
			return
		}
		h.serverError(c, err)
		return
	}

	c.Redirect(http.StatusFound, "/IAmThankful")
}

// Delete はエントリーを削除して一覧へ戻ります。
// 所有者チェックの有無は EntryService の設定に従います。
func (h *Handler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.NotFound(c)
		return
	}

	var actorID int64
	if identity, ok := auth.CurrentUser(c); ok {
		actorID = identity.UserID
	}

	if err := h.entries.Delete(c.Request.Context(), actorID, id); err != nil {
		switch {
		case errors.Is(err, common.ErrNotFound):
			h.NotFound(c)
		case errors.Is(err, common.ErrUnauthenticated):
			h.redirectToLogin(c)
		default:
			h.serverError(c, err)
		}
		return
	}

	h.flash(c, auth.FlashSuccess, msgEntryDeleted)
	c.Redirect(http.StatusFound, "/IAmThankful")
}

// Logout はログアウトしてトップページへ戻ります。
func (h *Handler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c); err != nil {
		h.serverError(c, err)
		return
	}
	h.flash(c, auth.FlashSuccess, msgLoggedOut)
	c.Redirect(http.StatusFound, "/")
}

// Health はヘルスチェックエンドポイントのハンドラーです。
func (h *Handler) Health(c *gin.Context) {
	body := gin.H{
		"status":  "ok",
		"service": serviceName,
		"version": serviceVersion,
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			logrus.WithError(err).Error("health check: database unreachable")
			body["status"] = "unavailable"
			body["database"] = "unreachable"
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		body["database"] = "ok"
	}

	c.JSON(http.StatusOK, body)
}

// NotFound は 404 ページを表示します。
func (h *Handler) NotFound(c *gin.Context) {
	h.render(c, http.StatusNotFound, "404.html", gin.H{"Title": "Not Found"})
}

func (h *Handler) renderRegister(c *gin.Context, form forms.RegistrationForm, errs forms.Errors) {
	form.Password, form.Confirm = "", ""
	h.render(c, http.StatusOK, "register.html", gin.H{
		"Title":  "Register",
		"Form":   form,
		"Errors": errs,
	})
}

func (h *Handler) renderLogin(c *gin.Context, form forms.LoginForm, errs forms.Errors) {
	form.Password = ""
	h.render(c, http.StatusOK, "login.html", gin.H{
		"Title":  "Login",
		"Form":   form,
		"Errors": errs,
	})
}

func (h *Handler) renderThankful(c *gin.Context, status int, form forms.EntryForm, errs forms.Errors) {
	identity, ok := auth.CurrentUser(c)
	if !ok {
		h.redirectToLogin(c)
		return
	}

	list, err := h.entries.ListByUser(c.Request.Context(), identity.UserID)
	if err != nil {
		h.serverError(c, err)
		return
	}

	h.render(c, status, "thankful.html", gin.H{
		"Title":    "I Am Thankful",
		"UserName": identity.Name,
		"Entries":  list,
		"Form":     form,
		"Errors":   errs,
	})
}

func (h *Handler) redirectToLogin(c *gin.Context) {
	h.flash(c, auth.FlashInfo, msgLoginRequired)
	c.Redirect(http.StatusFound, "/login")
}

func (h *Handler) flash(c *gin.Context, category, message string) {
	if err := auth.Flash(c, category, message); err != nil {
		logrus.WithError(err).WithField("request_id", middleware.RequestIDFromContext(c)).Error("failed to save flash")
	}
}

func (h *Handler) serverError(c *gin.Context, err error) {
	logrus.WithError(err).WithFields(logrus.Fields{
		"request_id": middleware.RequestIDFromContext(c),
		"path":       c.Request.URL.Path,
	}).Error("request failed")
	_ = c.Error(err)
	c.HTML(http.StatusInternalServerError, "error.html", gin.H{
		"Title":   "Error",
		"Message": "Something went wrong. Please try again later.",
	})
}
