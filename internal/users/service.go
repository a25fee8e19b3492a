package users

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/thankful-journal/internal/common"
)

// ユーザー名は 4 から 25 文字
const usernameRule = "min=4,max=25"

var validate = validator.New()

// Service は資格情報の登録と検証を行います。
type Service struct {
	repo Repository
	cost int

	dummyOnce sync.Once
	dummyHash []byte
}

// NewService は Service を作成します。cost は bcrypt のコストです。
func NewService(repo Repository, cost int) *Service {
	if repo == nil {
		panic("users: repository is nil")
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Service{repo: repo, cost: cost}
}

// Register は新しいユーザーを作成します。
// 同じユーザー名が既に存在する場合は common.ErrDuplicateUsername を返します。
func (s *Service) Register(ctx context.Context, name, username, password string) (*User, error) {
	logCtx := logrus.WithField("username", username)

	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", common.ErrValidation)
	}
	if err := validate.Var(username, usernameRule); err != nil {
		return nil, fmt.Errorf("%w: username must be 4 to 25 characters", common.ErrValidation)
	}

	existing, err := s.repo.GetByUsername(ctx, username)
	switch {
	case err == nil && existing != nil:
		logCtx.Warn("registration rejected: username already taken")
		return nil, common.ErrDuplicateUsername
	case err != nil && !errors.Is(err, common.ErrNotFound):
		logCtx.WithError(err).Error("failed to look up username during registration")
		return nil, fmt.Errorf("register user: %w", err)
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		logCtx.WithError(err).Error("failed to hash password")
		return nil, fmt.Errorf("register user: %w", err)
	}

	user, err := s.repo.Create(ctx, &User{
		Name:         name,
		Username:     username,
		PasswordHash: hash,
	})
	if err != nil {
		// 事前チェックと挿入の間に同名ユーザーが作られた場合は一意制約で検出される
		if errors.Is(err, common.ErrDuplicateUsername) {
			logCtx.Warn("registration rejected: username already taken (constraint)")
			return nil, common.ErrDuplicateUsername
		}
		logCtx.WithError(err).Error("failed to create user")
		return nil, fmt.Errorf("register user: %w", err)
	}

	logCtx.WithField("user_id", user.ID).Info("user registered")
	return user, nil
}

// Verify はユーザー名とパスワードを検証します。
// ユーザーが存在しない場合とパスワードが一致しない場合は区別せず common.ErrAuthFailure を返します。
func (s *Service) Verify(ctx context.Context, username, password string) (*User, error) {
	logCtx := logrus.WithField("username", username)

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			logCtx.WithError(err).Error("failed to look up user during login")
			return nil, fmt.Errorf("verify user: %w", err)
		}
		// 存在しないユーザーでも同じだけハッシュ比較を行う
		_ = bcrypt.CompareHashAndPassword(s.dummy(), prehash(password))
		logCtx.Warn("login failed: unknown username")
		return nil, common.ErrAuthFailure
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), prehash(password)); err != nil {
		logCtx.WithField("user_id", user.ID).Warn("login failed: password mismatch")
		return nil, common.ErrAuthFailure
	}

	logCtx.WithField("user_id", user.ID).Info("user verified")
	return user, nil
}

// FindByID はセッションに保存された ID からユーザーを取得します。
func (s *Service) FindByID(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(prehash(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("failed to generate hash from password: %w", err)
	}
	return string(hash), nil
}

func (s *Service) dummy() []byte {
	s.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword(prehash("dummy-password"), s.cost)
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}

// prehash は bcrypt の 72 バイト制限を超える長いパスワードに対応するため SHA-256 を挟みます。
func prehash(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}
