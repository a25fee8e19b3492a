package entries

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/thankful-journal/internal/common"
)

// Options はエントリー操作のポリシーです。
type Options struct {
	// RequireOwner が true の場合、削除はログイン済みの所有者に限られます。
	// false の場合は ID を知っていれば誰でも削除できます。
	RequireOwner bool
	// Now は作成日時の採番に使う時計です。nil なら time.Now を使います。
	Now func() time.Time
}

// Service はエントリーの作成・一覧・削除を行います。
type Service struct {
	repo         Repository
	requireOwner bool
	now          func() time.Time
}

// NewService は Service を作成します。
func NewService(repo Repository, opts Options) *Service {
	if repo == nil {
		panic("entries: repository is nil")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{repo: repo, requireOwner: opts.RequireOwner, now: now}
}

// RequireOwner は削除時に所有者チェックを行うかを返します。
func (s *Service) RequireOwner() bool {
	return s.requireOwner
}

// Create はユーザーのエントリーを現在の UTC 時刻で作成します。
func (s *Service) Create(ctx context.Context, userID int64, body string) (*Entry, error) {
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("%w: entry body is empty", common.ErrValidation)
	}

	entry, err := s.repo.Create(ctx, &Entry{
		Body:      body,
		EntryDate: s.now().UTC(),
		UserID:    userID,
	})
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("failed to create entry")
		return nil, fmt.Errorf("create entry: %w", err)
	}

	logrus.WithFields(logrus.Fields{"user_id": userID, "entry_id": entry.ID}).Info("entry created")
	return entry, nil
}

// ListByUser はユーザーのエントリーを古い順に返します。
func (s *Service) ListByUser(ctx context.Context, userID int64) ([]Entry, error) {
	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return list, nil
}

// DeleteByID は所有者を確認せずにエントリーを削除します。
func (s *Service) DeleteByID(ctx context.Context, entryID int64) error {
	if err := s.repo.DeleteByID(ctx, entryID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNotFound
		}
		return fmt.Errorf("delete entry: %w", err)
	}
	logrus.WithField("entry_id", entryID).Info("entry deleted")
	return nil
}

// Delete は設定されたポリシーに従ってエントリーを削除します。
// actorID が 0 の場合は未ログインとして扱います。
// 所有者チェック有効時に他人のエントリーを指定すると、存在を明かさないよう common.ErrNotFound を返します。
func (s *Service) Delete(ctx context.Context, actorID, entryID int64) error {
	if !s.requireOwner {
		return s.DeleteByID(ctx, entryID)
	}

	logCtx := logrus.WithFields(logrus.Fields{"user_id": actorID, "entry_id": entryID})
	if actorID == 0 {
		logCtx.Warn("delete rejected: not logged in")
		return common.ErrUnauthenticated
	}

	if err := s.repo.DeleteByIDForUser(ctx, entryID, actorID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			logCtx.Warn("delete rejected: entry not found or not owned")
			return common.ErrNotFound
		}
		return fmt.Errorf("delete entry: %w", err)
	}
	logCtx.Info("entry deleted")
	return nil
}
