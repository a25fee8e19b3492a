package entries

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/thankful-journal/internal/common"
)

type memoryRepo struct {
	mu      sync.Mutex
	nextID  int64
	entries map[int64]Entry
	failAll error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{entries: make(map[int64]Entry)}
}

func (r *memoryRepo) Create(ctx context.Context, entry *Entry) (*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return nil, r.failAll
	}
	r.nextID++
	entry.ID = r.nextID
	r.entries[entry.ID] = *entry
	return entry, nil
}

func (r *memoryRepo) ListByUser(ctx context.Context, userID int64) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return nil, r.failAll
	}
	out := make([]Entry, 0)
	for _, e := range r.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EntryDate.Equal(out[j].EntryDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].EntryDate.Before(out[j].EntryDate)
	})
	return out, nil
}

func (r *memoryRepo) DeleteByID(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return r.failAll
	}
	if _, ok := r.entries[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.entries, id)
	return nil
}

func (r *memoryRepo) DeleteByIDForUser(ctx context.Context, id, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return r.failAll
	}
	e, ok := r.entries[id]
	if !ok || e.UserID != userID {
		return common.ErrNotFound
	}
	delete(r.entries, id)
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestService_Create(t *testing.T) {
	repo := newMemoryRepo()
	jst := time.FixedZone("JST", 9*60*60)
	at := time.Date(2026, 10, 14, 18, 30, 0, 0, jst)
	svc := NewService(repo, Options{Now: fixedClock(at)})

	entry, err := svc.Create(context.Background(), 1, "grateful for tests")
	require.NoError(t, err)

	assert.Equal(t, int64(1), entry.UserID)
	assert.Equal(t, "grateful for tests", entry.Body)
	assert.Equal(t, time.UTC, entry.EntryDate.Location(), "作成日時は UTC")
	assert.True(t, entry.EntryDate.Equal(at))

	list, err := svc.ListByUser(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, entry.ID, list[0].ID)
}

func TestService_Create_EmptyBody(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, Options{})

	for _, body := range []string{"", "   ", "\n\t"} {
		_, err := svc.Create(context.Background(), 1, body)
		assert.ErrorIs(t, err, common.ErrValidation, "body=%q", body)
	}
	assert.Empty(t, repo.entries, "不正な入力では保存しない")
}

func TestService_Create_RepoError(t *testing.T) {
	repo := newMemoryRepo()
	repo.failAll = errors.New("db down")
	svc := NewService(repo, Options{})

	_, err := svc.Create(context.Background(), 1, "ok")
	require.Error(t, err)
	assert.False(t, errors.Is(err, common.ErrValidation))
}

func TestService_ListByUser_OnlyOwnEntriesInOrder(t *testing.T) {
	repo := newMemoryRepo()
	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	clock := base
	svc := NewService(repo, Options{Now: func() time.Time { return clock }})
	ctx := context.Background()

	clock = base.Add(2 * time.Hour)
	_, _ = svc.Create(ctx, 1, "later")
	clock = base
	_, _ = svc.Create(ctx, 1, "earlier")
	_, _ = svc.Create(ctx, 2, "someone else")

	list, err := svc.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "earlier", list[0].Body)
	assert.Equal(t, "later", list[1].Body)
}

func TestService_DeleteByID_NotFound(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, Options{})
	ctx := context.Background()
	_, _ = svc.Create(ctx, 1, "keep me")

	err := svc.DeleteByID(ctx, 999)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Len(t, repo.entries, 1, "存在しない ID の削除ではストアは変化しない")
}

func TestService_Delete_WithoutOwnership(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, Options{RequireOwner: false})
	ctx := context.Background()
	entry, _ := svc.Create(ctx, 1, "alice's entry")

	// 未ログインでも他人でも削除できる
	require.NoError(t, svc.Delete(ctx, 0, entry.ID))
	assert.Empty(t, repo.entries)
	assert.ErrorIs(t, svc.Delete(ctx, 2, entry.ID), common.ErrNotFound)
}

func TestService_Delete_RequireOwner(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, Options{RequireOwner: true})
	ctx := context.Background()
	entry, _ := svc.Create(ctx, 1, "alice's entry")

	assert.ErrorIs(t, svc.Delete(ctx, 0, entry.ID), common.ErrUnauthenticated)
	assert.ErrorIs(t, svc.Delete(ctx, 2, entry.ID), common.ErrNotFound)
	assert.Len(t, repo.entries, 1)

	require.NoError(t, svc.Delete(ctx, 1, entry.ID))
	assert.Empty(t, repo.entries)
}

func TestService_Delete_RepoError(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, Options{RequireOwner: true})
	repo.failAll = errors.New("db down")

	err := svc.Delete(context.Background(), 1, 1)
	require.Error(t, err)
	assert.False(t, errors.Is(err, common.ErrNotFound))
}
