package users

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/thankful-journal/internal/common"
)

type memoryRepo struct {
	mu     sync.Mutex
	nextID int64
	byName map[string]*User

	// lookupErr / createErr が設定されていればそれを返す
	lookupErr error
	createErr error
	creates   int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byName: make(map[string]*User)}
}

func (r *memoryRepo) Create(ctx context.Context, user *User) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if r.createErr != nil {
		return nil, r.createErr
	}
	if _, ok := r.byName[user.Username]; ok {
		return nil, common.ErrDuplicateUsername
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now().UTC()
	stored := *user
	r.byName[user.Username] = &stored
	return user, nil
}

func (r *memoryRepo) GetByUsername(ctx context.Context, username string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lookupErr != nil {
		return nil, r.lookupErr
	}
	u, ok := r.byName[username]
	if !ok {
		return nil, common.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *memoryRepo) GetByID(ctx context.Context, id int64) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byName {
		if u.ID == id {
			copied := *u
			return &copied, nil
		}
	}
	return nil, common.ErrNotFound
}

func newTestService(repo Repository) *Service {
	return NewService(repo, bcrypt.MinCost)
}

func TestService_Register_Success(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	user, err := svc.Register(context.Background(), "Alice", "alice", "password123")
	require.NoError(t, err)

	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, "Alice", user.Name)
	assert.NotEqual(t, "password123", user.PasswordHash, "パスワードは平文で保存しない")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), prehash("password123")))
}

func TestService_Register_UsernameLength(t *testing.T) {
	tests := []struct {
		username string
		wantErr  bool
	}{
		{username: "bob", wantErr: true},
		{username: "bobby", wantErr: false},
		{username: strings.Repeat("u", 25), wantErr: false},
		{username: strings.Repeat("u", 26), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			repo := newMemoryRepo()
			_, err := newTestService(repo).Register(context.Background(), "Bob", tt.username, "password456")
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, common.ErrValidation)
			assert.Equal(t, 0, repo.creates, "不正なユーザー名は保存しない")
		})
	}
}

func TestService_Register_SaltsEachHash(t *testing.T) {
	svc := newTestService(newMemoryRepo())

	a, err := svc.Register(context.Background(), "A", "userA", "samepassword")
	require.NoError(t, err)
	b, err := svc.Register(context.Background(), "B", "userB", "samepassword")
	require.NoError(t, err)

	assert.NotEqual(t, a.PasswordHash, b.PasswordHash)
}

func TestService_Register_DuplicateUsername(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Alice", "alice", "password123")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Other Alice", "alice", "differentpass")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrDuplicateUsername))

	assert.Len(t, repo.byName, 1, "同じユーザー名のユーザーは 1 件のみ")
	assert.Equal(t, 1, repo.creates, "重複時は挿入しない")
	assert.Equal(t, "Alice", repo.byName["alice"].Name)
}

func TestService_Register_UsernameIsCaseSensitive(t *testing.T) {
	svc := newTestService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.Register(ctx, "Alice", "alice", "password123")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "Alice", "Alice", "password123")
	assert.NoError(t, err)
}

func TestService_Register_ConstraintRace(t *testing.T) {
	repo := newMemoryRepo()
	repo.createErr = common.ErrDuplicateUsername
	svc := newTestService(repo)

	_, err := svc.Register(context.Background(), "Alice", "alice", "password123")
	assert.True(t, errors.Is(err, common.ErrDuplicateUsername))
}

func TestService_Register_LookupError(t *testing.T) {
	repo := newMemoryRepo()
	repo.lookupErr = errors.New("db down")
	svc := newTestService(repo)

	_, err := svc.Register(context.Background(), "Alice", "alice", "password123")
	require.Error(t, err)
	assert.False(t, errors.Is(err, common.ErrDuplicateUsername))
	assert.Equal(t, 0, repo.creates)
}

func TestService_Register_LongPassword(t *testing.T) {
	svc := newTestService(newMemoryRepo())
	long := strings.Repeat("p", 99)

	_, err := svc.Register(context.Background(), "Alice", "alice", long)
	require.NoError(t, err, "bcrypt の 72 バイト制限を超えても登録できる")

	_, err = svc.Verify(context.Background(), "alice", long)
	assert.NoError(t, err)
	_, err = svc.Verify(context.Background(), "alice", long[:98])
	assert.ErrorIs(t, err, common.ErrAuthFailure)
}

func TestService_Verify(t *testing.T) {
	svc := newTestService(newMemoryRepo())
	ctx := context.Background()

	registered, err := svc.Register(ctx, "Alice", "alice", "password123")
	require.NoError(t, err)

	user, err := svc.Verify(ctx, "alice", "password123")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	_, wrongPassword := svc.Verify(ctx, "alice", "password124")
	_, unknownUser := svc.Verify(ctx, "nobody", "password123")

	require.ErrorIs(t, wrongPassword, common.ErrAuthFailure)
	require.ErrorIs(t, unknownUser, common.ErrAuthFailure)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error(), "失敗理由を区別しない")
}

func TestService_Verify_LookupError(t *testing.T) {
	repo := newMemoryRepo()
	repo.lookupErr = errors.New("db down")
	svc := newTestService(repo)

	_, err := svc.Verify(context.Background(), "alice", "password123")
	require.Error(t, err)
	assert.False(t, errors.Is(err, common.ErrAuthFailure))
}

func TestService_FindByID(t *testing.T) {
	svc := newTestService(newMemoryRepo())
	ctx := context.Background()

	registered, err := svc.Register(ctx, "Alice", "alice", "password123")
	require.NoError(t, err)

	user, err := svc.FindByID(ctx, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = svc.FindByID(ctx, 404)
	assert.ErrorIs(t, err, common.ErrNotFound)
}
