package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop_backend/internal/feature/auth/domain"
	"shop_backend/internal/feature/auth/domain/entity"
	"shop_backend/internal/feature/auth/usecase"
)

// stubUserRepository is an in-package stub of the inner repository.
// It counts calls so the tests can assert whether the cache was bypassed.
type stubUserRepository struct {
	findByIDCalls int
	findByIDErr   error
	user          *entity.User

	setRefreshCalls int
	setRefreshErr   error
	confirmCalls    int
}

var _ usecase.UserRepository = (*stubUserRepository)(nil)

func (s *stubUserRepository) Create(ctx context.Context, u *entity.User) error { return nil }

func (s *stubUserRepository) FindByIdentifier(ctx context.Context, identifier string) (*entity.User, error) {
	return s.user, nil
}

func (s *stubUserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return s.user, nil
}

func (s *stubUserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	s.findByIDCalls++
	if s.findByIDErr != nil {
		return nil, s.findByIDErr
	}
	return s.user, nil
}

func (s *stubUserRepository) SetRefreshToken(ctx context.Context, id, refreshToken string) error {
	s.setRefreshCalls++
	return s.setRefreshErr
}

func (s *stubUserRepository) RotateRefreshToken(ctx context.Context, id, old, new string) error {
	return nil
}

func (s *stubUserRepository) ClearRefreshToken(ctx context.Context, id string) error { return nil }

func (s *stubUserRepository) SetEmailVerification(ctx context.Context, id, digest string, expiresAt time.Time) error {
	return nil
}

func (s *stubUserRepository) ConfirmEmailByTokenHash(ctx context.Context, digest string, now time.Time) error {
	s.confirmCalls++
	return nil
}

func (s *stubUserRepository) SetPasswordReset(ctx context.Context, id, digest string, expiresAt time.Time) error {
	return nil
}

func (s *stubUserRepository) ResetPasswordByTokenHash(ctx context.Context, digest, newPasswordHash string, now time.Time) error {
	return nil
}

func (s *stubUserRepository) UpdateProfile(ctx context.Context, id string, update usecase.ProfileUpdate) (*entity.User, error) {
	return s.user, nil
}

func cachedUser() *entity.User {
	return &entity.User{ID: "u-1", Username: "alice", Email: "alice@x.com", FullName: "Alice Doe"}
}

func TestCachingUserRepository_FindByID(t *testing.T) {
	ctx := context.Background()
	key := "users:id:u-1"

	t.Run("cache miss falls back to the database and stores the result", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		inner := &stubUserRepository{user: cachedUser()}
		repo := NewCachingUserRepository(rdb, time.Minute, inner, "users")

		payload, err := json.Marshal(cachedUser())
		require.NoError(t, err)

		mock.ExpectGet(key).RedisNil()
		mock.ExpectSet(key, payload, time.Minute).SetVal("OK")

		user, err := repo.FindByID(ctx, "u-1")
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, 1, inner.findByIDCalls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("cache hit skips the database", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		inner := &stubUserRepository{user: cachedUser()}
		repo := NewCachingUserRepository(rdb, time.Minute, inner, "users")

		payload, err := json.Marshal(cachedUser())
		require.NoError(t, err)
		mock.ExpectGet(key).SetVal(string(payload))

		user, err := repo.FindByID(ctx, "u-1")
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, 0, inner.findByIDCalls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("corrupted entry is dropped and refetched", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		inner := &stubUserRepository{user: cachedUser()}
		repo := NewCachingUserRepository(rdb, time.Minute, inner, "users")

		payload, err := json.Marshal(cachedUser())
		require.NoError(t, err)

		mock.ExpectGet(key).SetVal("{not-json")
		mock.ExpectDel(key).SetVal(1)
		mock.ExpectSet(key, payload, time.Minute).SetVal("OK")

		user, err := repo.FindByID(ctx, "u-1")
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, 1, inner.findByIDCalls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database error propagates without caching", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		inner := &stubUserRepository{findByIDErr: domain.ErrUserNotFound}
		repo := NewCachingUserRepository(rdb, time.Minute, inner, "users")

		mock.ExpectGet(key).RedisNil()

		_, err := repo.FindByID(ctx, "u-1")
		assert.True(t, errors.Is(err, domain.ErrUserNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("redis failure falls back to the database", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		inner := &stubUserRepository{user: cachedUser()}
		repo := NewCachingUserRepository(rdb, time.Minute, inner, "users")

		payload, err := json.Marshal(cachedUser())
		require.NoError(t, err)

		mock.ExpectGet(key).SetErr(errors.New("connection refused"))
		mock.ExpectSet(key, payload, time.Minute).SetVal("OK")

		user, err := repo.FindByID(ctx, "u-1")
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, 1, inner.findByIDCalls)
	})

	t.Run("nil client bypasses the cache entirely", func(t *testing.T) {
		inner := &stubUserRepository{user: cachedUser()}
		repo := NewCachingUserRepository(nil, time.Minute, inner, "users")

		user, err := repo.FindByID(ctx, "u-1")
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, 1, inner.findByIDCalls)
	})
}

func TestCachingUserRepository_Invalidation(t *testing.T) {
	ctx := context.Background()
	key := "users:id:u-1"

	t.Run("mutations drop the affected entry", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		inner := &stubUserRepository{user: cachedUser()}
		repo := NewCachingUserRepository(rdb, time.Minute, inner, "users")

		mock.ExpectDel(key).SetVal(1)

		require.NoError(t, repo.SetRefreshToken(ctx, "u-1", "token-a"))
		assert.Equal(t, 1, inner.setRefreshCalls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("digest-addressed consumption flushes the namespace", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		inner := &stubUserRepository{user: cachedUser()}
		repo := NewCachingUserRepository(rdb, time.Minute, inner, "users")

		mock.ExpectScan(0, "users:id:*", 200).SetVal([]string{"users:id:u-1", "users:id:u-2"}, 0)
		mock.ExpectDel("users:id:u-1", "users:id:u-2").SetVal(2)

		require.NoError(t, repo.ConfirmEmailByTokenHash(ctx, "digest-1", time.Now()))
		assert.Equal(t, 1, inner.confirmCalls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failed mutation leaves the cache untouched", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		inner := &stubUserRepository{setRefreshErr: domain.ErrUserNotFound}
		repo := NewCachingUserRepository(rdb, time.Minute, inner, "users")

		// No Del is expected on the mock: a failing inner call must not
		// invalidate anything.
		err := repo.SetRefreshToken(ctx, "missing", "token-a")
		assert.True(t, errors.Is(err, domain.ErrUserNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestNewCachingUserRepository_Defaults(t *testing.T) {
	inner := &stubUserRepository{}
	repo := NewCachingUserRepository(nil, 0, inner, "")

	assert.Equal(t, 5*time.Minute, repo.ttl)
	assert.Equal(t, "users", repo.namespace)
	assert.Equal(t, "users:id:abc", repo.cacheKey("abc"))
}
