package user

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taskmaster-platform/auth-service/app/cache"
	"github.com/taskmaster-platform/auth-service/app/observability/metrics"
	"github.com/taskmaster-platform/auth-service/internal/types"
)

var _ UserRepo = (*CachedUserRepo)(nil)

// CachedUserRepo decorates a UserRepo with a read-through cache for id
// lookups and the full listing. Mutations invalidate after the store
// commits, so a read that follows a successful write always observes the
// new state. Cache failures degrade to store reads; absence is never
// cached.
type CachedUserRepo struct {
	inner  UserRepo
	cache  *cache.Client
	logger *slog.Logger
}

func NewCachedUserRepo(inner UserRepo, cacheClient *cache.Client, logger *slog.Logger) *CachedUserRepo {
	return &CachedUserRepo{
		inner:  inner,
		cache:  cacheClient,
		logger: logger,
	}
}

const allUsersKey = "users"

func userKey(userID int64) string {
	return fmt.Sprintf("users:%d", userID)
}

func userNamespace(userID int64) string {
	return fmt.Sprintf("users:%d:*", userID)
}

// cachedUser is the redis-side shape of a user. The API type hides the
// password hash from JSON, so caching it directly would drop the hash on
// the round-trip and make hit and miss reads disagree.
type cachedUser struct {
	UserID       int64     `json:"userId"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	Role         string    `json:"role"`
	IsVerified   bool      `json:"isVerified"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func toCached(u *types.User) cachedUser {
	return cachedUser{
		UserID:       u.UserID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		IsVerified:   u.IsVerified,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (c cachedUser) user() types.User {
	return types.User{
		UserID:       c.UserID,
		FirstName:    c.FirstName,
		LastName:     c.LastName,
		Username:     c.Username,
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		Role:         c.Role,
		IsVerified:   c.IsVerified,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func (r *CachedUserRepo) FindByID(ctx context.Context, userID int64) (*types.User, error) {
	key := userKey(userID)
	var cached cachedUser
	if r.cache.GetJSON(ctx, key, &cached) {
		metrics.Current().CacheHit(ctx)
		u := cached.user()
		return &u, nil
	}
	metrics.Current().CacheMiss(ctx)

	u, err := r.inner.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	r.cache.SetJSON(ctx, key, toCached(u))
	return u, nil
}

func (r *CachedUserRepo) ListAll(ctx context.Context) ([]types.User, error) {
	var cached []cachedUser
	if r.cache.GetJSON(ctx, allUsersKey, &cached) {
		metrics.Current().CacheHit(ctx)
		users := make([]types.User, 0, len(cached))
		for _, c := range cached {
			users = append(users, c.user())
		}
		return users, nil
	}
	metrics.Current().CacheMiss(ctx)

	users, err := r.inner.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]cachedUser, 0, len(users))
	for i := range users {
		entries = append(entries, toCached(&users[i]))
	}
	r.cache.SetJSON(ctx, allUsersKey, entries)
	return users, nil
}

// FindByUsername bypasses the cache; only id lookups and the listing are
// cached.
func (r *CachedUserRepo) FindByUsername(ctx context.Context, username string) (*types.User, error) {
	return r.inner.FindByUsername(ctx, username)
}

func (r *CachedUserRepo) FindByEmail(ctx context.Context, email string) (*types.User, error) {
	return r.inner.FindByEmail(ctx, email)
}

func (r *CachedUserRepo) Insert(ctx context.Context, user *types.User) (int64, error) {
	userID, err := r.inner.Insert(ctx, user)
	if err != nil {
		return 0, err
	}
	r.cache.Delete(ctx, allUsersKey)
	return userID, nil
}

func (r *CachedUserRepo) UpdateFields(ctx context.Context, userID int64, params types.UpdateUserParams) error {
	if err := r.inner.UpdateFields(ctx, userID, params); err != nil {
		return err
	}
	r.cache.Delete(ctx, userKey(userID), allUsersKey)
	return nil
}

func (r *CachedUserRepo) MarkVerified(ctx context.Context, userID int64) error {
	if err := r.inner.MarkVerified(ctx, userID); err != nil {
		return err
	}
	r.cache.Delete(ctx, userKey(userID), allUsersKey)
	return nil
}

func (r *CachedUserRepo) Delete(ctx context.Context, userID int64) error {
	if err := r.inner.Delete(ctx, userID); err != nil {
		return err
	}
	r.cache.Delete(ctx, userKey(userID), allUsersKey)
	r.cache.DeleteNamespace(ctx, userNamespace(userID))
	return nil
}
