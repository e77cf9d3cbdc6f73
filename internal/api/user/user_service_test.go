package user

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster-platform/auth-service/config"
	"github.com/taskmaster-platform/auth-service/internal/api/auth"
	"github.com/taskmaster-platform/auth-service/internal/types"
)

type MockTodoCleaner struct {
	mock.Mock
}

func (m *MockTodoCleaner) DeleteUserLists(ctx context.Context, userID int64, cookies []*http.Cookie) error {
	args := m.Called(ctx, userID, cookies)
	return args.Error(0)
}

func newUserService(t *testing.T) (*MockUserRepo, *MockTodoCleaner, *UserServiceImpl) {
	t.Helper()
	repo := new(MockUserRepo)
	todos := new(MockTodoCleaner)
	adminCfg := config.AdminConfig{
		FirstName: "Root",
		Username:  "admin",
		Email:     "admin@example.com",
		Password:  "admin-password",
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return repo, todos, NewUserService(repo, todos, adminCfg, logger)
}

func TestUserService_GetAllUsers(t *testing.T) {
	t.Run("Should return sanitized users", func(t *testing.T) {
		repo, _, svc := newUserService(t)
		ctx := context.Background()
		repo.On("ListAll", mock.Anything).Return([]types.User{*sampleUser()}, nil).Once()

		users, err := svc.GetAllUsers(ctx)
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, "ada", users[0].Username)
	})
}

func TestUserService_CreateUser(t *testing.T) {
	t.Run("Should create a verified account with a hashed password", func(t *testing.T) {
		repo, _, svc := newUserService(t)
		ctx := context.Background()
		created := sampleUser()

		repo.On("Insert", mock.Anything, mock.MatchedBy(func(u *types.User) bool {
			return u.IsVerified && u.Role == types.RoleUser &&
				u.PasswordHash != "password1" && auth.CheckPassword("password1", u.PasswordHash)
		})).Return(int64(42), nil).Once()
		repo.On("FindByID", mock.Anything, int64(42)).Return(created, nil).Once()

		got, err := svc.CreateUser(ctx, CreateUserParams{
			FirstName: "Ada",
			Username:  "ada",
			Email:     "ada@example.com",
			Password:  "password1",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(42), got.UserID)
		repo.AssertExpectations(t)
	})

	t.Run("Should propagate duplicate conflicts", func(t *testing.T) {
		repo, _, svc := newUserService(t)
		ctx := context.Background()
		repo.On("Insert", mock.Anything, mock.Anything).Return(int64(0), types.ErrEmailTaken).Once()

		_, err := svc.CreateUser(ctx, CreateUserParams{
			FirstName: "Ada",
			Username:  "ada",
			Email:     "ada@example.com",
			Password:  "password1",
		})
		assert.ErrorIs(t, err, types.ErrEmailTaken)
	})
}

func TestUserService_UpdateUser(t *testing.T) {
	t.Run("Should hash a changed password before persisting", func(t *testing.T) {
		repo, _, svc := newUserService(t)
		ctx := context.Background()
		password := "new-password-1"

		repo.On("UpdateFields", mock.Anything, int64(42), mock.MatchedBy(func(p types.UpdateUserParams) bool {
			return p.PasswordHash != nil && auth.CheckPassword(password, *p.PasswordHash)
		})).Return(nil).Once()
		repo.On("FindByID", mock.Anything, int64(42)).Return(sampleUser(), nil).Once()

		_, err := svc.UpdateUser(ctx, 42, UpdateUserRequest{Password: &password})
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})
}

func TestUserService_DeleteUser(t *testing.T) {
	ctx := context.Background()
	cookies := []*http.Cookie{{Name: "token", Value: "abc"}}

	t.Run("Should delete and clean up todo data", func(t *testing.T) {
		repo, todos, svc := newUserService(t)
		repo.On("Delete", mock.Anything, int64(42)).Return(nil).Once()
		todos.On("DeleteUserLists", mock.Anything, int64(42), cookies).Return(nil).Once()

		require.NoError(t, svc.DeleteUser(ctx, 42, cookies))
		todos.AssertExpectations(t)
	})

	t.Run("Should succeed even when the cleanup gateway fails", func(t *testing.T) {
		repo, todos, svc := newUserService(t)
		repo.On("Delete", mock.Anything, int64(42)).Return(nil).Once()
		todos.On("DeleteUserLists", mock.Anything, int64(42), cookies).Return(errors.New("gateway down")).Once()

		assert.NoError(t, svc.DeleteUser(ctx, 42, cookies))
	})

	t.Run("Should not call the gateway when the delete fails", func(t *testing.T) {
		repo, todos, svc := newUserService(t)
		repo.On("Delete", mock.Anything, int64(999)).Return(types.ErrNotFound).Once()

		assert.ErrorIs(t, svc.DeleteUser(ctx, 999, cookies), types.ErrNotFound)
		todos.AssertNotCalled(t, "DeleteUserLists", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestUserService_UpdateProfile(t *testing.T) {
	t.Run("Should change only supplied fields", func(t *testing.T) {
		repo, _, svc := newUserService(t)
		ctx := context.Background()
		firstName := "Augusta"

		repo.On("UpdateFields", mock.Anything, int64(42), mock.MatchedBy(func(p types.UpdateUserParams) bool {
			return p.FirstName != nil && *p.FirstName == firstName &&
				p.LastName == nil && p.Username == nil && p.Email == nil && p.PasswordHash == nil
		})).Return(nil).Once()
		repo.On("FindByID", mock.Anything, int64(42)).Return(sampleUser(), nil).Once()

		_, err := svc.UpdateProfile(ctx, 42, UpdateUserRequest{FirstName: &firstName})
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})
}

func TestUserService_InitializeAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("Should seed the admin account when absent", func(t *testing.T) {
		repo, _, svc := newUserService(t)
		repo.On("FindByEmail", mock.Anything, "admin@example.com").Return(nil, types.ErrNotFound).Once()
		repo.On("Insert", mock.Anything, mock.MatchedBy(func(u *types.User) bool {
			return u.Role == types.RoleAdmin && u.IsVerified && u.Username == "admin"
		})).Return(int64(1), nil).Once()

		require.NoError(t, svc.InitializeAdmin(ctx))
		repo.AssertExpectations(t)
	})

	t.Run("Should be a no-op when the admin exists", func(t *testing.T) {
		repo, _, svc := newUserService(t)
		repo.On("FindByEmail", mock.Anything, "admin@example.com").Return(sampleUser(), nil).Once()

		require.NoError(t, svc.InitializeAdmin(ctx))
		repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})

	t.Run("Should tolerate a concurrent bootstrap", func(t *testing.T) {
		repo, _, svc := newUserService(t)
		repo.On("FindByEmail", mock.Anything, "admin@example.com").Return(nil, types.ErrNotFound).Once()
		repo.On("Insert", mock.Anything, mock.Anything).Return(int64(0), types.ErrEmailTaken).Once()

		assert.NoError(t, svc.InitializeAdmin(ctx))
	})

	t.Run("Should skip when credentials are not configured", func(t *testing.T) {
		repo := new(MockUserRepo)
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		svc := NewUserService(repo, new(MockTodoCleaner), config.AdminConfig{}, logger)

		require.NoError(t, svc.InitializeAdmin(ctx))
		repo.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
	})
}
