package gateway

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/taskmaster-platform/auth-service/config"
)

// TodoCleaner removes a user's data in the collaborating todo system.
// Callers treat failures as best-effort: they log and move on.
type TodoCleaner interface {
	DeleteUserLists(ctx context.Context, userID int64, cookies []*http.Cookie) error
}

var _ TodoCleaner = (*TodoService)(nil)

// TodoService is the resty client for the todo-list service.
type TodoService struct {
	client *resty.Client
	logger *slog.Logger
}

// NewTodoService builds the cleanup client from configuration.
func NewTodoService(cfg *config.Config, logger *slog.Logger) *TodoService {
	client := resty.New().
		SetBaseURL(cfg.Gateway.URL).
		SetTimeout(cfg.Gateway.Timeout)
	if cfg.Gateway.InsecureSkipVerify {
		client.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	return &TodoService{client: client, logger: logger}
}

// DeleteUserLists deletes all todo lists belonging to the user, forwarding
// the caller's session cookies so the todo service can authorize the call.
func (s *TodoService) DeleteUserLists(ctx context.Context, userID int64, cookies []*http.Cookie) error {
	l := s.logger.With(slog.String("method", "DeleteUserLists"), slog.Int64("userID", userID))

	resp, err := s.client.R().
		SetContext(ctx).
		SetCookies(cookies).
		Delete("/api/todo/lists")
	if err != nil {
		return fmt.Errorf("todo service request failed: %w", err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("todo service returned status %d", resp.StatusCode())
	}

	l.InfoContext(ctx, "User todo lists deleted")
	return nil
}
