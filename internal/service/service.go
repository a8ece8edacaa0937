package service

import (
	"context"
	"time"

	"todo_service/internal/models"
	"todo_service/internal/repository"
)

type Authorization interface {
	SignUp(ctx context.Context, username, password string) (string, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (string, error)
}

// Todo is CRUD over task items. Every call is scoped to ownerID.
type Todo interface {
	List(ctx context.Context, ownerID string) ([]models.Todo, error)
	Get(ctx context.Context, ownerID, id string) (models.Todo, error)
	Create(ctx context.Context, ownerID, title string) (models.Todo, error)
	Update(ctx context.Context, ownerID, id string, patch models.TodoPatch) (models.Todo, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// TokenConfig holds the signing secret and token lifetime. Both are fixed
// for the life of the process.
type TokenConfig struct {
	Secret string
	TTL    time.Duration
}

type Service struct {
	Authorization
	Todo
}

func NewService(repos *repository.Repository, tokens TokenConfig) *Service {
	return &Service{
		Authorization: NewAuthService(repos.Auth, tokens),
		Todo:          NewTodoService(repos.Todos),
	}
}
