package repository

import (
	"context"
	"database/sql"

	"todo_service/internal/models"
)

// Authorization is the credential store.
type Authorization interface {
	// Create inserts a user and returns its store-assigned id.
	// Returns ErrUserAlreadyExists if the username is taken.
	Create(ctx context.Context, username, passwordHash string) (string, error)
	// GetByUsername returns (nil, nil) when no user matches.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// TodoRepo persists task items. Every method is scoped by owner: a row that
// exists but belongs to someone else is reported as ErrTodoNotFound.
type TodoRepo interface {
	List(ctx context.Context, ownerID string) ([]models.Todo, error)
	Get(ctx context.Context, ownerID, id string) (models.Todo, error)
	Create(ctx context.Context, ownerID, title string) (models.Todo, error)
	// Update applies the non-nil fields of p in a single atomic step.
	Update(ctx context.Context, ownerID, id string, p models.TodoPatch) (models.Todo, error)
	Delete(ctx context.Context, ownerID, id string) error
}

type Repository struct {
	Auth  Authorization
	Todos TodoRepo
}

// NewRepository wires the SQLite-backed stores.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Auth:  NewUserRepository(db),
		Todos: NewTodoRepository(db),
	}
}
