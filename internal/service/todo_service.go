package service

import (
	"context"
	"errors"
	"strings"

	"todo_service/internal/models"
	"todo_service/internal/repository"
)

type TodoService struct {
	repo repository.TodoRepo
}

func NewTodoService(repo repository.TodoRepo) *TodoService {
	return &TodoService{repo: repo}
}

func (s *TodoService) List(ctx context.Context, ownerID string) ([]models.Todo, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	return s.repo.List(ctx, ownerID)
}

func (s *TodoService) Get(ctx context.Context, ownerID, id string) (models.Todo, error) {
	if ownerID == "" {
		return models.Todo{}, ErrUnauthorized
	}
	t, err := s.repo.Get(ctx, ownerID, id)
	return t, mapTodoErr(err)
}

// Create stores a new incomplete todo owned by ownerID.
func (s *TodoService) Create(ctx context.Context, ownerID, title string) (models.Todo, error) {
	if ownerID == "" {
		return models.Todo{}, ErrUnauthorized
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Todo{}, invalid("title is required")
	}
	t, err := s.repo.Create(ctx, ownerID, title)
	if errors.Is(err, repository.ErrOwnerNotFound) {
		// signed token whose subject has no user row
		return models.Todo{}, ErrInvalidToken
	}
	return t, err
}

// Update applies only the fields present in the patch.
func (s *TodoService) Update(ctx context.Context, ownerID, id string, patch models.TodoPatch) (models.Todo, error) {
	if ownerID == "" {
		return models.Todo{}, ErrUnauthorized
	}
	if patch.Empty() {
		return models.Todo{}, invalid("at least one of title or completed must be provided")
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return models.Todo{}, invalid("title must not be empty")
		}
		patch.Title = &title
	}

	t, err := s.repo.Update(ctx, ownerID, id, patch)
	return t, mapTodoErr(err)
}

func (s *TodoService) Delete(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return ErrUnauthorized
	}
	return mapTodoErr(s.repo.Delete(ctx, ownerID, id))
}

func mapTodoErr(err error) error {
	if errors.Is(err, repository.ErrTodoNotFound) {
		return ErrNotFound
	}
	return err
}
