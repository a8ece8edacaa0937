// Package memory provides process-local implementations of the repository
// interfaces. Data is lost on restart; it backs the "memory" driver and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"todo_service/internal/models"
	"todo_service/internal/repository"

	"github.com/google/uuid"
)

// NewRepository returns a Repository whose todo store checks owners against
// its user store, like the users foreign key on the SQL backends.
func NewRepository() *repository.Repository {
	users := NewUserStore()
	return &repository.Repository{
		Auth:  users,
		Todos: NewTodoStore(users),
	}
}

// UserStore keeps users indexed by username.
type UserStore struct {
	mu         sync.RWMutex
	byUsername map[string]models.User
	ids        map[string]struct{}
}

var _ repository.Authorization = (*UserStore)(nil)

func NewUserStore() *UserStore {
	return &UserStore{
		byUsername: make(map[string]models.User),
		ids:        make(map[string]struct{}),
	}
}

// Create checks and inserts under one lock, so duplicate names cannot race.
func (s *UserStore) Create(_ context.Context, username, passwordHash string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byUsername[username]; exists {
		return "", repository.ErrUserAlreadyExists
	}
	u := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	s.byUsername[username] = u
	s.ids[u.ID] = struct{}{}
	return u.ID, nil
}

// Exists reports whether a user with the id was created.
func (s *UserStore) Exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

func (s *UserStore) GetByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byUsername[username]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// TodoStore keeps todos by id plus the insertion order.
type TodoStore struct {
	mu     sync.RWMutex
	todos  map[string]models.Todo
	order  []string
	owners *UserStore
}

var _ repository.TodoRepo = (*TodoStore)(nil)

// NewTodoStore returns an empty store. With a nil owners store any owner id
// is accepted.
func NewTodoStore(owners *UserStore) *TodoStore {
	return &TodoStore{todos: make(map[string]models.Todo), owners: owners}
}

func (s *TodoStore) List(_ context.Context, ownerID string) ([]models.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Todo, 0, 16)
	for _, id := range s.order {
		if t := s.todos[id]; t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *TodoStore) Get(_ context.Context, ownerID, id string) (models.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lookup(ownerID, id)
}

func (s *TodoStore) Create(_ context.Context, ownerID, title string) (models.Todo, error) {
	if s.owners != nil && !s.owners.Exists(ownerID) {
		return models.Todo{}, repository.ErrOwnerNotFound
	}
	now := time.Now().UTC()
	t := models.Todo{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.todos[t.ID] = t
	s.order = append(s.order, t.ID)
	return t, nil
}

func (s *TodoStore) Update(_ context.Context, ownerID, id string, p models.TodoPatch) (models.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.lookup(ownerID, id)
	if err != nil {
		return models.Todo{}, err
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	t.UpdatedAt = time.Now().UTC()
	s.todos[id] = t
	return t, nil
}

func (s *TodoStore) Delete(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.lookup(ownerID, id); err != nil {
		return err
	}
	delete(s.todos, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// lookup must be called with s.mu held.
func (s *TodoStore) lookup(ownerID, id string) (models.Todo, error) {
	t, ok := s.todos[id]
	if !ok || t.OwnerID != ownerID {
		return models.Todo{}, repository.ErrTodoNotFound
	}
	return t, nil
}
