package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"todo_service/internal/models"
	"todo_service/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const todoColumns = `id, owner_id, title, completed, created_at, updated_at`

type TodoRepository struct {
	pool *pgxpool.Pool
}

var _ repository.TodoRepo = (*TodoRepository)(nil)

func NewTodoRepository(pool *pgxpool.Pool) *TodoRepository {
	return &TodoRepository{pool: pool}
}

func scanTodo(row pgx.Row) (models.Todo, error) {
	var t models.Todo
	if err := row.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Completed, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return models.Todo{}, err
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return t, nil
}

func (r *TodoRepository) List(ctx context.Context, ownerID string) ([]models.Todo, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+todoColumns+` FROM todos WHERE owner_id = $1 ORDER BY seq ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying todos: %w", err)
	}
	defer rows.Close()

	out := make([]models.Todo, 0, 16)
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning todo: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating todos: %w", err)
	}
	return out, nil
}

func (r *TodoRepository) Get(ctx context.Context, ownerID, id string) (models.Todo, error) {
	t, err := scanTodo(r.pool.QueryRow(ctx,
		`SELECT `+todoColumns+` FROM todos WHERE id = $1 AND owner_id = $2`, id, ownerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Todo{}, repository.ErrTodoNotFound
	}
	if err != nil {
		return models.Todo{}, fmt.Errorf("querying todo: %w", err)
	}
	return t, nil
}

func (r *TodoRepository) Create(ctx context.Context, ownerID, title string) (models.Todo, error) {
	now := time.Now().UTC()
	t := models.Todo{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO todos (`+todoColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.OwnerID, t.Title, t.Completed, t.CreatedAt, t.UpdatedAt,
	)
	if isForeignKeyViolation(err) {
		return models.Todo{}, repository.ErrOwnerNotFound
	}
	if err != nil {
		return models.Todo{}, fmt.Errorf("inserting todo: %w", err)
	}
	return t, nil
}

// Update merges the patch in a single statement matched on id and owner.
func (r *TodoRepository) Update(ctx context.Context, ownerID, id string, p models.TodoPatch) (models.Todo, error) {
	t, err := scanTodo(r.pool.QueryRow(ctx, `
		UPDATE todos SET
			title = COALESCE($1::text, title),
			completed = COALESCE($2::boolean, completed),
			updated_at = $3
		WHERE id = $4 AND owner_id = $5
		RETURNING `+todoColumns,
		p.Title, p.Completed, time.Now().UTC(), id, ownerID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Todo{}, repository.ErrTodoNotFound
	}
	if err != nil {
		return models.Todo{}, fmt.Errorf("updating todo: %w", err)
	}
	return t, nil
}

func (r *TodoRepository) Delete(ctx context.Context, ownerID, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM todos WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("deleting todo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrTodoNotFound
	}
	return nil
}
