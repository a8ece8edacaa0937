package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"todo_service/internal/models"

	"github.com/google/uuid"
)

type TodoSQLite struct {
	db *sql.DB
}

func NewTodoRepository(db *sql.DB) *TodoSQLite {
	return &TodoSQLite{db: db}
}

var _ TodoRepo = (*TodoSQLite)(nil)

const (
	todoColumns = `id, owner_id, title, completed, created_at, updated_at`

	selectTodosByOwnerSQL = `SELECT ` + todoColumns + ` FROM todos WHERE owner_id = ? ORDER BY rowid ASC`
	selectTodoSQL         = `SELECT ` + todoColumns + ` FROM todos WHERE id = ? AND owner_id = ?`
	insertTodoSQL         = `INSERT INTO todos (` + todoColumns + `) VALUES (?, ?, ?, ?, ?, ?)`

	// COALESCE keeps the stored value for omitted fields, so two writers
	// touching different fields never overwrite each other.
	updateTodoSQL = `
		UPDATE todos SET
			title = COALESCE(?, title),
			completed = COALESCE(?, completed),
			updated_at = ?
		WHERE id = ? AND owner_id = ?`

	deleteTodoSQL = `DELETE FROM todos WHERE id = ? AND owner_id = ?`
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(row rowScanner) (models.Todo, error) {
	var t models.Todo
	if err := row.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Completed, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return models.Todo{}, err
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return t, nil
}

// List returns the owner's todos in insertion order.
func (r *TodoSQLite) List(ctx context.Context, ownerID string) ([]models.Todo, error) {
	rows, err := r.db.QueryContext(ctx, selectTodosByOwnerSQL, ownerID)
	if err != nil {
		return nil, fmt.Errorf("select todos for owner %q: %w", ownerID, err)
	}
	defer rows.Close()

	out := make([]models.Todo, 0, 16)
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate todos: %w", err)
	}
	return out, nil
}

func (r *TodoSQLite) Get(ctx context.Context, ownerID, id string) (models.Todo, error) {
	t, err := scanTodo(r.db.QueryRowContext(ctx, selectTodoSQL, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Todo{}, ErrTodoNotFound
		}
		return models.Todo{}, fmt.Errorf("select todo %q: %w", id, err)
	}
	return t, nil
}

func (r *TodoSQLite) Create(ctx context.Context, ownerID, title string) (models.Todo, error) {
	now := time.Now().UTC()
	t := models.Todo{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Title:     title,
		Completed: false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := r.db.ExecContext(ctx, insertTodoSQL,
		t.ID, t.OwnerID, t.Title, t.Completed, t.CreatedAt, t.UpdatedAt,
	)
	if isForeignKeyViolation(err) {
		return models.Todo{}, ErrOwnerNotFound
	}
	if err != nil {
		return models.Todo{}, fmt.Errorf("insert todo for owner %q: %w", ownerID, err)
	}
	return t, nil
}

// Update merges the patch in one statement and reads the row back in the
// same transaction. The row is matched on id and owner together, so a
// foreign row behaves exactly like a missing one.
func (r *TodoSQLite) Update(ctx context.Context, ownerID, id string, p models.TodoPatch) (models.Todo, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Todo{}, fmt.Errorf("begin update todo %q: %w", id, err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, updateTodoSQL,
		optional(p.Title),
		optional(p.Completed),
		time.Now().UTC(),
		id,
		ownerID,
	)
	if err != nil {
		return models.Todo{}, fmt.Errorf("update todo %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.Todo{}, fmt.Errorf("rows affected for todo %q: %w", id, err)
	}
	if n == 0 {
		return models.Todo{}, ErrTodoNotFound
	}

	t, err := scanTodo(tx.QueryRowContext(ctx, selectTodoSQL, id, ownerID))
	if err != nil {
		return models.Todo{}, fmt.Errorf("reload todo %q: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return models.Todo{}, fmt.Errorf("commit update todo %q: %w", id, err)
	}
	return t, nil
}

func (r *TodoSQLite) Delete(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, deleteTodoSQL, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete todo %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for todo %q: %w", id, err)
	}
	if n == 0 {
		return ErrTodoNotFound
	}
	return nil
}

// optional turns a nil pointer into SQL NULL.
func optional[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
