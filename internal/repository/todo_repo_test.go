package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"todo_service/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

var todoRowColumns = []string{"id", "owner_id", "title", "completed", "created_at", "updated_at"}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestTodoSQLite_List_ScopedByOwner(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewTodoRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta(selectTodosByOwnerSQL)).
		WithArgs("owner-1").
		WillReturnRows(sqlmock.NewRows(todoRowColumns).
			AddRow("t1", "owner-1", "first", false, now, now).
			AddRow("t2", "owner-1", "second", true, now, now))

	got, err := repo.List(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].ID != "t1" || got[1].ID != "t2" || !got[1].Completed {
		t.Fatalf("unexpected todos: %+v", got)
	}
}

func TestTodoSQLite_List_EmptyIsNotNil(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewTodoRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(selectTodosByOwnerSQL)).
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows(todoRowColumns))

	got, err := repo.List(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestTodoSQLite_Get(t *testing.T) {
	now := time.Now().UTC()
	tests := []struct {
		name      string
		mock      func(sqlmock.Sqlmock)
		wantErrIs error
		wantErr   bool
	}{
		{
			name: "found",
			mock: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(regexp.QuoteMeta(selectTodoSQL)).
					WithArgs("t1", "owner-1").
					WillReturnRows(sqlmock.NewRows(todoRowColumns).AddRow("t1", "owner-1", "milk", false, now, now))
			},
		},
		{
			name: "missing or foreign",
			mock: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(regexp.QuoteMeta(selectTodoSQL)).
					WithArgs("t1", "owner-1").
					WillReturnError(sql.ErrNoRows)
			},
			wantErr:   true,
			wantErrIs: ErrTodoNotFound,
		},
		{
			name: "query error",
			mock: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(regexp.QuoteMeta(selectTodoSQL)).
					WithArgs("t1", "owner-1").
					WillReturnError(errors.New("disk I/O error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, cleanup := newMockDB(t)
			defer cleanup()
			repo := NewTodoRepository(db)
			tt.mock(mock)

			got, err := repo.Get(context.Background(), "owner-1", "t1")
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				if tt.wantErrIs != nil && !errors.Is(err, tt.wantErrIs) {
					t.Fatalf("expected %v, got %v", tt.wantErrIs, err)
				}
				if tt.wantErrIs == nil && errors.Is(err, ErrTodoNotFound) {
					t.Fatalf("driver failure must not look like not-found: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got.ID != "t1" || got.Title != "milk" || got.OwnerID != "owner-1" {
				t.Fatalf("unexpected todo: %+v", got)
			}
		})
	}
}

func TestTodoSQLite_Create(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewTodoRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(insertTodoSQL)).
		WithArgs(sqlmock.AnyArg(), "owner-1", "Buy milk", false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	got, err := repo.Create(context.Background(), "owner-1", "Buy milk")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.ID == "" || got.OwnerID != "owner-1" || got.Completed {
		t.Fatalf("unexpected todo: %+v", got)
	}
	if got.CreatedAt.IsZero() || !got.CreatedAt.Equal(got.UpdatedAt) {
		t.Fatalf("expected equal non-zero timestamps, got %+v", got)
	}
}

func TestTodoSQLite_Create_UnknownOwner(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewTodoRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(insertTodoSQL)).
		WithArgs(sqlmock.AnyArg(), "ghost-user", "x", false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(errors.New("constraint failed: FOREIGN KEY constraint failed (787)"))

	_, err := repo.Create(context.Background(), "ghost-user", "x")
	if !errors.Is(err, ErrOwnerNotFound) {
		t.Fatalf("expected ErrOwnerNotFound, got %v", err)
	}
}

func TestTodoSQLite_Update_PassesNullForOmittedFields(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewTodoRepository(db)

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(updateTodoSQL)).
		WithArgs(nil, true, sqlmock.AnyArg(), "t1", "owner-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(selectTodoSQL)).
		WithArgs("t1", "owner-1").
		WillReturnRows(sqlmock.NewRows(todoRowColumns).AddRow("t1", "owner-1", "kept", true, now, now))
	mock.ExpectCommit()

	got, err := repo.Update(context.Background(), "owner-1", "t1", models.TodoPatch{Completed: boolPtr(true)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Title != "kept" || !got.Completed {
		t.Fatalf("unexpected todo: %+v", got)
	}
}

func TestTodoSQLite_Update_NotOwned(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewTodoRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(updateTodoSQL)).
		WithArgs("new", nil, sqlmock.AnyArg(), "t1", "intruder").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), "intruder", "t1", models.TodoPatch{Title: strPtr("new")})
	if !errors.Is(err, ErrTodoNotFound) {
		t.Fatalf("expected ErrTodoNotFound, got %v", err)
	}
}

func TestTodoSQLite_Update_ExecError(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewTodoRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(updateTodoSQL)).
		WithArgs("new", nil, sqlmock.AnyArg(), "t1", "owner-1").
		WillReturnError(errors.New("database is locked"))
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), "owner-1", "t1", models.TodoPatch{Title: strPtr("new")})
	if err == nil || errors.Is(err, ErrTodoNotFound) {
		t.Fatalf("expected wrapped driver error, got %v", err)
	}
}

func TestTodoSQLite_Delete(t *testing.T) {
	tests := []struct {
		name      string
		result    driver.Result
		execErr   error
		wantErrIs error
		wantErr   bool
	}{
		{name: "deleted", result: sqlmock.NewResult(0, 1)},
		{name: "nothing matched", result: sqlmock.NewResult(0, 0), wantErr: true, wantErrIs: ErrTodoNotFound},
		{name: "exec error", execErr: errors.New("locked"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, cleanup := newMockDB(t)
			defer cleanup()
			repo := NewTodoRepository(db)

			exp := mock.ExpectExec(regexp.QuoteMeta(deleteTodoSQL)).WithArgs("t1", "owner-1")
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(tt.result)
			}

			err := repo.Delete(context.Background(), "owner-1", "t1")
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("Delete: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error")
			}
			if tt.wantErrIs != nil && !errors.Is(err, tt.wantErrIs) {
				t.Fatalf("expected %v, got %v", tt.wantErrIs, err)
			}
		})
	}
}
