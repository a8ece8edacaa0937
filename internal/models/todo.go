package models

import "time"

// Todo is a single task item. OwnerID is set once at creation and never changes.
type Todo struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TodoPatch carries the fields of a partial update. Nil means "leave unchanged".
type TodoPatch struct {
	Title     *string
	Completed *bool
}

// Empty reports whether the patch changes nothing.
func (p TodoPatch) Empty() bool {
	return p.Title == nil && p.Completed == nil
}
