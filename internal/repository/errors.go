package repository

import "errors"

var (
	// ErrUserAlreadyExists is returned when the username is already registered.
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrTodoNotFound is returned when no todo with the id exists for the owner.
	ErrTodoNotFound = errors.New("todo not found")

	// ErrOwnerNotFound is returned when a todo is created for a user id that
	// has no row in users.
	ErrOwnerNotFound = errors.New("owner does not exist")
)
