package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"todo_service/internal/models"
	"todo_service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Title and Completed stay raw so that a JSON null or a wrong type can be
// told apart from an omitted field.
type createTodoRequest struct {
	Title json.RawMessage `json:"title" swaggertype:"string" example:"Buy milk"`
}

type updateTodoRequest struct {
	Title     json.RawMessage `json:"title,omitempty" swaggertype:"string" example:"Buy oat milk"`
	Completed json.RawMessage `json:"completed,omitempty" swaggertype:"boolean" example:"true"`
}

func (r updateTodoRequest) patch() (models.TodoPatch, error) {
	title, err := decodeField[string](r.Title, "title", "string")
	if err != nil {
		return models.TodoPatch{}, err
	}
	completed, err := decodeField[bool](r.Completed, "completed", "boolean")
	if err != nil {
		return models.TodoPatch{}, err
	}
	return models.TodoPatch{Title: title, Completed: completed}, nil
}

// decodeField returns nil for an omitted field and a validation error for
// null or a value of the wrong type.
func decodeField[T any](raw json.RawMessage, name, kind string) (*T, error) {
	if raw == nil {
		return nil, nil
	}
	var v T
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) || json.Unmarshal(raw, &v) != nil {
		return nil, &service.ValidationError{Msg: name + " must be a " + kind}
	}
	return &v, nil
}

// todoID reads the :id path parameter and returns it in canonical
// lowercase dashed form, which is how ids are stored.
func todoID(c *gin.Context) (string, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidID})
		return "", false
	}
	return id.String(), true
}

// @Summary      List todos
// @Description  Returns the caller's todos in creation order.
// @Tags         todos
// @Produce      json
// @Success      200  {array}   models.Todo
// @Failure      401  {object}  map[string]string
// @Router       /todos [get]
// @Security     BearerAuth
func (h *Handler) listTodos(c *gin.Context) {
	todos, err := h.services.List(c.Request.Context(), callerID(c))
	if err != nil {
		h.respondError(c, "todo_list_failed", err)
		return
	}
	if todos == nil {
		todos = []models.Todo{}
	}
	c.JSON(http.StatusOK, todos)
}

// @Summary      Get a todo
// @Tags         todos
// @Produce      json
// @Param        id   path      string  true  "Todo ID (UUID)"
// @Success      200  {object}  models.Todo
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /todos/{id} [get]
// @Security     BearerAuth
func (h *Handler) getTodo(c *gin.Context) {
	id, ok := todoID(c)
	if !ok {
		return
	}
	todo, err := h.services.Get(c.Request.Context(), callerID(c), id)
	if err != nil {
		h.respondError(c, "todo_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, todo)
}

// @Summary      Create a todo
// @Tags         todos
// @Accept       json
// @Produce      json
// @Param        body  body      createTodoRequest  true  "Todo payload"
// @Success      201   {object}  models.Todo
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /todos [post]
// @Security     BearerAuth
func (h *Handler) createTodo(c *gin.Context) {
	var req createTodoRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	title, err := decodeField[string](req.Title, "title", "string")
	if err != nil {
		h.respondError(c, "todo_create_failed", err)
		return
	}
	if title == nil {
		title = new(string)
	}

	todo, err := h.services.Create(c.Request.Context(), callerID(c), *title)
	if err != nil {
		h.respondError(c, "todo_create_failed", err)
		return
	}
	c.JSON(http.StatusCreated, todo)
}

// @Summary      Update a todo
// @Description  Only the provided fields change; at least one is required.
// @Tags         todos
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "Todo ID (UUID)"
// @Param        body  body      updateTodoRequest  true  "Fields to change"
// @Success      200   {object}  models.Todo
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /todos/{id} [put]
// @Security     BearerAuth
func (h *Handler) updateTodo(c *gin.Context) {
	id, ok := todoID(c)
	if !ok {
		return
	}
	var req updateTodoRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	patch, err := req.patch()
	if err != nil {
		h.respondError(c, "todo_update_failed", err)
		return
	}

	todo, err := h.services.Update(c.Request.Context(), callerID(c), id, patch)
	if err != nil {
		h.respondError(c, "todo_update_failed", err)
		return
	}
	c.JSON(http.StatusOK, todo)
}

// @Summary      Delete a todo
// @Tags         todos
// @Param        id   path  string  true  "Todo ID (UUID)"
// @Success      204
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /todos/{id} [delete]
// @Security     BearerAuth
func (h *Handler) deleteTodo(c *gin.Context) {
	id, ok := todoID(c)
	if !ok {
		return
	}
	if err := h.services.Delete(c.Request.Context(), callerID(c), id); err != nil {
		h.respondError(c, "todo_delete_failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}
