package handlers

import (
	"net/http"

	_ "todo_service/docs" // registers the swagger spec
	"todo_service/internal/logger"
	"todo_service/internal/metrics"
	"todo_service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	metrics  bool
}

type Option func(*Handler)

// WithMetrics toggles request metrics and the /metrics endpoint.
func WithMetrics(enabled bool) Option {
	return func(h *Handler) { h.metrics = enabled }
}

// NewHandler constructs a new HTTP handler with dependencies. A nil logger
// discards output.
func NewHandler(services *service.Service, log *logger.Logger, opts ...Option) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	h := &Handler{services: services, log: log}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(h.recovery(), h.requestLogger())

	if h.metrics {
		router.Use(metrics.Middleware())
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", h.health)

	h.registerAuthRoutes(router)
	h.registerTodoRoutes(router)

	// live list feed; same identity rules as the REST routes
	router.GET("/ws/todos", h.userIdentity, h.todoFeed)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	user := r.Group("/user")
	{
		user.POST("/register", h.register)
		user.POST("/login", h.login)
	}
}

func (h *Handler) registerTodoRoutes(r *gin.Engine) {
	todos := r.Group("/todos", h.userIdentity)
	{
		todos.GET("", h.listTodos)
		todos.POST("", h.createTodo)
		todos.GET("/:id", h.getTodo)
		todos.PUT("/:id", h.updateTodo)
		todos.DELETE("/:id", h.deleteTodo)
	}
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
