package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"todo_service/internal/config"
	"todo_service/internal/handlers"
	"todo_service/internal/logger"
	"todo_service/internal/repository"
	"todo_service/internal/repository/db"
	"todo_service/internal/repository/memory"
	"todo_service/internal/repository/postgres"
	"todo_service/internal/server"
	"todo_service/internal/service"

	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", os.Getenv("TODO_CONFIG"), "path to config file (default configs/config.yml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	// init logger
	log := logger.Get(cfg.Log.Level)
	defer func() { _ = log.Sync() }()

	if cfg.Auth.UsingDefaultSecret() {
		log.Warnw("using insecure default JWT secret; set JWT_SECRET in production")
	}
	if cfg.Log.Level != logger.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// open store
	repos, closeStore, err := openStore(ctx, cfg.DB)
	if err != nil {
		log.Fatalw("failed to open store", "driver", cfg.DB.Driver, "err", err)
	}
	defer closeStore()
	log.Infow("store ready", "driver", cfg.DB.Driver)

	// wire dependencies
	services := service.NewService(repos, service.TokenConfig{
		Secret: cfg.Auth.JWTSecret,
		TTL:    cfg.Auth.TokenTTL,
	})
	apiHandler := handlers.NewHandler(services, log, handlers.WithMetrics(cfg.Metrics.Enabled))

	// start HTTP server
	srv := server.New(cfg.Server)
	runHTTPServer(srv, cfg.Port, apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, cfg.Server.ShutdownTimeout, log)
}

// openStore selects the backend named by cfg.Driver. The returned func
// releases its resources.
func openStore(ctx context.Context, cfg config.DBConfig) (*repository.Repository, func(), error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.NewRepository(), func() {}, nil

	case config.DriverPostgres:
		pool, err := postgres.Open(ctx, postgres.Config{
			DSN:             cfg.DSN,
			MaxConns:        cfg.MaxConns,
			MinConns:        cfg.MinConns,
			MaxConnLifetime: cfg.MaxConnLifetime,
		})
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewRepository(pool), pool.Close, nil

	case config.DriverSQLite:
		conn, err := db.InitDB(ctx, cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewRepository(conn), func() { _ = conn.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown db driver %q", cfg.Driver)
	}
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		log.Infow("starting server", "port", port)
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, timeout time.Duration, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	cancel()

	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
