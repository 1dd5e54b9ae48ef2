package app

import (
	"context"
	"errors"
	"fmt"
	"kanban/internal/config"
	"kanban/internal/handlers"
	"kanban/internal/logger"
	"kanban/internal/middleware"
	"kanban/internal/repository/task/inmemory"
	"kanban/internal/repository/task/postgres"
	"kanban/internal/service"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config     *config.Config
	server     *http.Server
	router     *chi.Mux
	repository service.Repository
	service    handlers.Service
	shutdowns  []func() // функции для graceful shutdown, вызываются в обратном порядке
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

func (a *App) Init(ctx context.Context) (*App, error) {
	logging := a.config.Logging
	var file *logger.FileOptions
	if logging.File != "" {
		file = &logger.FileOptions{
			Path:       logging.File,
			MaxSizeMB:  logging.MaxSizeMB,
			MaxBackups: logging.MaxBackups,
			MaxAgeDays: logging.MaxAgeDays,
			Compress:   logging.Compress,
		}
	}
	if err := logger.Init(logging.Development, file); err != nil {
		return nil, fmt.Errorf("инициализация логгера: %w", err)
	}

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	repoType, err := a.initRepository(ctx)
	if err != nil {
		a.Shutdown()
		return nil, err
	}

	a.service = service.NewTaskService(a.repository, repoType)
	a.router = a.newRouter()
	a.server = &http.Server{
		Addr:         a.config.GetServerAddr(),
		Handler:      a.Handler(),
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}

	logger.Info("Приложение инициализировано",
		zap.String("repository", string(repoType)),
		zap.String("addr", a.server.Addr))
	return a, nil
}

func (a *App) initRepository(ctx context.Context) (service.RepoType, error) {
	switch service.RepoType(a.config.Repository.Type) {
	case service.DBType:
		db := a.config.Database
		if db.Migrate {
			if err := postgres.Migrate(db.URL); err != nil {
				return "", fmt.Errorf("миграции: %w", err)
			}
		}

		storage, err := postgres.New(ctx, db.URL, postgres.PoolOptions{
			MaxConns:        db.MaxConnections,
			MinConns:        db.MinConnections,
			MaxConnIdleTime: db.IdleTimeout,
			SlowQuery:       db.SlowQuery,
		})
		if err != nil {
			return "", fmt.Errorf("подключение к PostgreSQL: %w", err)
		}

		a.repository = storage
		a.shutdowns = append(a.shutdowns, func() {
			logger.Info("Закрытие пула PostgreSQL...")
			storage.Close()
		})
		return service.DBType, nil

	case service.InMemoryType:
		a.repository = inmemory.NewTaskStorage()
		return service.InMemoryType, nil

	default:
		return "", fmt.Errorf("неизвестный тип репозитория %q", a.config.Repository.Type)
	}
}

func (a *App) newRouter() *chi.Mux {
	srv := a.config.Server
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: srv.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:         300,
	}))
	r.Use(middleware.Timeout(srv.RequestTimeout))
	r.Use(middleware.RateLimit(srv.RateLimit))

	handlers.NewTaskHandler(a.service).Routes(r)
	return r
}

// Handler - корневой обработчик с трассировкой OpenTelemetry
func (a *App) Handler() http.Handler {
	return otelhttp.NewHandler(a.router, "kanban-api")
}

// Run обслуживает запросы до отмены ctx, затем корректно останавливает сервер
func (a *App) Run(ctx context.Context) error {
	defer a.Shutdown()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Сервер запущен", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http сервер: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Остановка сервера...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("остановка сервера: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func (a *App) Shutdown() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	a.shutdowns = nil
}
