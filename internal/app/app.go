package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-online-store/internal/config"
	"go-online-store/internal/database"
	"go-online-store/internal/event"
	"go-online-store/internal/handler"
	"go-online-store/internal/live"
	"go-online-store/internal/middleware"
	"go-online-store/internal/pagination"
	"go-online-store/internal/permission"
	"go-online-store/internal/repository"
	"go-online-store/internal/router"
	"go-online-store/internal/serializer"
	"go-online-store/internal/service"
)

const tokenCleanupInterval = time.Hour

type App struct {
	server       *http.Server
	db           *database.DB
	cleanupFuncs []func()
}

// OpenDatabase connects to the configured database.
func OpenDatabase(ctx context.Context, cfg *config.Config) (*database.DB, error) {
	slog.Info("connecting to database", "driver", cfg.DatabaseDriver)
	db, err := database.New(ctx, database.Options{
		Driver:       cfg.DatabaseDriver,
		URL:          cfg.DatabaseURL,
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// New wires every component for cfg. Background workers started here stop
// when the app shuts down.
func New(cfg *config.Config) (*App, error) {
	db, err := OpenDatabase(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := db.Migrate("up"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	slog.Info("database ready")

	bus := event.NewBus()
	hasher := service.PasswordHasher{Cost: service.DefaultPasswordCost}

	authService := service.NewAuthService(userRepo, tokenRepo, hasher, cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	userService := service.NewUserService(userRepo, tokenRepo, hasher, bus)
	productService := service.NewProductService(productRepo, bus)
	categoryService := service.NewCategoryService(categoryRepo, bus)
	auditService := service.NewAuditService(auditRepo)

	if cfg.AdminUsername != "" {
		if _, err := userService.CreateSuperuser(context.Background(), cfg.AdminUsername, "", cfg.AdminPassword); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to bootstrap admin account: %w", err)
		}
		slog.Info("admin account ready", "username", cfg.AdminUsername)
	}

	paginators, err := newPaginators(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	hub := live.NewHub(bus)
	authMiddleware := middleware.NewAuthMiddleware(authService)
	appRouter := router.New(cfg, authMiddleware, router.Handlers{
		Auth:     handler.NewAuthHandler(authService, userService),
		Pages:    handler.NewPageHandler(authService, userService, cfg.SecureCookies),
		Products: handler.NewProductHandler(productService, serializer.ForProduct, permission.MutationsRequireAuth, paginators.products),
		Catalog:  handler.NewProductHandler(productService, serializer.ForCatalog, permission.AllowAny, paginators.catalog),
		Category: handler.NewCategoryHandler(categoryService, permission.MutationsRequireAuth),
		User:     handler.NewUserHandler(userService, serializer.ForUser, permission.UserGate(), paginators.users),
		Audit:    handler.NewAuditHandler(auditService, paginators.audit),
		Stream:   handler.NewAuditStreamHandler(hub, cfg.StreamHeartbeat),
		Docs:     handler.NewDocsHandler(cfg.DocsPath, cfg.DocsRoute),
		Health:   db.Health,
	})

	workerCtx, workerCancel := context.WithCancel(context.Background())
	events, unsubscribe := bus.Subscribe()
	auditDone := make(chan struct{})
	go func() {
		defer close(auditDone)
		auditService.Consume(workerCtx, events)
	}()
	go authService.StartTokenCleanup(workerCtx, tokenCleanupInterval)
	hubCtx, stopHub := context.WithCancel(workerCtx)
	go hub.Run(hubCtx)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}
	// Open event streams would otherwise hold Shutdown until its deadline.
	server.RegisterOnShutdown(stopHub)

	return &App{
		server: server,
		db:     db,
		cleanupFuncs: []func(){
			func() {
				// Closing the subscription lets the audit consumer drain what
				// was already published.
				unsubscribe()
				select {
				case <-auditDone:
				case <-time.After(5 * time.Second):
					slog.Warn("audit consumer did not drain in time")
				}
				workerCancel()
			},
			func() {
				db.Close()
			},
		},
	}, nil
}

type paginatorSet struct {
	products pagination.Paginator
	catalog  pagination.Paginator
	users    pagination.Paginator
	audit    pagination.Paginator
}

func newPaginators(cfg *config.Config) (paginatorSet, error) {
	var set paginatorSet
	var err error

	if set.products, err = pagination.New(cfg.ProductPagination, cfg.PageSize, cfg.MaxPageSize); err != nil {
		return set, fmt.Errorf("product pagination: %w", err)
	}
	if set.catalog, err = pagination.New(pagination.PageNumber, cfg.CatalogPageSize, cfg.MaxPageSize); err != nil {
		return set, fmt.Errorf("catalog pagination: %w", err)
	}
	if set.users, err = pagination.New(cfg.UserPagination, cfg.PageSize, cfg.MaxPageSize); err != nil {
		return set, fmt.Errorf("user pagination: %w", err)
	}
	if set.audit, err = pagination.New(pagination.PageNumber, cfg.PageSize, cfg.MaxPageSize); err != nil {
		return set, fmt.Errorf("audit pagination: %w", err)
	}

	return set, nil
}

// Handler exposes the routed handler, mainly for end-to-end tests.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Close stops background workers and releases the database.
func (a *App) Close() {
	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}
}

func (a *App) Run() error {
	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case <-stop:
	case err, ok := <-serveErr:
		if ok {
			a.Close()
			return fmt.Errorf("server failed: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	shutdownErr := a.server.Shutdown(ctx)
	a.Close()
	if shutdownErr != nil {
		return fmt.Errorf("graceful shutdown failed: %w", shutdownErr)
	}

	slog.Info("server stopped")
	return nil
}
