// Package app wires the configuration, storage, repositories and transports
// together and runs the HTTP and gRPC servers until a shutdown signal.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/patric-chuzhbe/bookbuddy/internal/auth"
	"github.com/patric-chuzhbe/bookbuddy/internal/catalog"
	"github.com/patric-chuzhbe/bookbuddy/internal/config"
	"github.com/patric-chuzhbe/bookbuddy/internal/db/jsondb"
	"github.com/patric-chuzhbe/bookbuddy/internal/db/memorystorage"
	"github.com/patric-chuzhbe/bookbuddy/internal/db/postgresdb"
	"github.com/patric-chuzhbe/bookbuddy/internal/db/storage"
	"github.com/patric-chuzhbe/bookbuddy/internal/grpcserver"
	"github.com/patric-chuzhbe/bookbuddy/internal/hasher"
	"github.com/patric-chuzhbe/bookbuddy/internal/ipchecker"
	"github.com/patric-chuzhbe/bookbuddy/internal/logger"
	"github.com/patric-chuzhbe/bookbuddy/internal/metrics"
	"github.com/patric-chuzhbe/bookbuddy/internal/models"
	"github.com/patric-chuzhbe/bookbuddy/internal/repository"
	"github.com/patric-chuzhbe/bookbuddy/internal/router"
)

const shutdownTimeout = 10 * time.Second

// App owns every long lived resource of the service.
type App struct {
	cfg         *config.Config
	db          storage.Storage
	redis       *redis.Client
	httpHandler http.Handler
	grpcServer  *grpc.Server
}

// New loads the configuration, initializes the logger, opens the storage and
// builds both transports.
func New(configOptions ...config.InitOption) (*App, error) {
	cfg, err := config.New(configOptions...)
	if err != nil {
		return nil, err
	}

	if err := logger.Init(cfg.LogLevel); err != nil {
		return nil, err
	}

	app := &App{cfg: cfg}

	app.db, err = OpenStorage(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	passwordHasher, err := hasher.New(cfg.BcryptWorkFactor)
	if err != nil {
		app.db.Close()
		return nil, err
	}

	codec := auth.NewCodec([]byte(cfg.SecretKey), auth.WithTTL(cfg.TokenTTL))
	users := repository.NewUserRepository(app.db, passwordHasher)
	books := repository.NewBookRepository(app.db)

	routerOptions := []router.Option{
		router.WithCORSOrigins(cfg.CORSOrigins),
	}

	if cfg.TrustedSubnet != "" {
		checker, err := ipchecker.New(cfg.TrustedSubnet)
		if err != nil {
			app.db.Close()
			return nil, err
		}
		routerOptions = append(routerOptions, router.WithTrustedSubnetGate(checker.Middleware))
	}

	collector := metrics.New()
	routerOptions = append(routerOptions, router.WithMetrics(collector.Middleware, collector.Handler()))

	if cfg.StaticDir != "" {
		routerOptions = append(routerOptions, router.WithStaticDir(cfg.StaticDir))
	}

	app.httpHandler = router.New(
		users,
		books,
		app.newCatalog(),
		codec,
		app.db,
		auth.New(codec),
		routerOptions...,
	).Handler()

	if cfg.GRPCAddr != "" {
		app.grpcServer = grpcserver.NewServer(grpcserver.NewHandler(users, books, codec), codec)
	}

	return app, nil
}

func (a *App) newCatalog() catalog.Searcher {
	if a.cfg.CatalogURL == "" {
		logger.Log.Infoln("no catalog endpoint configured, book search returns nothing")
		return catalog.Stub{}
	}

	var searcher catalog.Searcher = catalog.NewGoogleBooks(a.cfg.CatalogURL, a.cfg.CatalogAPIKey, a.cfg.CatalogTimeout)
	if a.cfg.RedisAddr != "" {
		a.redis = redis.NewClient(&redis.Options{Addr: a.cfg.RedisAddr})
		searcher = catalog.NewCached(searcher, a.redis, a.cfg.CatalogCacheTTL)
	}

	return searcher
}

// HTTPHandler exposes the assembled HTTP handler.
func (a *App) HTTPHandler() http.Handler {
	return a.httpHandler
}

// Run serves until SIGINT or SIGTERM and then shuts down gracefully.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpListener, err := net.Listen("tcp", a.cfg.RunAddr)
	if err != nil {
		return fmt.Errorf("in internal/app/app.go/Run(): error while `net.Listen()` calling: %w", err)
	}

	var grpcListener net.Listener
	if a.grpcServer != nil {
		grpcListener, err = net.Listen("tcp", a.cfg.GRPCAddr)
		if err != nil {
			httpListener.Close()
			return fmt.Errorf("in internal/app/app.go/Run(): error while `net.Listen()` calling: %w", err)
		}
	}

	return a.serve(ctx, httpListener, grpcListener)
}

func (a *App) serve(ctx context.Context, httpListener, grpcListener net.Listener) error {
	server := &http.Server{
		Handler:           a.httpHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrCh := make(chan error, 2)

	logger.Log.Infoln("HTTP server running", "address", httpListener.Addr().String())
	go func() {
		if err := server.Serve(httpListener); !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if a.grpcServer != nil && grpcListener != nil {
		logger.Log.Infoln("gRPC server running", "address", grpcListener.Addr().String())
		go func() {
			if err := a.grpcServer.Serve(grpcListener); err != nil {
				serverErrCh <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Log.Infoln("received shutdown signal, draining connections")
	case serveErr = <-serverErrCh:
		logger.Log.Errorw("server stopped unexpectedly", zap.Error(serveErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if a.grpcServer != nil {
		a.grpcServer.GracefulStop()
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		serveErr = errors.Join(serveErr, fmt.Errorf("server shutdown error: %w", err))
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			serveErr = errors.Join(serveErr, err)
		}
	}

	if err := a.db.Close(); err != nil {
		serveErr = errors.Join(serveErr, err)
	}

	return serveErr
}

// Close flushes the logger.
func (a *App) Close() {
	if err := logger.Sync(); err != nil {
		fmt.Println("Logger sync error:", err)
	}
}

func availableStorageType(cfg *config.Config) int {
	if cfg.DatabaseDSN != "" {
		return models.StorageTypePostgresql
	}

	if cfg.DBFileName != "" {
		return models.StorageTypeFile
	}

	return models.StorageTypeMemory
}

// OpenStorage picks PostgreSQL when a DSN is configured, the JSON file store
// when a file path is configured, and memory otherwise.
func OpenStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch availableStorageType(cfg) {
	case models.StorageTypePostgresql:
		db, err := postgresdb.New(
			ctx,
			cfg.DatabaseDSN,
			cfg.DBConnectionTimeout,
			postgresdb.WithDriver(cfg.DBDriver),
		)
		if err != nil {
			return nil, err
		}
		return db, nil

	case models.StorageTypeFile:
		db, err := jsondb.New(cfg.DBFileName)
		if err != nil {
			return nil, err
		}
		return db, nil

	case models.StorageTypeMemory:
		return memorystorage.New(), nil
	}

	return nil, errors.New("unknown storage type")
}
