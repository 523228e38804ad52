// Package app initializes and runs the todo tracker.
// It wires configuration, logging, storage, password hashing, sessions,
// the HTTP router and the optional gRPC server, and handles graceful shutdown.
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

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/patric-chuzhbe/todotracker/internal/auth"
	"github.com/patric-chuzhbe/todotracker/internal/config"
	"github.com/patric-chuzhbe/todotracker/internal/db/jsondb"
	"github.com/patric-chuzhbe/todotracker/internal/db/memorystorage"
	"github.com/patric-chuzhbe/todotracker/internal/db/postgresdb"
	"github.com/patric-chuzhbe/todotracker/internal/grpcserver"
	"github.com/patric-chuzhbe/todotracker/internal/ipchecker"
	"github.com/patric-chuzhbe/todotracker/internal/logger"
	"github.com/patric-chuzhbe/todotracker/internal/metrics"
	"github.com/patric-chuzhbe/todotracker/internal/models"
	"github.com/patric-chuzhbe/todotracker/internal/passwordhash"
	"github.com/patric-chuzhbe/todotracker/internal/router"
	"github.com/patric-chuzhbe/todotracker/internal/service"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 5 * time.Second
)

type storage interface {
	service.Storage
	Close() error
}

// App holds everything needed to serve the todo tracker.
type App struct {
	cfg          *config.Config
	db           storage
	httpServer   *http.Server
	httpListener net.Listener
	grpcServer   *grpc.Server
	grpcListener net.Listener
}

// New initializes a new instance of App by:
// - loading configuration
// - initializing logger
// - selecting and setting up storage
// - building the service, the session issuer and both transports
func New(configOptions ...config.InitOption) (*App, error) {
	var err error
	app := &App{}

	app.cfg, err = config.New(configOptions...)
	if err != nil {
		return nil, err
	}

	err = logger.Init(app.cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	app.db, err = getStorageByType(app.cfg)
	if err != nil {
		return nil, err
	}

	if err := app.init(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	return app, nil
}

func (a *App) init() error {
	signingKey, err := a.cfg.SigningKey()
	if err != nil {
		return err
	}
	issuer := auth.NewIssuer(signingKey, a.cfg.AuthTokenTTL)

	hasher := passwordhash.New(
		passwordhash.WithTime(a.cfg.HashTime),
		passwordhash.WithMemory(a.cfg.HashMemoryKiB),
		passwordhash.WithParallelism(a.cfg.HashParallelism),
	)

	theService, err := service.New(a.db, hasher)
	if err != nil {
		return err
	}

	checker, err := ipchecker.New(a.cfg.TrustedSubnet)
	if err != nil {
		return err
	}

	handler := router.New(
		theService,
		auth.New(issuer, a.cfg.AuthCookieName, a.cfg.IsProduction()),
		checker,
		router.WithAuthRateLimit(a.cfg.AuthRateLimit),
		router.WithProduction(a.cfg.IsProduction()),
		router.WithMetrics(metrics.New()),
	)

	a.httpListener, err = net.Listen("tcp", a.cfg.RunAddr)
	if err != nil {
		return fmt.Errorf("in internal/app/app.go/init(): error while `net.Listen()` calling: %w", err)
	}
	a.httpServer = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	if a.cfg.GRPCAddr == "" {
		return nil
	}

	a.grpcServer, a.grpcListener, err = grpcserver.NewGRPCServer(
		a.cfg.GRPCAddr,
		grpcserver.NewTodoHandler(theService, issuer),
		issuer,
	)
	if err != nil {
		_ = a.httpListener.Close()
		return fmt.Errorf("in internal/app/app.go/init(): error while `grpcserver.NewGRPCServer()` calling: %w", err)
	}

	return nil
}

// HTTPAddr is the address the HTTP server listens on.
func (a *App) HTTPAddr() string {
	return a.httpListener.Addr().String()
}

// Run serves until SIGINT or SIGTERM, then shuts both servers down and closes the storage.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return a.run(ctx)
}

func (a *App) run(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Log.Infoln("server running", "RunAddr", a.HTTPAddr())
		err := a.httpServer.Serve(a.httpListener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	if a.grpcServer != nil {
		group.Go(func() error {
			logger.Log.Infoln("gRPC server running", "GRPCAddr", a.grpcListener.Addr().String())
			if err := a.grpcServer.Serve(a.grpcListener); err != nil {
				return fmt.Errorf("gRPC server error: %w", err)
			}
			return nil
		})
	}

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Log.Infoln("Received shutdown signal. Stopping servers...")

		if a.grpcServer != nil {
			a.grpcServer.GracefulStop()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		return nil
	})

	err := group.Wait()
	if closeErr := a.db.Close(); closeErr != nil {
		err = errors.Join(err, closeErr)
	}

	return err
}

// Close finalizes resources used by App such as logging.
func (a *App) Close() {
	if err := logger.Sync(); err != nil {
		fmt.Println("Logger sync error:", err)
	}
}

func getAvailableStorageType(cfg *config.Config) int {
	if cfg.DatabaseDSN != "" {
		return models.StorageTypePostgresql
	}

	if cfg.DBFileName != "" {
		return models.StorageTypeFile
	}

	return models.StorageTypeMemory
}

func getStorageByType(cfg *config.Config) (storage, error) {
	switch getAvailableStorageType(cfg) {
	case models.StorageTypeUnknown:
		return nil, errors.New("unknown storage type")

	case models.StorageTypePostgresql:
		return postgresdb.New(
			context.Background(),
			cfg.DatabaseDSN,
			cfg.DBConnectionTimeout,
			cfg.MigrationsDir,
			postgresdb.WithDriver(cfg.DatabaseDriver),
		)

	case models.StorageTypeFile:
		return jsondb.New(cfg.DBFileName)
	}

	return memorystorage.New()
}
