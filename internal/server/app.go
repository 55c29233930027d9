// Package server wires the user service together: storage, object store,
// event bridge, background sweepers and the HTTP and gRPC servers. It also
// handles graceful shutdown on SIGINT/SIGTERM/SIGQUIT.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/userservice/internal/logging"
	"github.com/dmitrijs2005/userservice/internal/platform/otel"
	"github.com/dmitrijs2005/userservice/internal/server/auth"
	"github.com/dmitrijs2005/userservice/internal/server/config"
	"github.com/dmitrijs2005/userservice/internal/server/events"
	"github.com/dmitrijs2005/userservice/internal/server/httpapi"
	"github.com/dmitrijs2005/userservice/internal/server/objectstore"
	"github.com/dmitrijs2005/userservice/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/userservice/internal/server/revocation"
	"github.com/dmitrijs2005/userservice/internal/server/services"
	"github.com/getsentry/sentry-go"

	gs "github.com/dmitrijs2005/userservice/internal/server/grpc"
)

const serviceName = "userservice"

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB

	http       *httpapi.Server
	grpc       *gs.GRPCServer
	bridge     *events.Bridge
	reaper     *revocation.Reaper
	reconciler *services.Reconciler

	shutdownTracing func(context.Context) error
	sentry          bool
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSON(os.Stdout, c.LogLevel)

	shutdownTracing, err := otel.Setup(ctx, serviceName, c.OTelEndpoint)
	if err != nil {
		return nil, fmt.Errorf("tracing init error: %w", err)
	}

	sentryOn := false
	if c.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              c.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      c.Environment,
		}); err != nil {
			logger.Error(ctx, "sentry init failed", "error", err)
		} else {
			sentryOn = true
		}
	}

	db, err := repomanager.OpenDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	objects, err := objectstore.NewS3Store(ctx, objectstore.S3Options{
		Region:       c.S3Region,
		AccessKey:    c.S3RootUser,
		SecretKey:    c.S3RootPassword,
		BaseEndpoint: c.S3BaseEndpoint,
		Bucket:       c.S3Bucket,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("object store init error: %w", err)
	}
	if err := objects.EnsureBucket(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("object store bucket error: %w", err)
	}

	bus := events.NewPostgresBus(db, c.DatabaseDSN, logger)
	revocations := revocation.NewPostgresStore(rm.SignOutMarks(db), c.StorageTimeout)
	verifier := auth.NewVerifier(c.SecretKey, c.TokenIssuer, c.TokenSubject, c.AccessTokenValidityDuration)

	profiles := services.NewProfileService(db, rm, events.NewPublisher(bus), logger, c.StorageTimeout)
	settings := services.NewSettingsService(db, rm, services.SeededIDs(c.IDSeed), c.StorageTimeout)
	avatars := services.NewAvatarService(db, rm, objects, logger, c.StorageTimeout, c.MaxAvatarSize)

	// Multipart framing adds a little on top of the image itself.
	bodyLimit := int(c.MaxAvatarSize) + 64<<10

	return &App{
		config: c,
		logger: logger,
		db:     db,
		http: httpapi.NewServer(c.EndpointAddrHTTP, httpapi.Deps{
			Verifier:    verifier,
			Revocations: revocations,
			Profiles:    profiles,
			Settings:    settings,
			Avatars:     avatars,
			Logger:      logger,
			BodyLimit:   bodyLimit,
			Sentry:      sentryOn,
		}),
		grpc:            gs.NewGRPCServer(c.EndpointAddrGRPC, logger, 10*time.Second, db),
		bridge:          events.NewBridge(bus, profiles, revocations, c.AccessTokenValidityDuration, logger),
		reaper:          revocation.NewReaper(revocations, c.RevocationPurgeInterval, logger),
		reconciler:      services.NewReconciler(db, rm, objects, logger, c.AvatarReconcileInterval, c.AvatarOrphanGrace),
		shutdownTracing: shutdownTracing,
		sentry:          sentryOn,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// serve runs fn and cancels the whole app if it fails.
func (app *App) serve(ctx context.Context, cancelFunc context.CancelFunc, name string, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		app.logger.Error(ctx, "server failed", "server", name, "error", err)
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(5)
	go func() {
		defer wg.Done()
		app.serve(ctx, cancelFunc, "http", app.http.Run)
	}()
	go func() {
		defer wg.Done()
		app.serve(ctx, cancelFunc, "grpc", app.grpc.Run)
	}()
	go func() {
		defer wg.Done()
		app.bridge.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		app.reaper.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		app.reconciler.Run(ctx)
	}()

	wg.Wait()

	app.close()
}

func (app *App) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.shutdownTracing(ctx); err != nil {
		app.logger.Warn(ctx, "tracing shutdown failed", "error", err)
	}
	if app.sentry {
		sentry.Flush(2 * time.Second)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Warn(ctx, "db close failed", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
