// Package httpapi is the REST boundary of the user service.
package httpapi

import (
	"context"
	"io"
	"time"

	"github.com/dmitrijs2005/userservice/internal/logging"
	"github.com/dmitrijs2005/userservice/internal/server/models"
	"github.com/dmitrijs2005/userservice/internal/server/services"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

type TokenVerifier interface {
	Verify(token string) (string, error)
}

type RevocationChecker interface {
	IsRevoked(ctx context.Context, userID string) (bool, error)
}

type Profiles interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	GetPublicProfile(ctx context.Context, userID string) (*models.PublicProfile, error)
	UpdateProfile(ctx context.Context, userID string, patch models.ProfilePatch) (*models.Profile, error)
}

type Settings interface {
	GetSettings(ctx context.Context, userID string) (*models.UserSettings, error)
	UpdateSettings(ctx context.Context, userID string, in models.UserSettings) (*models.UserSettings, error)
}

type Avatars interface {
	Get(ctx context.Context, avatarID string) (*services.Avatar, error)
	GetForUser(ctx context.Context, viewerID, ownerID string) (*services.Avatar, error)
	Replace(ctx context.Context, userID string, data []byte, filename string) (string, error)
	DeleteForUser(ctx context.Context, userID string) error
}

// Deps bundles what the boundary talks to.
type Deps struct {
	Verifier    TokenVerifier
	Revocations RevocationChecker
	Profiles    Profiles
	Settings    Settings
	Avatars     Avatars
	Logger      logging.Logger
	// BodyLimit caps request bodies; zero keeps fiber's default.
	BodyLimit int
	// Sentry installs the sentry-go middleware. Only set it after sentry.Init.
	Sentry bool
}

type Server struct {
	address string
	app     *fiber.App
	deps    Deps
	logger  logging.Logger
}

func NewServer(address string, d Deps) *Server {
	s := &Server{
		address: address,
		deps:    d,
		logger:  d.Logger.With("module", "http_server"),
	}

	s.app = fiber.New(fiber.Config{
		BodyLimit:             d.BodyLimit,
		ErrorHandler:          s.errorHandler,
		DisableStartupMessage: true,
	})

	if d.Sentry {
		s.app.Use(sentryfiber.New(sentryfiber.Options{
			Repanic:         true,
			WaitForDelivery: false,
		}))
	}
	s.app.Use(recover.New())
	s.app.Use(requestid.New())

	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/health", s.health)

	api := s.app.Group("/api/v1", s.authenticate)

	api.Get("/user/all-info/:userId", s.requireOwner, s.getProfile)
	api.Get("/user/:userId", s.getPublicProfile)
	api.Put("/user/:userId", s.requireOwner, s.updateProfile)

	api.Get("/user-settings/:userId", s.requireOwner, s.getSettings)
	api.Put("/user-settings/:userId", s.requireOwner, s.updateSettings)

	api.Get("/user-avatars/:userId", s.getUserAvatar)
	api.Post("/user-avatars/:userId", s.requireOwner, s.uploadAvatar)
	api.Delete("/user-avatars/:userId", s.requireOwner, s.deleteAvatar)
	api.Get("/avatars/:avatarId", s.getAvatar)
}

// App exposes the fiber app, mainly for app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
		errCh <- s.app.Listen(s.address)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	return s.app.ShutdownWithTimeout(10 * time.Second)
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// stream copies an avatar body into the response and releases it.
func stream(c *fiber.Ctx, a *services.Avatar) error {
	defer a.Body.Close()
	c.Set(fiber.HeaderContentType, a.ContentType)
	c.Set(fiber.HeaderCacheControl, "private, max-age=60")
	data, err := io.ReadAll(a.Body)
	if err != nil {
		return err
	}
	return c.Send(data)
}
