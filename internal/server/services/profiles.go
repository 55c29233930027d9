package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/userservice/internal/common"
	"github.com/dmitrijs2005/userservice/internal/dbx"
	"github.com/dmitrijs2005/userservice/internal/logging"
	"github.com/dmitrijs2005/userservice/internal/server/models"
	"github.com/dmitrijs2005/userservice/internal/server/repositories/repomanager"
)

// ChangePublisher announces profile changes to downstream consumers.
type ChangePublisher interface {
	PublishUserChanged(ctx context.Context, u *models.User) error
}

type ProfileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	publisher   ChangePublisher
	logger      logging.Logger
	timeout     time.Duration
}

func NewProfileService(db *sql.DB, m repomanager.RepositoryManager, p ChangePublisher, l logging.Logger, timeout time.Duration) *ProfileService {
	return &ProfileService{
		db:          db,
		repomanager: m,
		publisher:   p,
		logger:      l.With("module", "profile_service"),
		timeout:     timeout,
	}
}

// GetProfile returns the owner's full view.
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	ctx, cancel := bounded(ctx, s.timeout)
	defer cancel()

	u, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	p := u.ToProfile()
	return &p, nil
}

// GetPublicProfile returns the view of userID that any caller may see.
func (s *ProfileService) GetPublicProfile(ctx context.Context, userID string) (*models.PublicProfile, error) {
	ctx, cancel := bounded(ctx, s.timeout)
	defer cancel()

	u, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	settings, err := s.repomanager.Settings(s.db).GetByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		settings = nil
	}

	p := Project(u, settings)
	return &p, nil
}

// UpdateProfile validates and stores patch, then announces the new snapshot.
// A failed announcement is logged; the update itself stands.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, patch models.ProfilePatch) (*models.Profile, error) {
	if err := ValidateProfilePatch(patch); err != nil {
		return nil, err
	}

	ctx, cancel := bounded(ctx, s.timeout)
	defer cancel()

	var updated *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		u, err := repo.LockByID(ctx, userID)
		if err != nil {
			return err
		}

		patch.Apply(u)
		if err := repo.UpdateProfile(ctx, u); err != nil {
			return err
		}

		updated = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.publisher.PublishUserChanged(ctx, updated); err != nil {
		s.logger.Error(ctx, "user changed event not published", "user_id", userID, "error", err)
	}

	p := updated.ToProfile()
	return &p, nil
}

// CreateUser inserts the user announced by a "user created" event.
// Redelivered events are ignored.
func (s *ProfileService) CreateUser(ctx context.Context, u *models.User) error {
	ctx, cancel := bounded(ctx, s.timeout)
	defer cancel()

	created, err := s.repomanager.Users(s.db).Create(ctx, u)
	if err != nil {
		return fmt.Errorf("error creating user: %w", err)
	}

	if created {
		s.logger.Info(ctx, "user created", "user_id", u.ID)
	} else {
		s.logger.Debug(ctx, "user already exists", "user_id", u.ID)
	}

	return nil
}
