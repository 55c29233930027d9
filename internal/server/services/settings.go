package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/userservice/internal/common"
	"github.com/dmitrijs2005/userservice/internal/server/models"
	"github.com/dmitrijs2005/userservice/internal/server/repositories/repomanager"
)

// SettingsService reads and writes visibility flags. A user without a
// settings row gets one with every field visible on first access.
type SettingsService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	newID       IDGenerator
	timeout     time.Duration
}

func NewSettingsService(db *sql.DB, m repomanager.RepositoryManager, newID IDGenerator, timeout time.Duration) *SettingsService {
	return &SettingsService{db: db, repomanager: m, newID: newID, timeout: timeout}
}

func (s *SettingsService) GetSettings(ctx context.Context, userID string) (*models.UserSettings, error) {
	ctx, cancel := bounded(ctx, s.timeout)
	defer cancel()

	if _, err := s.repomanager.Users(s.db).GetByID(ctx, userID); err != nil {
		return nil, err
	}

	repo := s.repomanager.Settings(s.db)

	settings, err := repo.GetByUserID(ctx, userID)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	if err := repo.CreateDefault(ctx, s.newID(), userID); err != nil {
		return nil, err
	}

	return repo.GetByUserID(ctx, userID)
}

func (s *SettingsService) UpdateSettings(ctx context.Context, userID string, in models.UserSettings) (*models.UserSettings, error) {
	ctx, cancel := bounded(ctx, s.timeout)
	defer cancel()

	if _, err := s.repomanager.Users(s.db).GetByID(ctx, userID); err != nil {
		return nil, err
	}

	in.ID = s.newID()
	in.UserID = userID

	repo := s.repomanager.Settings(s.db)
	if err := repo.Upsert(ctx, &in); err != nil {
		return nil, err
	}

	return repo.GetByUserID(ctx, userID)
}
