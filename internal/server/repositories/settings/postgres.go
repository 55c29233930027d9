package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/userservice/internal/common"
	"github.com/dmitrijs2005/userservice/internal/dbx"
	"github.com/dmitrijs2005/userservice/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByUserID(ctx context.Context, userID string) (*models.UserSettings, error) {
	query :=
		`SELECT id, user_id, name_visibility, surname_visibility, email_visibility,
		        phone_visibility, address_visibility, avatar_visibility
		 FROM users_settings
		 WHERE user_id = $1`

	s := &models.UserSettings{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&s.ID, &s.UserID, &s.NameVisibility, &s.SurnameVisibility, &s.EmailVisibility,
		&s.PhoneVisibility, &s.AddressVisibility, &s.AvatarVisibility)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", dbx.Classify(err))
	}

	return s, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, s *models.UserSettings) error {
	query :=
		`INSERT INTO users_settings (id, user_id, name_visibility, surname_visibility, email_visibility,
		                             phone_visibility, address_visibility, avatar_visibility)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (user_id) DO UPDATE
		 SET name_visibility = EXCLUDED.name_visibility,
		     surname_visibility = EXCLUDED.surname_visibility,
		     email_visibility = EXCLUDED.email_visibility,
		     phone_visibility = EXCLUDED.phone_visibility,
		     address_visibility = EXCLUDED.address_visibility,
		     avatar_visibility = EXCLUDED.avatar_visibility`

	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.UserID, s.NameVisibility, s.SurnameVisibility, s.EmailVisibility,
		s.PhoneVisibility, s.AddressVisibility, s.AvatarVisibility)
	if err != nil {
		return fmt.Errorf("db error: %w", dbx.Classify(err))
	}

	return nil
}

func (r *PostgresRepository) CreateDefault(ctx context.Context, id, userID string) error {
	query :=
		`INSERT INTO users_settings (id, user_id)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, id, userID); err != nil {
		return fmt.Errorf("db error: %w", dbx.Classify(err))
	}

	return nil
}
