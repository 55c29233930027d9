package avatars

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

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

func (r *PostgresRepository) Create(ctx context.Context, m *models.AvatarMetadata) error {
	query :=
		`INSERT INTO avatars_metadata (id, user_id, avatar_path, content_type, size, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query, m.ID, m.UserID, m.StoragePath, m.ContentType, m.Size, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", dbx.Classify(err))
	}

	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.AvatarMetadata, error) {
	query :=
		`SELECT id, user_id, avatar_path, content_type, size, created_at
		 FROM avatars_metadata
		 WHERE id = $1`

	m := &models.AvatarMetadata{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&m.ID, &m.UserID, &m.StoragePath, &m.ContentType, &m.Size, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", dbx.Classify(err))
	}

	return m, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM avatars_metadata WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", dbx.Classify(err))
	}

	return nil
}

func (r *PostgresRepository) ExistsByPath(ctx context.Context, path string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM avatars_metadata WHERE avatar_path = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, path).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", dbx.Classify(err))
	}

	return exists, nil
}

func (r *PostgresRepository) ListOrphans(ctx context.Context, olderThan time.Time, limit int) ([]models.AvatarMetadata, error) {
	query :=
		`SELECT m.id, m.user_id, m.avatar_path, m.content_type, m.size, m.created_at
		 FROM avatars_metadata m
		 WHERE m.created_at < $1
		   AND NOT EXISTS (SELECT 1 FROM users u WHERE u.avatar_image_id = m.id)
		 ORDER BY m.created_at
		 LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, olderThan, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	defer rows.Close()

	var result []models.AvatarMetadata
	for rows.Next() {
		var m models.AvatarMetadata
		if err := rows.Scan(&m.ID, &m.UserID, &m.StoragePath, &m.ContentType, &m.Size, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", dbx.Classify(err))
	}

	return result, nil
}
