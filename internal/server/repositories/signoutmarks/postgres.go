package signoutmarks

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/userservice/internal/dbx"
	"github.com/dmitrijs2005/userservice/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, m models.SignOutMark) error {
	query :=
		`INSERT INTO sign_out_marks (id, user_id, signed_out_at, expires_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, m.ID, m.UserID, m.SignedOutAt, m.ExpiresAt); err != nil {
		return fmt.Errorf("db error: %w", dbx.Classify(err))
	}

	return nil
}

func (r *PostgresRepository) ExistsLive(ctx context.Context, userID string, now time.Time) (bool, error) {
	query :=
		`SELECT EXISTS (
		   SELECT 1 FROM sign_out_marks WHERE user_id = $1 AND expires_at > $2
		 )`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID, now).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", dbx.Classify(err))
	}

	return exists, nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM sign_out_marks WHERE expires_at <= $1`

	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", dbx.Classify(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}

	return n, nil
}
