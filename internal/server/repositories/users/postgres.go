package users

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

const selectUser = `SELECT id, name, surname, nickname, email, phone, address, about, avatar_image_id, registered_at
		 FROM users
		 WHERE id = $1`

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (bool, error) {
	query :=
		`INSERT INTO users (id, name, surname, nickname, email, phone, address, about, registered_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query,
		user.ID, user.Name, user.Surname, user.Nickname, user.Email, user.Phone, user.Address, user.About, user.RegisteredAt)
	if err != nil {
		return false, fmt.Errorf("db error: %w", dbx.Classify(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}

	return n == 1, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.scanOne(ctx, selectUser, id)
}

func (r *PostgresRepository) LockByID(ctx context.Context, id string) (*models.User, error) {
	return r.scanOne(ctx, selectUser+` FOR UPDATE`, id)
}

func (r *PostgresRepository) scanOne(ctx context.Context, query string, id string) (*models.User, error) {
	user := &models.User{}
	var avatar sql.NullString

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Name, &user.Surname, &user.Nickname, &user.Email,
		&user.Phone, &user.Address, &user.About, &avatar, &user.RegisteredAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", dbx.Classify(err))
	}

	if avatar.Valid {
		user.AvatarImageID = &avatar.String
	}

	return user, nil
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	query :=
		`UPDATE users
		 SET name = $2, surname = $3, nickname = $4, email = $5, phone = $6, address = $7, about = $8
		 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query,
		user.ID, user.Name, user.Surname, user.Nickname, user.Email, user.Phone, user.Address, user.About)
	if err != nil {
		return fmt.Errorf("db error: %w", dbx.Classify(err))
	}

	return expectOneRow(res)
}

func (r *PostgresRepository) SetAvatar(ctx context.Context, userID string, avatarID *string) error {
	query := `UPDATE users SET avatar_image_id = $2 WHERE id = $1`

	var value sql.NullString
	if avatarID != nil {
		value = sql.NullString{String: *avatarID, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, query, userID, value)
	if err != nil {
		return fmt.Errorf("db error: %w", dbx.Classify(err))
	}

	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}

	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
