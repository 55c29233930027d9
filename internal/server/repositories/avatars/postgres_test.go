package avatars

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/userservice/internal/common"
	"github.com/dmitrijs2005/userservice/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	qInsert  = `(?s)^INSERT\s+INTO\s+avatars_metadata\s*\(id,\s*user_id,\s*avatar_path,\s*content_type,\s*size,\s*created_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6\)$`
	qSelect  = `(?s)^SELECT\s+id,\s*user_id,\s*avatar_path,.*FROM\s+avatars_metadata\s+WHERE\s+id\s*=\s*\$1$`
	qDelete  = `(?s)^DELETE\s+FROM\s+avatars_metadata\s+WHERE\s+id\s*=\s*\$1$`
	qPath    = `(?s)^SELECT\s+EXISTS\s*\(SELECT\s+1\s+FROM\s+avatars_metadata\s+WHERE\s+avatar_path\s*=\s*\$1\)$`
	qOrphans = `(?s)^SELECT\s+m\.id,.*FROM\s+avatars_metadata\s+m\s+WHERE\s+m\.created_at\s*<\s*\$1\s+AND\s+NOT\s+EXISTS\s*\(SELECT\s+1\s+FROM\s+users\s+u\s+WHERE\s+u\.avatar_image_id\s*=\s*m\.id\)\s+ORDER\s+BY\s+m\.created_at\s+LIMIT\s+\$2$`
)

var cols = []string{"id", "user_id", "avatar_path", "content_type", "size", "created_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

func TestCreate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now().UTC()
	m := &models.AvatarMetadata{ID: "a-1", UserID: "u-1", StoragePath: "avatars/u-1/a-1.png", ContentType: "image/png", Size: 3, CreatedAt: now}

	mock.ExpectExec(qInsert).WithArgs("a-1", "u-1", "avatars/u-1/a-1.png", "image/png", int64(3), now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), m))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(qInsert).WillReturnError(context.DeadlineExceeded)

	err := repo.Create(context.Background(), &models.AvatarMetadata{ID: "a-1"})
	assert.ErrorIs(t, err, common.ErrStorageUnavailable)
}

func TestGetByID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(qSelect).WithArgs("a-1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("a-1", "u-1", "avatars/u-1/a-1.png", "image/png", int64(3), now))

	got, err := repo.GetByID(context.Background(), "a-1")
	require.NoError(t, err)
	assert.Equal(t, "avatars/u-1/a-1.png", got.StoragePath)
	assert.Equal(t, int64(3), got.Size)

	mock.ExpectQuery(qSelect).WithArgs("missing").WillReturnError(sql.ErrNoRows)
	_, err = repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(qDelete).WithArgs("a-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(qDelete).WithArgs("a-1").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), "a-1"))
	require.NoError(t, repo.Delete(context.Background(), "a-1"), "deleting twice is harmless")
}

func TestListOrphans(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	cutoff := time.Now().UTC()
	old := cutoff.Add(-time.Hour)
	mock.ExpectQuery(qOrphans).WithArgs(cutoff, 50).WillReturnRows(
		sqlmock.NewRows(cols).
			AddRow("a-1", "u-1", "avatars/u-1/a-1.png", "image/png", int64(3), old).
			AddRow("a-2", "u-2", "avatars/u-2/a-2.jpg", "image/jpeg", int64(4), old))

	got, err := repo.ListOrphans(context.Background(), cutoff, 50)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a-2", got[1].ID)
}

func TestListOrphans_QueryError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qOrphans).WillReturnError(errors.New("boom"))

	_, err := repo.ListOrphans(context.Background(), time.Now(), 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error")
}

func TestExistsByPath(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qPath).WithArgs("avatars/u-1/a-1.png").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.ExistsByPath(context.Background(), "avatars/u-1/a-1.png")
	require.NoError(t, err)
	assert.True(t, ok)
}
