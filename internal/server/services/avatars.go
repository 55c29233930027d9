package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/dmitrijs2005/userservice/internal/common"
	"github.com/dmitrijs2005/userservice/internal/dbx"
	"github.com/dmitrijs2005/userservice/internal/logging"
	"github.com/dmitrijs2005/userservice/internal/server/models"
	"github.com/dmitrijs2005/userservice/internal/server/objectstore"
	"github.com/dmitrijs2005/userservice/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AvatarPrefix is the object-store namespace of avatar images.
const AvatarPrefix = "avatars/"

var avatarContentTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
}

// Avatar is a readable avatar image. The caller must close Body.
type Avatar struct {
	ID          string
	ContentType string
	Size        int64
	Body        io.ReadCloser
}

// AvatarService keeps avatar objects and their metadata rows consistent with
// the users' avatar pointers: a non-nil pointer always resolves to a live
// object. Objects are written before the pointer moves and deleted only
// after it has moved away.
type AvatarService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	objects     objectstore.Store
	logger      logging.Logger
	timeout     time.Duration
	maxSize     int64
	now         func() time.Time
}

func NewAvatarService(db *sql.DB, m repomanager.RepositoryManager, objects objectstore.Store, l logging.Logger, timeout time.Duration, maxSize int64) *AvatarService {
	return &AvatarService{
		db:          db,
		repomanager: m,
		objects:     objects,
		logger:      l.With("module", "avatar_service"),
		timeout:     timeout,
		maxSize:     maxSize,
		now:         time.Now,
	}
}

// StoragePath is the object key of avatar id uploaded by userID.
func StoragePath(userID, id, ext string) string {
	return AvatarPrefix + userID + "/" + id + "." + ext
}

// avatarFormat returns the normalized extension and content type of filename.
func avatarFormat(filename string) (string, string, error) {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	ct, ok := avatarContentTypes[ext]
	if !ok {
		return "", "", fmt.Errorf("%w: %w", common.ErrInvalidFormat,
			common.NewValidationError("avatar", "only png, jpg and jpeg files are accepted"))
	}
	return ext, ct, nil
}

// Get streams the avatar with the given id.
func (s *AvatarService) Get(ctx context.Context, avatarID string) (_ *Avatar, err error) {
	ctx, span := tracer.Start(ctx, "AvatarService.Get", trace.WithAttributes(attribute.String("avatar.id", avatarID)))
	defer func() { endSpan(span, err) }()

	return s.open(ctx, avatarID)
}

// GetForUser streams the current avatar of ownerID as seen by viewerID.
// Third parties get common.ErrNotFound when the owner hid the avatar.
func (s *AvatarService) GetForUser(ctx context.Context, viewerID, ownerID string) (_ *Avatar, err error) {
	ctx, span := tracer.Start(ctx, "AvatarService.GetForUser", trace.WithAttributes(attribute.String("user.id", ownerID)))
	defer func() { endSpan(span, err) }()

	lookupCtx, cancel := bounded(ctx, s.timeout)
	defer cancel()

	u, err := s.repomanager.Users(s.db).GetByID(lookupCtx, ownerID)
	if err != nil {
		return nil, err
	}
	if u.AvatarImageID == nil {
		return nil, common.ErrNotFound
	}

	if viewerID != ownerID {
		settings, err := s.repomanager.Settings(s.db).GetByUserID(lookupCtx, ownerID)
		switch {
		case err == nil && !settings.AvatarVisibility:
			return nil, common.ErrNotFound
		case err != nil && !errors.Is(err, common.ErrNotFound):
			return nil, err
		}
	}

	return s.open(ctx, *u.AvatarImageID)
}

func (s *AvatarService) open(ctx context.Context, avatarID string) (*Avatar, error) {
	// The deadline must cover reading the body, so it is released on Close.
	ctx, cancel := bounded(ctx, s.timeout)

	meta, err := s.repomanager.Avatars(s.db).GetByID(ctx, avatarID)
	if err != nil {
		cancel()
		return nil, err
	}

	body, err := s.objects.Get(ctx, meta.StoragePath)
	if err != nil {
		cancel()
		return nil, err
	}

	return &Avatar{
		ID:          meta.ID,
		ContentType: meta.ContentType,
		Size:        meta.Size,
		Body:        &cancelOnClose{ReadCloser: body, cancel: cancel},
	}, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	defer c.cancel()
	return c.ReadCloser.Close()
}

// Replace stores data as the new avatar of userID and returns its id.
func (s *AvatarService) Replace(ctx context.Context, userID string, data []byte, filename string) (_ string, err error) {
	ctx, span := tracer.Start(ctx, "AvatarService.Replace", trace.WithAttributes(
		attribute.String("user.id", userID),
		attribute.Int("avatar.size", len(data)),
	))
	defer func() { endSpan(span, err) }()

	ext, contentType, err := avatarFormat(filename)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", common.NewValidationError("avatar", "empty file")
	}
	if s.maxSize > 0 && int64(len(data)) > s.maxSize {
		return "", common.NewValidationError("avatar", fmt.Sprintf("larger than %d bytes", s.maxSize))
	}

	ctx, cancel := bounded(ctx, s.timeout)
	defer cancel()

	if _, err := s.repomanager.Users(s.db).GetByID(ctx, userID); err != nil {
		return "", err
	}

	id := uuid.NewString()
	key := StoragePath(userID, id, ext)

	if err := s.objects.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return "", fmt.Errorf("store avatar object: %w", err)
	}

	meta := &models.AvatarMetadata{
		ID:          id,
		UserID:      userID,
		StoragePath: key,
		ContentType: contentType,
		Size:        int64(len(data)),
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repomanager.Avatars(s.db).Create(ctx, meta); err != nil {
		if derr := s.objects.Delete(context.WithoutCancel(ctx), key); derr != nil {
			s.logger.Warn(ctx, "unindexed avatar object left for reconciliation", "key", key, "error", derr)
		}
		return "", fmt.Errorf("store avatar metadata: %w", err)
	}

	previous, err := s.switchPointer(ctx, userID, &id)
	if err != nil {
		// The new object and row stay behind unreferenced; the reconciler
		// removes them once they are older than the grace period.
		return "", fmt.Errorf("switch avatar pointer: %w", err)
	}

	if previous != nil && *previous != id {
		s.discard(ctx, *previous)
	}

	s.logger.Info(ctx, "avatar replaced", "user_id", userID, "avatar_id", id)
	return id, nil
}

// DeleteForUser clears the avatar of userID and then removes its object.
func (s *AvatarService) DeleteForUser(ctx context.Context, userID string) (err error) {
	ctx, span := tracer.Start(ctx, "AvatarService.DeleteForUser", trace.WithAttributes(attribute.String("user.id", userID)))
	defer func() { endSpan(span, err) }()

	ctx, cancel := bounded(ctx, s.timeout)
	defer cancel()

	previous, err := s.switchPointer(ctx, userID, nil)
	if err != nil {
		return err
	}

	if previous != nil {
		s.discard(ctx, *previous)
	}
	return nil
}

// switchPointer sets the avatar of userID to next under a row lock and
// returns the id it replaced.
func (s *AvatarService) switchPointer(ctx context.Context, userID string, next *string) (*string, error) {
	var previous *string

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		u, err := repo.LockByID(ctx, userID)
		if err != nil {
			return err
		}
		previous = u.AvatarImageID

		return repo.SetAvatar(ctx, userID, next)
	})
	if err != nil {
		return nil, err
	}

	return previous, nil
}

// discard removes an avatar nobody points at any more: object first, then
// the row. Failures are logged; the reconciler retries leftovers.
func (s *AvatarService) discard(ctx context.Context, avatarID string) {
	if err := removeAvatar(ctx, s.repomanager, s.db, s.objects, avatarID); err != nil {
		s.logger.Warn(ctx, "old avatar not removed", "avatar_id", avatarID, "error", err)
	}
}

func removeAvatar(ctx context.Context, rm repomanager.RepositoryManager, db *sql.DB, objects objectstore.Store, avatarID string) error {
	repo := rm.Avatars(db)

	meta, err := repo.GetByID(ctx, avatarID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		return err
	}

	if err := objects.Delete(ctx, meta.StoragePath); err != nil {
		return fmt.Errorf("delete object %s: %w", meta.StoragePath, err)
	}

	return repo.Delete(ctx, avatarID)
}
