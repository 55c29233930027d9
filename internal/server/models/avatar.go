package models

import "time"

// AvatarMetadata maps an opaque avatar id to the object-storage key of the
// image. UserID records the uploader so orphans can be attributed.
type AvatarMetadata struct {
	ID          string
	UserID      string
	StoragePath string
	ContentType string
	Size        int64
	CreatedAt   time.Time
}
