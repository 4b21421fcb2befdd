// Package storage holds maintenance attachments in an S3-compatible
// object store and hands out presigned download URLs.
package storage

import (
	"context"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Provider is the object storage surface the attachment endpoints use.
type Provider interface {
	// CheckBucket verifies the bucket exists, creating it if needed.
	CheckBucket(ctx context.Context) error

	// Upload stores an object and returns its key.
	Upload(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error

	// PresignedURL returns a time-limited download URL for the object.
	PresignedURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error)
}

// ObjectKey builds a collision-free key for a maintenance attachment.
func ObjectKey(maintenanceID, filename string) string {
	base := path.Base(filename)
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)

	return "maintenance/" + maintenanceID + "/" + uuid.NewString() + "-" + base
}
