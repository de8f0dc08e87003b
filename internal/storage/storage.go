package storage

import "context"

// ObjectStorage captures the minimal operations needed to publish simulation
// reports to an S3-compatible bucket.
type ObjectStorage interface {
	UploadObject(ctx context.Context, key string, data []byte) error
}
