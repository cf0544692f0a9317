// Package objectstore stores uploaded file content in S3-compatible object storage.
package objectstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_store.go -package=mocks lessonarchiver/internal/objectstore Store

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when an object does not exist.
var ErrNotFound = errors.New("object not found")

// Metadata keys written with every upload.
const (
	MetaOriginalName = "originalName"
	MetaOwner        = "owner"
)

// Upload describes one object to write.
type Upload struct {
	Key         string
	ContentType string
	Body        io.ReadSeeker
	Size        int64
	// SHA1 is the raw digest of Body, verified by the store on write.
	SHA1     []byte
	Metadata map[string]string
}

// Object is a stored upload.
type Object struct {
	RemoteID string
	SHA1     string
	Size     int64
}

// ObjectInfo describes a stored object without reading it.
type ObjectInfo struct {
	ContentType string
	Size        int64
	Metadata    map[string]string
}

// Store defines the interface for object storage operations.
type Store interface {
	// Upload writes the object and returns where it was stored.
	Upload(ctx context.Context, upload Upload) (Object, error)

	// Info returns the object's metadata, or ErrNotFound.
	Info(ctx context.Context, remoteID string) (ObjectInfo, error)

	// Download opens the object's content. The caller closes the reader.
	Download(ctx context.Context, remoteID string) (io.ReadCloser, error)

	// Ping checks the bucket is reachable.
	Ping(ctx context.Context) error
}
