package services

import (
	"context"
	"time"
)

// ObjectStore is the contract with content-handle storage. The engine only
// needs put, remove and a time-boxed retrieval capability; how bytes are
// streamed is the storage layer's business.
type ObjectStore interface {
	Put(ctx context.Context, objectName string, data []byte, contentType string) error
	Remove(ctx context.Context, objectName string) error
	PresignedGet(ctx context.Context, objectName string, expiry time.Duration) (string, error)
}
