// Package storage persists small client-side values such as the session
// token and the serialized identity.
package storage

import "context"

// KeyValue is a durable string map. SetItems and RemoveItems apply all keys
// together or none of them.
type KeyValue interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	SetItems(ctx context.Context, items map[string]string) error
	RemoveItems(ctx context.Context, keys ...string) error
	Close() error
}
