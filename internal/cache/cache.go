package cache

import (
	"context"
	"time"
)

// Cache is a read-through JSON cache. Every key carries a version that
// Invalidate bumps; a fill computed under an older version is dropped, so a
// reader that loaded before a write cannot put the stale value back.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	// Version returns the key's current version. Read it before loading
	// the value that will be passed to SetJSONAt.
	Version(ctx context.Context, key string) (int64, error)
	// SetJSONAt stores val only while the key is still at version.
	SetJSONAt(ctx context.Context, key string, version int64, val any, ttl time.Duration) (stored bool, err error)
	// Invalidate drops the values and bumps their versions.
	Invalidate(ctx context.Context, keys ...string) error
}

// PostingKey is the cache key for a single posting document.
func PostingKey(postingID string) string { return "posting:" + postingID }

func versionKey(key string) string { return key + ":v" }

// Noop never hits. Used when no cache backend is configured.
type Noop struct{}

func (Noop) GetJSON(context.Context, string, any) (bool, error) { return false, nil }
func (Noop) Version(context.Context, string) (int64, error)     { return 0, nil }
func (Noop) Invalidate(context.Context, ...string) error        { return nil }
func (Noop) SetJSONAt(context.Context, string, int64, any, time.Duration) (bool, error) {
	return false, nil
}
