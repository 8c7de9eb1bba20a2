// Package kvstore adapts a cache backend into the best-effort string store favorites persist through.
// Nothing here returns an error: a broken backend degrades to "absent" on read and a logged no-op on write.
package kvstore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"

	"recipefinder/internal/cache"
	"recipefinder/internal/telemetry"
)

// values larger than this are treated as corrupt
const maxValueBytes = 1 << 20

type Store struct {
	backend cache.Cache
	healthy atomic.Bool
}

// New wraps backend. A nil backend is an unavailable store: reads are absent, writes are dropped.
func New(backend cache.Cache) *Store {
	s := &Store{backend: backend}
	s.healthy.Store(backend != nil)
	return s
}

// Read returns the stored value and true, or "" and false when the key was never written
// or the backend could not be read.
func (s *Store) Read(ctx context.Context, key string) (string, bool) {
	if s.backend == nil {
		return "", false
	}
	rc, err := s.backend.Get(ctx, key)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			s.healthy.Store(true)
			return "", false
		}
		s.fail(ctx, "read", key, err)
		telemetry.StoreReadFailures.Inc()
		return "", false
	}
	defer func() {
		_ = rc.Close()
	}()

	b, err := io.ReadAll(io.LimitReader(rc, maxValueBytes+1))
	if err != nil {
		s.fail(ctx, "read", key, err)
		telemetry.StoreReadFailures.Inc()
		return "", false
	}
	if len(b) > maxValueBytes {
		slog.WarnContext(ctx, "stored value too large, ignoring", "key", key, "limit", maxValueBytes)
		return "", false
	}
	s.healthy.Store(true)
	return string(b), true
}

// Write stores value under key. Failures are logged and counted, the caller keeps going.
func (s *Store) Write(ctx context.Context, key, value string) {
	if s.backend == nil {
		telemetry.StoreWriteFailures.Inc()
		slog.WarnContext(ctx, "no durable store configured, change kept in memory only", "key", key)
		return
	}
	if err := s.backend.Put(ctx, key, value, cache.Unconditional()); err != nil {
		s.fail(ctx, "write", key, err)
		telemetry.StoreWriteFailures.Inc()
		return
	}
	s.healthy.Store(true)
}

// Available reports whether the most recent access reached the backend.
func (s *Store) Available() bool {
	return s.healthy.Load()
}

// Ready probes the backend without touching any stored value.
func (s *Store) Ready(ctx context.Context) error {
	if s.backend == nil {
		return errors.New("no durable store configured")
	}
	if _, err := s.backend.Exists(ctx, readyProbeKey); err != nil {
		s.fail(ctx, "probe", readyProbeKey, err)
		return err
	}
	s.healthy.Store(true)
	return nil
}

const readyProbeKey = "ready-probe"

func (s *Store) fail(ctx context.Context, op, key string, err error) {
	s.healthy.Store(false)
	slog.ErrorContext(ctx, "durable store "+op+" failed", "key", key, "error", err)
}
