// Package favorites owns the set of favorite recipe ids: the single in-process copy, its
// write-through persistence, and the HTTP surface that toggles and displays it.
package favorites

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"recipefinder/internal/telemetry"
)

type store interface {
	Read(ctx context.Context, key string) (string, bool)
	Write(ctx context.Context, key, value string)
}

// Snapshot is an immutable view of the set handed to subscribers. Changed is the id the
// triggering toggle touched, empty for a clear.
type Snapshot struct {
	IDs      []string `json:"ids"`
	Changed  string   `json:"changed,omitempty"`
	Favorite bool     `json:"favorite"`
	Version  uint64   `json:"version"`
}

func (s Snapshot) Count() int { return len(s.IDs) }

type subscriber struct {
	id uint64
	fn func(Snapshot)
}

// Manager is the one owner of the favorites set. Build it once at startup and share it.
type Manager struct {
	store store
	key   string

	// writeMu serialises mutations so persistence and notification happen in toggle order.
	writeMu sync.Mutex

	mu      sync.RWMutex
	ids     []string // replaced wholesale on change, never mutated in place
	version uint64

	subMu   sync.Mutex
	subs    []subscriber
	nextSub uint64
}

// New seeds the manager from the stored value under key. A missing or unreadable value
// starts an empty set.
func New(ctx context.Context, s store, key string) *Manager {
	m := &Manager{store: s, key: key}
	m.ids = m.rehydrate(ctx)
	telemetry.Favorites.Set(float64(len(m.ids)))
	return m
}

func (m *Manager) rehydrate(ctx context.Context) []string {
	raw, ok := m.store.Read(ctx, m.key)
	if !ok {
		slog.InfoContext(ctx, "no stored favorites, starting empty", "key", m.key)
		return nil
	}
	ids, err := decodeIDs(raw)
	if err != nil {
		slog.WarnContext(ctx, "stored favorites unreadable, starting empty", "key", m.key, "error", err)
		return nil
	}
	slog.InfoContext(ctx, "loaded favorites", "key", m.key, "count", len(ids))
	return ids
}

func (m *Manager) IsFavorite(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Contains(m.ids, id)
}

// All returns the ids in the order they were favorited. The caller owns the copy.
func (m *Manager) All() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.ids)
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ids)
}

// Snapshot returns the current set and its version.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{IDs: slices.Clone(m.ids), Version: m.version}
}

// Toggle removes id if present and appends it otherwise, returning the new membership.
// The full set is written to the store before Toggle returns. A blank id changes nothing.
func (m *Manager) Toggle(ctx context.Context, id string) bool {
	if strings.TrimSpace(id) == "" {
		slog.WarnContext(ctx, "ignoring toggle of blank favorite id")
		return false
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.Lock()
	var favorite bool
	next := slices.DeleteFunc(slices.Clone(m.ids), func(existing string) bool { return existing == id })
	if len(next) == len(m.ids) {
		next = append(next, id)
		favorite = true
	}
	m.ids = next
	m.version++
	snap := Snapshot{IDs: slices.Clone(next), Changed: id, Favorite: favorite, Version: m.version}
	m.mu.Unlock()

	state := "removed"
	if favorite {
		state = "added"
	}
	telemetry.FavoriteToggles.WithLabelValues(state).Inc()
	slog.InfoContext(ctx, "favorite toggled", "id", id, "state", state, "count", len(snap.IDs))

	m.persist(ctx, snap.IDs)
	m.notify(snap)
	return favorite
}

// Clear empties the set and returns how many ids it held.
func (m *Manager) Clear(ctx context.Context) int {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.Lock()
	removed := len(m.ids)
	m.ids = nil
	m.version++
	snap := Snapshot{IDs: []string{}, Version: m.version}
	m.mu.Unlock()

	slog.InfoContext(ctx, "favorites cleared", "removed", removed)
	m.persist(ctx, nil)
	m.notify(snap)
	return removed
}

func (m *Manager) persist(ctx context.Context, ids []string) {
	telemetry.Favorites.Set(float64(len(ids)))
	// the write must land even if the request that triggered it has gone away
	m.store.Write(context.WithoutCancel(ctx), m.key, encodeIDs(ids))
}

// Subscribe registers fn to receive a snapshot after every change. Subscribers run in
// registration order on the toggling goroutine and must not toggle themselves.
func (m *Manager) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	m.nextSub++
	id := m.nextSub
	m.subs = append(m.subs, subscriber{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			m.subMu.Lock()
			defer m.subMu.Unlock()
			m.subs = slices.DeleteFunc(m.subs, func(s subscriber) bool { return s.id == id })
		})
	}
}

func (m *Manager) notify(snap Snapshot) {
	m.subMu.Lock()
	subs := slices.Clone(m.subs)
	m.subMu.Unlock()

	for _, s := range subs {
		s.fn(Snapshot{
			IDs:      slices.Clone(snap.IDs),
			Changed:  snap.Changed,
			Favorite: snap.Favorite,
			Version:  snap.Version,
		})
	}
}
