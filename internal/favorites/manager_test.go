package favorites

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipefinder/internal/cache"
	"recipefinder/internal/kvstore"
)

const testKey = "favorite-recipes-storage"

type recordingStore struct {
	mu     sync.Mutex
	values map[string]string
	writes []string
}

func newRecordingStore(initial map[string]string) *recordingStore {
	values := map[string]string{}
	for k, v := range initial {
		values[k] = v
	}
	return &recordingStore{values: values}
}

func (s *recordingStore) Read(_ context.Context, key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *recordingStore) Write(ctx context.Context, key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	s.writes = append(s.writes, value)
}

func (s *recordingStore) stored(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key]
}

func TestNewStartsEmptyWithoutStoredValue(t *testing.T) {
	t.Parallel()
	m := New(context.Background(), newRecordingStore(nil), testKey)
	assert.Empty(t, m.All())
	assert.Equal(t, 0, m.Count())
}

func TestRehydrateCollapsesDuplicates(t *testing.T) {
	t.Parallel()
	m := New(context.Background(), newRecordingStore(map[string]string{testKey: `["a","b","a"]`}), testKey)
	assert.Equal(t, []string{"a", "b"}, m.All())
}

func TestRehydrateMalformedIsEmpty(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{`{broken`, `[1,2,3]`, `"a"`} {
		m := New(context.Background(), newRecordingStore(map[string]string{testKey: raw}), testKey)
		assert.Empty(t, m.All(), "raw %q", raw)
	}
}

func TestToggleAddsThenRemoves(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newRecordingStore(nil)
	m := New(ctx, s, testKey)

	assert.True(t, m.Toggle(ctx, "52772"))
	assert.True(t, m.IsFavorite("52772"))
	assert.Equal(t, `["52772"]`, s.stored(testKey))

	assert.False(t, m.Toggle(ctx, "52772"))
	assert.False(t, m.IsFavorite("52772"))
	assert.Equal(t, `[]`, s.stored(testKey))
}

func TestToggleParity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	for n := 1; n <= 6; n++ {
		m := New(ctx, newRecordingStore(nil), testKey)
		for range n {
			m.Toggle(ctx, "x")
		}
		assert.Equal(t, n%2 == 1, m.IsFavorite("x"), "after %d toggles", n)
	}
}

func TestTogglePreservesInsertionOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := New(ctx, newRecordingStore(nil), testKey)
	for _, id := range []string{"c", "a", "b"} {
		m.Toggle(ctx, id)
	}
	m.Toggle(ctx, "a")
	m.Toggle(ctx, "a")
	assert.Equal(t, []string{"c", "b", "a"}, m.All())
}

func TestToggleBlankIsNoop(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newRecordingStore(nil)
	m := New(ctx, s, testKey)

	assert.False(t, m.Toggle(ctx, ""))
	assert.False(t, m.Toggle(ctx, "   "))
	assert.Empty(t, m.All())
	assert.Empty(t, s.writes)
}

func TestAllReturnsCopy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := New(ctx, newRecordingStore(nil), testKey)
	m.Toggle(ctx, "a")

	ids := m.All()
	ids[0] = "mutated"
	assert.Equal(t, []string{"a"}, m.All())
}

func TestPersistedStateSurvivesRestart(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := kvstore.New(cache.NewFileCache(t.TempDir()))

	first := New(ctx, store, testKey)
	first.Toggle(ctx, "52772")
	first.Toggle(ctx, "52959")
	first.Toggle(ctx, "52893")
	first.Toggle(ctx, "52959")

	second := New(ctx, store, testKey)
	assert.Equal(t, first.All(), second.All())
	assert.Equal(t, []string{"52772", "52893"}, second.All())
}

func TestUnavailableStoreKeepsMemoryState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := New(ctx, kvstore.New(nil), testKey)

	assert.True(t, m.Toggle(ctx, "a"))
	assert.Equal(t, []string{"a"}, m.All())
}

func TestToggleSurvivesCancelledContext(t *testing.T) {
	t.Parallel()
	s := newRecordingStore(nil)
	m := New(context.Background(), s, testKey)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m.Toggle(ctx, "a")
	assert.Equal(t, `["a"]`, s.stored(testKey))
}

func TestSubscribersReceiveSnapshots(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := New(ctx, newRecordingStore(nil), testKey)

	var got []Snapshot
	unsubscribe := m.Subscribe(func(s Snapshot) { got = append(got, s) })

	m.Toggle(ctx, "a")
	m.Toggle(ctx, "b")
	m.Toggle(ctx, "a")
	unsubscribe()
	unsubscribe()
	m.Toggle(ctx, "c")

	require.Len(t, got, 3)
	assert.Equal(t, Snapshot{IDs: []string{"a"}, Changed: "a", Favorite: true, Version: 1}, got[0])
	assert.Equal(t, Snapshot{IDs: []string{"a", "b"}, Changed: "b", Favorite: true, Version: 2}, got[1])
	assert.Equal(t, Snapshot{IDs: []string{"b"}, Changed: "a", Favorite: false, Version: 3}, got[2])
}

func TestSubscribersRunInRegistrationOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := New(ctx, newRecordingStore(nil), testKey)

	var order []string
	m.Subscribe(func(Snapshot) { order = append(order, "first") })
	m.Subscribe(func(Snapshot) { order = append(order, "second") })
	m.Toggle(ctx, "a")

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestSubscriberSeesPersistedState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newRecordingStore(nil)
	m := New(ctx, s, testKey)

	var persisted string
	m.Subscribe(func(Snapshot) { persisted = s.stored(testKey) })
	m.Toggle(ctx, "a")
	assert.Equal(t, `["a"]`, persisted)
}

func TestClear(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newRecordingStore(nil)
	m := New(ctx, s, testKey)
	m.Toggle(ctx, "a")
	m.Toggle(ctx, "b")

	var last Snapshot
	m.Subscribe(func(snap Snapshot) { last = snap })
	assert.Equal(t, 2, m.Clear(ctx))

	assert.Empty(t, m.All())
	assert.Equal(t, `[]`, s.stored(testKey))
	assert.Equal(t, 0, last.Count())
	assert.Equal(t, uint64(3), last.Version)
}

func TestConcurrentTogglesConverge(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newRecordingStore(nil)
	m := New(ctx, s, testKey)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Toggle(ctx, fmt.Sprintf("id-%d", i))
			_ = m.All()
			_ = m.IsFavorite("id-0")
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, m.Count())
	ids, err := decodeIDs(s.stored(testKey))
	require.NoError(t, err)
	assert.ElementsMatch(t, m.All(), ids)
	assert.Len(t, s.writes, 50)
}
