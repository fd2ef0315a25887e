package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chime-music/chime/internal/song"
)

type fakeCache struct {
	mu      sync.Mutex
	hits    map[string]song.Record
	history []song.Record
	getErr  error
	saveErr error

	saved []map[string]song.Record
}

func (f *fakeCache) Get(queries []string) (map[string]song.Record, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	out := make(map[string]song.Record)
	for _, q := range queries {
		if rec, ok := f.hits[q]; ok {
			out[q] = rec
		}
	}
	return out, nil
}

func (f *fakeCache) Save(resolved map[string]song.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, resolved)
	return f.saveErr
}

func (f *fakeCache) Recent(limit int) ([]song.Record, error) {
	if limit < len(f.history) {
		return f.history[:limit], nil
	}
	return f.history, nil
}

type fakeCatalog struct {
	mu      sync.Mutex
	records map[string]song.Record
	calls   []string
}

func (f *fakeCatalog) Lookup(ctx context.Context, query string) (song.Record, error) {
	if err := ctx.Err(); err != nil {
		return song.Record{}, err
	}
	f.mu.Lock()
	f.calls = append(f.calls, query)
	f.mu.Unlock()
	rec, ok := f.records[query]
	if !ok {
		return song.Record{}, errors.New("no catalog result")
	}
	return rec, nil
}

func rec(title, url string, origin song.Origin) song.Record {
	return song.Record{Title: title, URL: url, Origin: origin}
}

func TestSearch_PreservesQueryOrder(t *testing.T) {
	// "a" is cached, "b" goes remote; the result must still be [b a].
	cache := &fakeCache{hits: map[string]song.Record{
		"a": rec("Cached A", "https://example.com/a", song.OriginCache),
	}}
	catalog := &fakeCatalog{records: map[string]song.Record{
		"b": rec("Remote B", "https://example.com/b", song.OriginRemote),
	}}

	c := New(cache, catalog, Config{})
	res, err := c.Search(context.Background(), []string{"b", "a"}, Options{})
	require.NoError(t, err)

	require.Len(t, res.Songs, 2)
	assert.Equal(t, "Remote B", res.Songs[0].Title)
	assert.Equal(t, "Cached A", res.Songs[1].Title)
	assert.Equal(t, 0, res.StartIndex)
}

func TestSearch_HistoryPrefixAndStartIndex(t *testing.T) {
	cache := &fakeCache{
		hits: map[string]song.Record{
			"a": rec("Cached A", "https://example.com/a", song.OriginCache),
		},
		history: []song.Record{
			rec("Old 1", "https://example.com/h1", song.OriginHistory),
			rec("Old 2", "https://example.com/h2", song.OriginHistory),
		},
	}

	c := New(cache, &fakeCatalog{}, Config{})
	res, err := c.Search(context.Background(), []string{"a"},
		Options{IncludeHistory: true, HistoryLimit: 5})
	require.NoError(t, err)

	require.Len(t, res.Songs, 3)
	assert.Equal(t, 2, res.StartIndex)
	assert.Equal(t, "Old 1", res.Songs[0].Title)
	assert.Equal(t, "Cached A", res.Songs[2].Title)
}

func TestSearch_DefaultHistoryLimit(t *testing.T) {
	// An unset HistoryLimit queues up to 30 recently played songs.
	history := make([]song.Record, 40)
	for i := range history {
		history[i] = rec(fmt.Sprintf("Old %d", i), fmt.Sprintf("https://example.com/h%d", i), song.OriginHistory)
	}
	cache := &fakeCache{
		hits: map[string]song.Record{
			"a": rec("Cached A", "https://example.com/a", song.OriginCache),
		},
		history: history,
	}

	c := New(cache, &fakeCatalog{}, Config{})
	res, err := c.Search(context.Background(), []string{"a"}, Options{IncludeHistory: true})
	require.NoError(t, err)

	assert.Equal(t, 30, res.StartIndex)
	assert.Len(t, res.Songs, 31)
}

func TestSearch_PartialRemoteFailure(t *testing.T) {
	// One miss resolves, the other does not exist anywhere; the batch still
	// succeeds with the resolvable part.
	catalog := &fakeCatalog{records: map[string]song.Record{
		"good": rec("Good", "https://example.com/good", song.OriginRemote),
	}}

	c := New(&fakeCache{}, catalog, Config{})
	res, err := c.Search(context.Background(), []string{"good", "hopeless"}, Options{})
	require.NoError(t, err)

	require.Len(t, res.Songs, 1)
	assert.Equal(t, "Good", res.Songs[0].Title)
}

func TestSearch_StoreFailureDegradesToRemote(t *testing.T) {
	cache := &fakeCache{getErr: errors.New("store unavailable")}
	catalog := &fakeCatalog{records: map[string]song.Record{
		"a": rec("Remote A", "https://example.com/a", song.OriginRemote),
	}}

	c := New(cache, catalog, Config{})
	res, err := c.Search(context.Background(), []string{"a"}, Options{})
	require.NoError(t, err)

	require.Len(t, res.Songs, 1)
	assert.Equal(t, "Remote A", res.Songs[0].Title)
}

func TestSearch_SavesOnlyResolvedMisses(t *testing.T) {
	cache := &fakeCache{hits: map[string]song.Record{
		"a": rec("Cached A", "https://example.com/a", song.OriginCache),
	}}
	catalog := &fakeCatalog{records: map[string]song.Record{
		"b": rec("Remote B", "https://example.com/b", song.OriginRemote),
	}}

	c := New(cache, catalog, Config{})
	_, err := c.Search(context.Background(), []string{"a", "b"}, Options{})
	require.NoError(t, err)

	require.Len(t, cache.saved, 1)
	saved := cache.saved[0]
	assert.Len(t, saved, 1)
	assert.Equal(t, "Remote B", saved["b"].Title)
}

func TestSearch_SaveFailureDoesNotFailCall(t *testing.T) {
	cache := &fakeCache{saveErr: errors.New("disk full")}
	catalog := &fakeCatalog{records: map[string]song.Record{
		"b": rec("Remote B", "https://example.com/b", song.OriginRemote),
	}}

	c := New(cache, catalog, Config{})
	res, err := c.Search(context.Background(), []string{"b"}, Options{})
	require.NoError(t, err)
	assert.Len(t, res.Songs, 1)
}

func TestSearch_DuplicateMissesLookedUpOnce(t *testing.T) {
	catalog := &fakeCatalog{records: map[string]song.Record{
		"b": rec("Remote B", "https://example.com/b", song.OriginRemote),
	}}

	c := New(&fakeCache{}, catalog, Config{Workers: 1})
	res, err := c.Search(context.Background(), []string{"b", "b"}, Options{})
	require.NoError(t, err)

	assert.Len(t, catalog.calls, 1)
	assert.Len(t, res.Songs, 2)
}

func TestSearch_CancelledContext(t *testing.T) {
	catalog := &fakeCatalog{records: map[string]song.Record{
		"b": rec("Remote B", "https://example.com/b", song.OriginRemote),
	}}
	cache := &fakeCache{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(cache, catalog, Config{})
	_, err := c.Search(ctx, []string{"b"}, Options{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, cache.saved, "a cancelled call must not persist anything")
}
