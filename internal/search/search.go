// Package search coordinates query resolution across the play history, the
// persistent cache and the remote catalog.
package search

import (
	"context"
	"sync"
	"time"

	"github.com/arunsworld/nursery"
	"github.com/hashicorp/go-hclog"

	"github.com/chime-music/chime/internal/song"
)

const (
	defaultWorkers       = 4
	defaultRemoteTimeout = 10 * time.Second
	defaultHistoryLimit  = 30
)

// CacheProvider is the persistent resolution layer consulted before the
// remote catalog.
type CacheProvider interface {
	Get(queries []string) (map[string]song.Record, error)
	Save(resolved map[string]song.Record) error
	Recent(limit int) ([]song.Record, error)
}

// Catalog resolves a single free-text query against the remote source.
type Catalog interface {
	Lookup(ctx context.Context, query string) (song.Record, error)
}

// Config tunes the coordinator. Zero values select defaults.
type Config struct {
	Workers       int
	RemoteTimeout time.Duration
	Logger        hclog.Logger
}

// Options apply to a single Search call.
type Options struct {
	IncludeHistory bool
	HistoryLimit   int
}

// Result is a resolved playback sequence. StartIndex points at the first
// record resolved from the queries; everything before it is history prefix.
type Result struct {
	Songs      []song.Record
	StartIndex int
}

// Coordinator resolves query batches. It is stateless between calls and safe
// for concurrent use.
type Coordinator struct {
	cache   CacheProvider
	remote  Catalog
	workers int
	timeout time.Duration
	log     hclog.Logger
}

// New creates a Coordinator over the given cache and catalog.
func New(cache CacheProvider, remote Catalog, cfg Config) *Coordinator {
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	timeout := cfg.RemoteTimeout
	if timeout <= 0 {
		timeout = defaultRemoteTimeout
	}
	log := cfg.Logger
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Coordinator{
		cache:   cache,
		remote:  remote,
		workers: workers,
		timeout: timeout,
		log:     log,
	}
}

// Search resolves the queries into a playback sequence. The result keeps the
// original query order, with an optional history prefix in front. Queries
// that resolve nowhere are dropped rather than failing the batch.
func (c *Coordinator) Search(ctx context.Context, queries []string, opts Options) (Result, error) {
	history := c.historyPrefix(opts)

	hits, err := c.cache.Get(queries)
	if err != nil {
		// The store being down is not fatal: treat the whole batch as
		// cache misses and let the catalog answer.
		c.log.Warn("cache lookup failed, falling back to remote", "error", err)
		hits = nil
	}

	var misses []string
	seen := make(map[string]struct{}, len(queries))
	for _, q := range queries {
		if _, ok := hits[q]; ok {
			continue
		}
		if _, ok := seen[q]; ok {
			continue
		}
		seen[q] = struct{}{}
		misses = append(misses, q)
	}

	resolved := c.resolveRemote(ctx, misses)
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}

	if len(resolved) > 0 {
		if err := c.cache.Save(resolved); err != nil {
			c.log.Warn("persisting resolved songs failed", "error", err)
		}
	}

	songs := make([]song.Record, 0, len(history)+len(queries))
	songs = append(songs, history...)
	for _, q := range queries {
		if rec, ok := hits[q]; ok {
			songs = append(songs, rec)
			continue
		}
		if rec, ok := resolved[q]; ok {
			songs = append(songs, rec)
		}
	}

	return Result{Songs: songs, StartIndex: len(history)}, nil
}

func (c *Coordinator) historyPrefix(opts Options) []song.Record {
	if !opts.IncludeHistory {
		return nil
	}
	limit := opts.HistoryLimit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	history, err := c.cache.Recent(limit)
	if err != nil {
		c.log.Warn("loading play history failed", "error", err)
		return nil
	}
	return history
}

// resolveRemote looks up the missed queries against the catalog with a
// bounded worker pool. Individual failures are logged and dropped.
func (c *Coordinator) resolveRemote(ctx context.Context, misses []string) map[string]song.Record {
	resolved := make(map[string]song.Record, len(misses))
	if len(misses) == 0 {
		return resolved
	}

	var mu sync.Mutex
	pending := make(chan string)

	feed := func(ctx context.Context, _ chan error) {
		defer close(pending)
		for _, q := range misses {
			select {
			case pending <- q:
			case <-ctx.Done():
				return
			}
		}
	}
	work := func(ctx context.Context, _ chan error) {
		for q := range pending {
			lookupCtx, cancel := context.WithTimeout(ctx, c.timeout)
			rec, err := c.remote.Lookup(lookupCtx, q)
			cancel()
			if err != nil {
				c.log.Warn("remote lookup failed", "query", q, "error", err)
				continue
			}
			if !rec.Valid() {
				c.log.Warn("remote lookup returned unusable record", "query", q)
				continue
			}
			mu.Lock()
			resolved[q] = rec
			mu.Unlock()
		}
	}

	_ = nursery.RunConcurrentlyWithContext(ctx,
		feed,
		func(ctx context.Context, _ chan error) {
			_ = nursery.RunMultipleCopiesConcurrentlyWithContext(ctx, c.workers, work)
		},
	)

	return resolved
}
