package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/chime-music/chime/internal/cache"
	"github.com/chime-music/chime/internal/catalog"
	"github.com/chime-music/chime/internal/config"
	"github.com/chime-music/chime/internal/downloads"
	"github.com/chime-music/chime/internal/errmsg"
	"github.com/chime-music/chime/internal/player"
	"github.com/chime-music/chime/internal/search"
	"github.com/chime-music/chime/internal/state"
)

func main() {
	var (
		noHistory    = flag.Bool("no-history", false, "do not queue recently played songs ahead of the results")
		historyLimit = flag.Int("history-limit", 0, "max recently played songs to queue (0 = config default)")
		noPlay       = flag.Bool("no-play", false, "resolve and print the queue without starting playback")
		verbose      = flag.Bool("verbose", false, "enable debug logging")
	)
	flag.Parse()

	queries := flag.Args()
	if len(queries) == 0 {
		fmt.Fprintln(os.Stderr, "usage: chime [flags] <song query> [<song query>...]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if err := run(queries, *noHistory, *historyLimit, *noPlay, *verbose); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(queries []string, noHistory bool, historyLimit int, noPlay, verbose bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	level := hclog.Warn
	if verbose {
		level = hclog.Debug
	}
	log := hclog.New(&hclog.LoggerOptions{
		Name:   "chime",
		Level:  level,
		Output: os.Stderr,
	})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("%s", errmsg.Format(errmsg.OpConfigLoad, err))
	}
	searchCfg := cfg.GetSearchConfig()

	stateMgr, err := state.Open()
	if err != nil {
		return fmt.Errorf("%s", errmsg.Format(errmsg.OpInitialize, err))
	}
	defer stateMgr.Close()

	local := downloads.New(stateMgr.DB(), log.Named("downloads"))
	if len(cfg.DownloadDirs) > 0 {
		if err := local.Sync(cfg.DownloadDirs); err != nil {
			// A broken downloads folder should not block searching.
			log.Warn(errmsg.Format(errmsg.OpDownloadsScan, err))
		}
	}

	provider, err := cache.NewProvider(stateMgr.DB(), local, searchCfg.Threshold, nil)
	if err != nil {
		return fmt.Errorf("%s", errmsg.Format(errmsg.OpInitialize, err))
	}

	coordinator := search.New(provider, catalog.New(cfg.CatalogURL), search.Config{
		Workers:       searchCfg.Workers,
		RemoteTimeout: time.Duration(searchCfg.RemoteTimeoutSec) * time.Second,
		Logger:        log.Named("search"),
	})

	limit := historyLimit
	if limit <= 0 {
		limit = searchCfg.HistoryLimit
	}
	result, err := coordinator.Search(ctx, queries, search.Options{
		IncludeHistory: !noHistory,
		HistoryLimit:   limit,
	})
	if err != nil {
		return fmt.Errorf("%s", errmsg.Format(errmsg.OpSearchBatch, err))
	}
	if len(result.Songs) == 0 {
		return fmt.Errorf("no songs found for %q", queries)
	}

	printQueue(result)

	if noPlay {
		return nil
	}

	// Record the freshly resolved part of the queue, not the history prefix.
	for _, s := range result.Songs[result.StartIndex:] {
		if err := provider.RecordPlay(s); err != nil {
			log.Warn(errmsg.Format(errmsg.OpHistoryRecord, err))
			break
		}
	}

	p := player.New(cfg.PlayerCommand())
	if err := p.Play(ctx, result.Songs, result.StartIndex); err != nil {
		return fmt.Errorf("%s", errmsg.Format(errmsg.OpPlaybackStart, err))
	}
	return nil
}

func printQueue(result search.Result) {
	for i, s := range result.Songs {
		marker := " "
		if i == result.StartIndex {
			marker = ">"
		}
		line := s.Title
		if s.Artist != "" {
			line = s.Artist + " - " + line
		}
		fmt.Printf("%s %2d. %s [%s]\n", marker, i+1, line, s.Origin)
	}
}
