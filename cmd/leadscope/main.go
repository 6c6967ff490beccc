// Command leadscope turns scraped profile snapshots into lead metrics and scores.
//
// Usage:
//
//	leadscope snapshot.json
//	leadscope -flat https://api.example.com/v2/datasets/abc/items  # LEADSCOPE_SOURCE_TOKEN for private datasets
//	cat snapshot.json | leadscope -
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/leadscope/pkg/auth"
	"github.com/codeGROOVE-dev/leadscope/pkg/extract"
	"github.com/codeGROOVE-dev/leadscope/pkg/httpcache"
	"github.com/codeGROOVE-dev/leadscope/pkg/output"
	"github.com/codeGROOVE-dev/leadscope/pkg/snapshot"
	"github.com/codeGROOVE-dev/leadscope/pkg/source"
)

func main() {
	debug := flag.Bool("debug", false, "enable debug logging")
	verbose := flag.Bool("v", false, "verbose logging (same as -debug)")
	noCache := flag.Bool("no-cache", false, "disable caching of downloaded snapshots (enabled by default with 24h TTL)")
	cacheTTL := flag.Duration("cache-ttl", 24*time.Hour, "cache time-to-live for downloaded snapshots")
	browserCookies := flag.Bool("browser-cookies", false, "send session cookies from local browser stores to the dataset host")
	sequential := flag.Bool("sequential", false, "run metric calculators one at a time")
	compact := flag.Bool("compact", false, "print compact JSON")
	flat := flag.Bool("flat", false, "print only flattened records of successful extractions")
	strict := flag.Bool("strict", false, "exit with status 2 if any profile fails validation")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: leadscope [options] <file|url|->")
		fmt.Fprintln(os.Stderr, "\nOptions:")
		flag.PrintDefaults()
		fmt.Fprintln(os.Stderr, "\nInput is one snapshot object or an array of them, as exported by profile scrapers.")
		fmt.Fprintln(os.Stderr, "\nEnvironment:")
		for _, name := range auth.EnvVars() {
			fmt.Fprintf(os.Stderr, "  %s\n", name)
		}
		os.Exit(1)
	}

	ref := flag.Arg(0)

	logLevel := slog.LevelInfo
	if *debug || *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	loadOpts := []source.Option{source.WithLogger(logger)}
	if *browserCookies {
		loadOpts = append(loadOpts, source.WithBrowserCookies())
	}
	if !*noCache && isURL(ref) {
		httpCache, err := httpcache.New(*cacheTTL)
		if err != nil {
			logger.Warn("failed to initialize cache, continuing without cache", "error", err)
		} else {
			defer func() {
				if err := httpCache.Close(); err != nil {
					logger.Warn("failed to close cache", "error", err)
				}
			}()
			logger.Debug("snapshot cache initialized", "ttl", cacheTTL.String())
			loadOpts = append(loadOpts, source.WithCache(httpCache))
		}
	}

	ctx := context.Background()

	data, err := source.Load(ctx, ref, loadOpts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1) //nolint:gocritic // exitAfterDefer is acceptable in main
	}
	snaps, err := snapshot.Parse(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	extractOpts := []extract.Option{extract.WithLogger(logger)}
	if *sequential {
		extractOpts = append(extractOpts, extract.WithSequential())
	}
	x := extract.New(extractOpts...)

	responses := make([]*extract.Response, 0, len(snaps))
	failed := 0
	for _, s := range snaps {
		resp := x.Extract(s)
		if !resp.Success {
			failed++
			logger.Warn("profile failed validation", "username", resp.Metadata.Username, "error", resp.Error)
		}
		responses = append(responses, resp)
	}
	if s := httpcache.CacheStats(); s.Hits+s.Misses > 0 {
		logger.Debug("snapshot cache", "hits", s.Hits, "misses", s.Misses)
	}

	var out any = responses
	if *flat {
		records := make([]output.Record, 0, len(responses))
		for _, r := range responses {
			if r.Success {
				records = append(records, r.Data.Flattened)
			}
		}
		out = records
	}
	if len(snaps) == 1 && !*flat {
		out = responses[0]
	}

	if err := outputJSON(out, !*compact); err != nil {
		fmt.Fprintf(os.Stderr, "Output error: %v\n", err)
		os.Exit(1)
	}
	if *strict && failed > 0 {
		os.Exit(2)
	}
}

func isURL(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func outputJSON(v any, indent bool) error {
	enc := json.NewEncoder(os.Stdout)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
