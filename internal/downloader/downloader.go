// Package downloader fetches blocklist sources over HTTP into the local
// sources directory.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"hostsgen/internal/sources"
	"hostsgen/internal/util"
)

const (
	// DefaultTimeout bounds a single source download.
	DefaultTimeout = 45 * time.Second
	// DefaultWorkers is the number of sources fetched at once.
	DefaultWorkers = 5

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// Options controls Fetcher behavior.
type Options struct {
	Timeout time.Duration
	Workers int
	Client  *http.Client // Optional; overrides Timeout when set
}

// Result is the outcome of one source download.
type Result struct {
	Source sources.Source
	Path   string
	Bytes  int64
	Err    error
}

// Fetcher downloads sources.
type Fetcher struct {
	client  *http.Client
	workers int
}

// New returns a Fetcher with defaults applied.
func New(opts Options) *Fetcher {
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:           http.ProxyFromEnvironment,
				MaxIdleConns:    10,
				IdleConnTimeout: 30 * time.Second,
			},
		}
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Fetcher{client: client, workers: workers}
}

// Fetch downloads src into dir/<name>.txt, replacing any previous copy only
// once the new one is complete.
func (f *Fetcher) Fetch(ctx context.Context, src sources.Source, dir string) (Result, error) {
	res := Result{Source: src, Path: filepath.Join(dir, src.FileName())}

	u, err := util.ParseSourceURL(src.URL)
	if err != nil {
		return res, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return res, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return res, fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return res, fmt.Errorf("failed to download: HTTP %d", resp.StatusCode)
	}

	n, err := util.WriteFileAtomic(res.Path, resp.Body)
	res.Bytes = n
	if err != nil {
		return res, err
	}
	return res, nil
}

// Events receives per-source notifications from FetchAll. Calls are
// serialized; either field may be nil.
type Events struct {
	Started  func(sources.Source)
	Finished func(Result)
}

// FetchAll downloads every source with bounded concurrency. A failed source
// does not stop the others. The returned error joins all failures.
func (f *Fetcher) FetchAll(ctx context.Context, srcs []sources.Source, dir string, ev Events) error {
	if err := util.EnsureDir(dir); err != nil {
		return fmt.Errorf("create sources dir: %w", err)
	}

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(f.workers)

	for _, src := range srcs {
		g.Go(func() error {
			if ev.Started != nil {
				mu.Lock()
				ev.Started(src)
				mu.Unlock()
			}

			res, err := f.Fetch(ctx, src, dir)
			res.Err = err

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", src.Name, err))
			}
			if ev.Finished != nil {
				ev.Finished(res)
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}
