// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mcp-community/registry-stats/internal/domain"
	"github.com/mcp-community/registry-stats/internal/gateway"
)

// Bounds for the number of simultaneous in-flight GitHub fetches.
const (
	MinConcurrent = 1
	MaxConcurrent = 50
)

// ProgressFunc is invoked once per completed stats fetch. Calls arrive in
// completion order, which is not submission order; done counts completed
// fetches and total is the number of fetches submitted.
type ProgressFunc func(done, total int)

// Collector resolves repository stats for registry entries under a
// bounded number of simultaneous GitHub requests.
type Collector struct {
	stats         gateway.StatsFetcher
	logger        *log.Logger
	maxConcurrent int
}

// NewCollector creates a Collector with the given concurrency limit,
// clamped to [MinConcurrent, MaxConcurrent].
func NewCollector(stats gateway.StatsFetcher, logger *log.Logger, maxConcurrent int) *Collector {
	if maxConcurrent < MinConcurrent {
		maxConcurrent = MinConcurrent
	}
	if maxConcurrent > MaxConcurrent {
		maxConcurrent = MaxConcurrent
	}
	return &Collector{
		stats:         stats,
		logger:        logger,
		maxConcurrent: maxConcurrent,
	}
}

// FetchStats produces exactly one ServerRecord per entry, in entry order.
// Entries whose repository URL points at GitHub go through the stats
// fetcher under the concurrency gate; all other entries bypass the gate
// and keep their no-stats state. An individual fetch failure affects only
// its own record and never its siblings.
//
// If ctx is cancelled, FetchStats waits for in-flight fetches to finish
// and returns ctx.Err() so the caller writes no partial table.
func (c *Collector) FetchStats(ctx context.Context, entries []domain.ServerEntry, onProgress ProgressFunc) ([]domain.ServerRecord, error) {
	records := make([]domain.ServerRecord, len(entries))
	var eligible []int
	for i, e := range entries {
		records[i] = domain.ServerRecord{
			Name:          e.Name,
			Version:       e.Version,
			RepositoryURL: e.RepositoryURL,
		}
		if gateway.MatchesProvider(e.RepositoryURL) {
			eligible = append(eligible, i)
		}
	}
	c.logger.Printf("Servers with GitHub repositories: %d/%d", len(eligible), len(entries))

	var (
		mu   sync.Mutex
		done int
	)
	g := new(errgroup.Group)
	g.SetLimit(c.maxConcurrent)
	for _, i := range eligible {
		i := i // per-iteration copy; required while go.mod targets pre-1.22 loop semantics
		g.Go(func() error {
			// Each goroutine writes a distinct index, so records need no lock.
			if ctx.Err() == nil {
				records[i].SetStats(c.stats.FetchRepoStats(ctx, records[i].RepositoryURL))
			}
			if onProgress != nil {
				mu.Lock()
				done++
				onProgress(done, len(eligible))
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fetched := 0
	for i := range records {
		if records[i].HasStats() {
			fetched++
		}
	}
	c.logger.Printf("Fetched GitHub stats for %d/%d repositories", fetched, len(eligible))
	return records, nil
}
