package usecase

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mcp-community/registry-stats/internal/domain"
	"github.com/mcp-community/registry-stats/internal/gateway"
)

// SelectRefetchRows returns the indexes of records eligible for a repeat
// stats fetch: rows with a GitHub repository URL that are missing stats,
// or every GitHub row when force is set.
func SelectRefetchRows(records []domain.ServerRecord, force bool) []int {
	var rows []int
	for i := range records {
		if !gateway.MatchesProvider(records[i].RepositoryURL) {
			continue
		}
		if force || !records[i].HasStats() {
			rows = append(rows, i)
		}
	}
	return rows
}

// RefetchRows re-runs the stats fetch for the given row indexes under the
// concurrency gate and merges successful results back into records in
// place, by index. Rows whose fetch yields no stats are left untouched,
// so row order and prior values survive. It reports how many rows were
// updated.
func (c *Collector) RefetchRows(ctx context.Context, records []domain.ServerRecord, rows []int, onProgress ProgressFunc) (int, error) {
	var (
		mu      sync.Mutex
		done    int
		updated int
	)
	g := new(errgroup.Group)
	g.SetLimit(c.maxConcurrent)
	for _, i := range rows {
		i := i // per-iteration copy; required while go.mod targets pre-1.22 loop semantics
		g.Go(func() error {
			var stats *domain.RepoStats
			if ctx.Err() == nil {
				stats = c.stats.FetchRepoStats(ctx, records[i].RepositoryURL)
			}
			mu.Lock()
			if stats != nil {
				records[i].SetStats(stats)
				updated++
			}
			done++
			if onProgress != nil {
				onProgress(done, len(rows))
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return updated, err
	}
	if err := ctx.Err(); err != nil {
		return updated, err
	}
	c.logger.Printf("Refetched stats for %d/%d rows", updated, len(rows))
	return updated, nil
}
