package usecase

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mcp-community/registry-stats/internal/domain"
)

// mockStatsFetcher is a mock implementation of the gateway.StatsFetcher
// interface, so collector behavior can be tested without real API calls.
type mockStatsFetcher struct {
	mock.Mock
}

func (m *mockStatsFetcher) FetchRepoStats(ctx context.Context, repoURL string) *domain.RepoStats {
	args := m.Called(ctx, repoURL)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*domain.RepoStats)
}

// fetcherFunc adapts a plain function to the StatsFetcher interface for
// tests that need custom fetch behavior.
type fetcherFunc func(ctx context.Context, repoURL string) *domain.RepoStats

func (f fetcherFunc) FetchRepoStats(ctx context.Context, repoURL string) *domain.RepoStats {
	return f(ctx, repoURL)
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestCollector_FetchStats(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entries := []domain.ServerEntry{
		{Name: "alpha", Version: "1.0.0", RepositoryURL: "https://github.com/org/alpha"},
		{Name: "beta", Version: "0.2.0", RepositoryURL: "https://gitlab.com/org/beta"},
		{Name: "gamma", Version: "3.1.4", RepositoryURL: "https://github.com/org/gamma"},
		{Name: "delta", Version: "0.0.1"},
	}

	fetcher := new(mockStatsFetcher)
	fetcher.On("FetchRepoStats", mock.Anything, "https://github.com/org/alpha").
		Return(&domain.RepoStats{Owner: "org", Repo: "alpha", Stars: 42, LastCommitDate: now, DaysSinceCommit: 1.5})
	// gamma's fetch fails and degrades to no-stats.
	fetcher.On("FetchRepoStats", mock.Anything, "https://github.com/org/gamma").Return(nil)

	collector := NewCollector(fetcher, discardLogger(), 4)
	records, err := collector.FetchStats(context.Background(), entries, nil)

	require.NoError(t, err)
	require.Len(t, records, len(entries), "one record per registry entry")

	// Records come back in entry order regardless of completion order.
	assert.Equal(t, "alpha", records[0].Name)
	assert.Equal(t, "beta", records[1].Name)
	assert.Equal(t, "gamma", records[2].Name)
	assert.Equal(t, "delta", records[3].Name)

	require.True(t, records[0].HasStats())
	assert.Equal(t, 42, *records[0].Stars)
	assert.Equal(t, 1.5, *records[0].DaysSinceCommit)
	assert.Equal(t, now.Format(time.RFC3339), *records[0].LastCommitDate)

	// The non-GitHub entry, the failed fetch, and the entry without a
	// repository all end up in the explicit no-stats state.
	for _, i := range []int{1, 2, 3} {
		assert.False(t, records[i].HasStats())
		assert.Nil(t, records[i].Stars)
		assert.Nil(t, records[i].DaysSinceCommit)
		assert.Nil(t, records[i].LastCommitDate)
	}

	// Only entries on the known host reach the fetcher.
	fetcher.AssertNumberOfCalls(t, "FetchRepoStats", 2)
	fetcher.AssertExpectations(t)
}

func TestCollector_FetchStats_BoundsConcurrency(t *testing.T) {
	const limit = 3
	var (
		mu       sync.Mutex
		inFlight int
		peak     int
	)
	fetcher := fetcherFunc(func(ctx context.Context, repoURL string) *domain.RepoStats {
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
		return nil
	})

	entries := make([]domain.ServerEntry, 20)
	for i := range entries {
		entries[i] = domain.ServerEntry{Name: "s", RepositoryURL: "https://github.com/org/repo"}
	}

	collector := NewCollector(fetcher, discardLogger(), limit)
	records, err := collector.FetchStats(context.Background(), entries, nil)

	require.NoError(t, err)
	assert.Len(t, records, len(entries))
	assert.LessOrEqual(t, peak, limit, "in-flight fetches must never exceed the gate")
	assert.Greater(t, peak, 0)
}

func TestCollector_FetchStats_ProgressObservesCompletions(t *testing.T) {
	entries := []domain.ServerEntry{
		{Name: "a", RepositoryURL: "https://github.com/org/a"},
		{Name: "b", RepositoryURL: "https://github.com/org/b"},
		{Name: "c", RepositoryURL: "https://not-github.example/org/c"},
	}
	fetcher := fetcherFunc(func(ctx context.Context, repoURL string) *domain.RepoStats {
		return nil
	})

	var calls []int
	lastTotal := 0
	collector := NewCollector(fetcher, discardLogger(), 2)
	_, err := collector.FetchStats(context.Background(), entries, func(done, total int) {
		calls = append(calls, done)
		lastTotal = total
	})

	require.NoError(t, err)
	// Progress fires once per eligible entry; the ineligible one bypasses
	// the gate entirely.
	assert.Equal(t, []int{1, 2}, calls)
	assert.Equal(t, 2, lastTotal)
}

func TestCollector_FetchStats_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := fetcherFunc(func(ctx context.Context, repoURL string) *domain.RepoStats {
		t.Error("fetcher should not run once the context is cancelled")
		return nil
	})
	entries := []domain.ServerEntry{
		{Name: "a", RepositoryURL: "https://github.com/org/a"},
	}

	collector := NewCollector(fetcher, discardLogger(), 2)
	records, err := collector.FetchStats(ctx, entries, nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, records)
}

func TestNewCollector_ClampsLimit(t *testing.T) {
	fetcher := fetcherFunc(func(ctx context.Context, repoURL string) *domain.RepoStats { return nil })

	assert.Equal(t, MinConcurrent, NewCollector(fetcher, discardLogger(), 0).maxConcurrent)
	assert.Equal(t, MaxConcurrent, NewCollector(fetcher, discardLogger(), 500).maxConcurrent)
	assert.Equal(t, 10, NewCollector(fetcher, discardLogger(), 10).maxConcurrent)
}
