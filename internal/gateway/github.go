package gateway

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/mcp-community/registry-stats/internal/domain"
)

// statsRequestTimeout caps each individual GitHub API call. A timeout is
// treated like any other fetch failure.
const statsRequestTimeout = 30 * time.Second

const providerHost = "github.com"

// StatsFetcher defines the behavior of a client that resolves repository
// stats for a repository URL. A nil result means no stats are available;
// implementations never report per-repository errors to the caller.
type StatsFetcher interface {
	FetchRepoStats(ctx context.Context, repoURL string) *domain.RepoStats
}

// GitHubGateway is the concrete implementation of StatsFetcher, backed by
// the GitHub REST API.
type GitHubGateway struct {
	client *github.Client
	logger *log.Logger
}

// NewGitHubGateway creates a gateway authenticated with token. An empty
// token falls back to the GITHUB_TOKEN environment variable; if that is
// unset too, requests go out unauthenticated and simply ride the stricter
// anonymous rate limit, which the no-stats fallback tolerates.
func NewGitHubGateway(token string, logger *log.Logger) (*GitHubGateway, error) {
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	var transport http.RoundTripper = rateLimitWaiter
	if token != "" {
		transport = &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
		}
	}
	httpClient := &http.Client{
		Transport: transport,
		Timeout:   statsRequestTimeout,
	}
	return &GitHubGateway{
		client: github.NewClient(httpClient),
		logger: logger,
	}, nil
}

// MatchesProvider reports whether raw points at the known provider host,
// without validating the repository path.
func MatchesProvider(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return strings.TrimPrefix(u.Host, "www.") == providerHost
}

// ParseRepoURL extracts (owner, repo) from a GitHub repository URL. The
// path must be exactly two non-empty segments; a trailing ".git" suffix
// and a trailing slash are ignored. Any other shape, or a non-GitHub
// host, is unparseable.
func ParseRepoURL(raw string) (owner, repo string, ok bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", false
	}
	if strings.TrimPrefix(u.Host, "www.") != providerHost {
		return "", "", false
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) != 2 {
		return "", "", false
	}
	owner = segments[0]
	repo = strings.TrimSuffix(segments[1], ".git")
	if owner == "" || repo == "" {
		return "", "", false
	}
	return owner, repo, true
}

// FetchRepoStats resolves repoURL and fetches the repository's star count
// and most recent commit date, deriving fractional days since that
// commit. Every failure class degrades to nil: unparseable URL, 404,
// 403/429, a 409 from an empty repository, an empty commit list, a
// malformed payload, or a network timeout. The URL check happens before
// any network call.
func (g *GitHubGateway) FetchRepoStats(ctx context.Context, repoURL string) *domain.RepoStats {
	owner, repo, ok := ParseRepoURL(repoURL)
	if !ok {
		g.logger.Printf("Skipping unparseable repository URL: %s", repoURL)
		return nil
	}

	repository, resp, err := g.client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusForbidden) {
			g.logger.Printf("Repository %s/%s not accessible (status %d)", owner, repo, resp.StatusCode)
		} else {
			g.logger.Printf("Failed to fetch metadata for %s/%s: %v", owner, repo, err)
		}
		return nil
	}

	opts := &github.CommitsListOptions{ListOptions: github.ListOptions{PerPage: 1}}
	commits, _, err := g.client.Repositories.ListCommits(ctx, owner, repo, opts)
	if err != nil {
		// A 409 here means the repository has no commit history yet.
		g.logger.Printf("Failed to fetch commits for %s/%s: %v", owner, repo, err)
		return nil
	}
	if len(commits) == 0 {
		g.logger.Printf("Repository %s/%s has no commits", owner, repo)
		return nil
	}

	commitDate := commits[0].GetCommit().GetAuthor().GetDate()
	if commitDate.IsZero() {
		g.logger.Printf("Repository %s/%s has a commit without an author date", owner, repo)
		return nil
	}
	days := time.Since(commitDate.Time).Seconds() / 86400
	if days < 0 {
		days = 0
	}
	return &domain.RepoStats{
		Owner:           owner,
		Repo:            repo,
		Stars:           repository.GetStargazersCount(),
		LastCommitDate:  commitDate.Time,
		DaysSinceCommit: days,
	}
}
