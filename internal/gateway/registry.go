// Package gateway provides clients for the external APIs this tool
// consumes: the MCP registry listing endpoint and the GitHub REST API.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mcp-community/registry-stats/internal/domain"
)

const (
	// DefaultRegistryURL is the public MCP registry listing endpoint.
	DefaultRegistryURL = "https://registry.modelcontextprotocol.io/v0/servers"

	// defaultPageLimit is the page size requested from the registry.
	defaultPageLimit = 100

	// defaultMaxPages bounds a misbehaving or adversarial cursor chain.
	// The registry is a few hundred pages at most; hitting this cap is an
	// error, not a truncation.
	defaultMaxPages = 1000

	registryRequestTimeout = 30 * time.Second
)

type registryRepository struct {
	URL    string `json:"url"`
	Source string `json:"source"`
}

type registryServer struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Version     string             `json:"version"`
	Repository  registryRepository `json:"repository"`
}

type registryEntry struct {
	Server registryServer `json:"server"`
}

type registryMetadata struct {
	NextCursor string `json:"nextCursor"`
	Count      int    `json:"count"`
}

type registryResponse struct {
	Servers  []registryEntry  `json:"servers"`
	Metadata registryMetadata `json:"metadata"`
}

// RegistryPage is one page of registry entries plus the opaque cursor for
// the next page. An empty NextCursor means the listing is exhausted.
type RegistryPage struct {
	Entries    []domain.ServerEntry
	NextCursor string
}

// RegistryClient pages through the MCP registry listing endpoint.
type RegistryClient struct {
	baseURL  string
	httpc    *http.Client
	logger   *log.Logger
	maxPages int
}

// NewRegistryClient creates a registry client for baseURL. An empty
// baseURL selects the public registry.
func NewRegistryClient(baseURL string, logger *log.Logger) *RegistryClient {
	if baseURL == "" {
		baseURL = DefaultRegistryURL
	}
	return &RegistryClient{
		baseURL:  baseURL,
		httpc:    &http.Client{Timeout: registryRequestTimeout},
		logger:   logger,
		maxPages: defaultMaxPages,
	}
}

// FetchPage fetches a single page of at most limit entries. The cursor is
// omitted from the request when empty (the first page).
func (c *RegistryClient) FetchPage(ctx context.Context, limit int, cursor string) (*RegistryPage, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build registry request: %w", err)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch registry page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("registry returned status %d", resp.StatusCode)
	}
	var decoded registryResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode registry response: %w", err)
	}

	page := &RegistryPage{NextCursor: decoded.Metadata.NextCursor}
	for _, e := range decoded.Servers {
		page.Entries = append(page.Entries, domain.ServerEntry{
			Name:          e.Server.Name,
			Version:       e.Server.Version,
			RepositoryURL: e.Server.Repository.URL,
		})
	}
	return page, nil
}

// FetchAllServers follows the cursor chain until the registry reports no
// next page, accumulating entries in page order. A failure on any page
// fails the whole listing; there is no partial-result recovery.
func (c *RegistryClient) FetchAllServers(ctx context.Context) ([]domain.ServerEntry, error) {
	var entries []domain.ServerEntry
	cursor := ""
	for page := 1; ; page++ {
		if page > c.maxPages {
			return nil, fmt.Errorf("registry pagination exceeded %d pages, giving up", c.maxPages)
		}
		c.logger.Printf("Fetching registry page %d...", page)
		p, err := c.FetchPage(ctx, defaultPageLimit, cursor)
		if err != nil {
			return nil, fmt.Errorf("registry page %d: %w", page, err)
		}
		entries = append(entries, p.Entries...)
		if p.NextCursor == "" {
			break
		}
		cursor = p.NextCursor
	}
	c.logger.Printf("Fetched %d servers from the registry.", len(entries))
	return entries, nil
}
