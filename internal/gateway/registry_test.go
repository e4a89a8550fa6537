package gateway

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRegistryClient points a RegistryClient at a mock HTTP server.
func newTestRegistryClient(server *httptest.Server, maxPages int) *RegistryClient {
	return &RegistryClient{
		baseURL:  server.URL,
		httpc:    server.Client(),
		logger:   log.New(io.Discard, "", 0),
		maxPages: maxPages,
	}
}

func TestRegistryClient_FetchPage(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "25", r.URL.Query().Get("limit"))
		assert.Equal(t, "abc", r.URL.Query().Get("cursor"))
		fmt.Fprint(w, `{
			"servers": [
				{"server": {"name": "io.example/alpha", "version": "1.0.0", "repository": {"url": "https://github.com/example/alpha", "source": "github"}}}
			],
			"metadata": {"nextCursor": "def", "count": 1}
		}`)
	}
	server := httptest.NewServer(http.HandlerFunc(handler))
	defer server.Close()
	client := newTestRegistryClient(server, 10)

	page, err := client.FetchPage(context.Background(), 25, "abc")
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, "io.example/alpha", page.Entries[0].Name)
	assert.Equal(t, "1.0.0", page.Entries[0].Version)
	assert.Equal(t, "https://github.com/example/alpha", page.Entries[0].RepositoryURL)
	assert.Equal(t, "def", page.NextCursor)
}

func TestRegistryClient_FetchPage_OmitsEmptyCursor(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		_, hasCursor := r.URL.Query()["cursor"]
		assert.False(t, hasCursor, "first page request must not carry a cursor")
		fmt.Fprint(w, `{"servers": [], "metadata": {"count": 0}}`)
	}
	server := httptest.NewServer(http.HandlerFunc(handler))
	defer server.Close()
	client := newTestRegistryClient(server, 10)

	page, err := client.FetchPage(context.Background(), 100, "")
	require.NoError(t, err)
	assert.Empty(t, page.Entries)
	assert.Empty(t, page.NextCursor)
}

func TestRegistryClient_FetchAllServers(t *testing.T) {
	testCases := []struct {
		name           string
		pages          []string // response body per call, cycled in order
		statusCodes    []int    // optional status per call, defaults to 200
		maxPages       int
		expectedNames  []string
		expectError    bool
		expectedErrMsg string
	}{
		{
			name: "two pages in page order",
			pages: []string{
				`{"servers": [{"server": {"name": "first", "version": "1.0.0"}}], "metadata": {"nextCursor": "c1", "count": 1}}`,
				`{"servers": [{"server": {"name": "second", "version": "2.0.0"}}], "metadata": {"count": 1}}`,
			},
			maxPages:      10,
			expectedNames: []string{"first", "second"},
		},
		{
			name: "failure on page two loses the whole listing",
			pages: []string{
				`{"servers": [{"server": {"name": "first", "version": "1.0.0"}}], "metadata": {"nextCursor": "c1", "count": 1}}`,
				`{"message": "boom"}`,
			},
			statusCodes:    []int{http.StatusOK, http.StatusInternalServerError},
			maxPages:       10,
			expectError:    true,
			expectedErrMsg: "registry page 2",
		},
		{
			name: "malformed payload propagates",
			pages: []string{
				`{"servers": [`,
			},
			maxPages:       10,
			expectError:    true,
			expectedErrMsg: "failed to decode registry response",
		},
		{
			name: "endless cursor chain hits the page cap",
			pages: []string{
				`{"servers": [{"server": {"name": "loop", "version": "0.0.1"}}], "metadata": {"nextCursor": "again", "count": 1}}`,
			},
			maxPages:       3,
			expectError:    true,
			expectedErrMsg: "pagination exceeded 3 pages",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			call := 0
			handler := func(w http.ResponseWriter, r *http.Request) {
				i := call
				if i >= len(tc.pages) {
					i = len(tc.pages) - 1
				}
				if tc.statusCodes != nil && call < len(tc.statusCodes) {
					w.WriteHeader(tc.statusCodes[call])
				}
				fmt.Fprint(w, tc.pages[i])
				call++
			}
			server := httptest.NewServer(http.HandlerFunc(handler))
			defer server.Close()
			client := newTestRegistryClient(server, tc.maxPages)

			entries, err := client.FetchAllServers(context.Background())

			if tc.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectedErrMsg)
				assert.Nil(t, entries)
				return
			}
			require.NoError(t, err)
			names := make([]string, 0, len(entries))
			for _, e := range entries {
				names = append(names, e.Name)
			}
			assert.Equal(t, tc.expectedNames, names)
		})
	}
}
