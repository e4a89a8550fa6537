// Package domain contains the core data structures and domain logic for the application.
package domain

import "time"

// ServerEntry is one listing from the MCP registry: a server identifier,
// its declared version, and an optional repository URL. Entries are
// immutable once fetched.
type ServerEntry struct {
	Name          string
	Version       string
	RepositoryURL string // empty when the registry lists no repository
}

// RepoStats holds the popularity and activity metrics fetched for one
// GitHub repository. A value is created fresh per fetch attempt and never
// mutated; a failed fetch produces no RepoStats at all rather than a
// zeroed one.
type RepoStats struct {
	Owner           string
	Repo            string
	Stars           int
	LastCommitDate  time.Time
	DaysSinceCommit float64
}

// ServerRecord is the collected result for a single registry entry.
// Stars, DaysSinceCommit, and LastCommitDate are jointly present or
// jointly absent: they are only ever set together from one successful
// stats fetch.
type ServerRecord struct {
	Name            string
	Version         string
	RepositoryURL   string
	Stars           *int
	DaysSinceCommit *float64
	LastCommitDate  *string // ISO 8601
}

// HasStats reports whether the record carries fetched repository stats.
func (r *ServerRecord) HasStats() bool {
	return r.Stars != nil && r.DaysSinceCommit != nil
}

// SetStats copies the stat triple from s onto the record. A nil s leaves
// the record in its no-stats state.
func (r *ServerRecord) SetStats(s *RepoStats) {
	if s == nil {
		return
	}
	stars := s.Stars
	days := s.DaysSinceCommit
	date := s.LastCommitDate.Format(time.RFC3339)
	r.Stars = &stars
	r.DaysSinceCommit = &days
	r.LastCommitDate = &date
}
