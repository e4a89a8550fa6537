// Package dataset assembles collected server records into a sorted table
// and persists it as a CSV file.
package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/mcp-community/registry-stats/internal/domain"
)

// Header is the fixed CSV column layout. The last three columns are
// nullable and encoded as empty strings when absent.
var Header = []string{
	"server_name",
	"server_version",
	"github_url",
	"stars",
	"days_since_commit",
	"last_commit_date",
}

// Table is an ordered collection of server records.
type Table struct {
	Records []domain.ServerRecord
}

// New builds a table from a copy of records, sorted by star count
// descending with no-stats records after all starred ones.
func New(records []domain.ServerRecord) *Table {
	t := &Table{Records: append([]domain.ServerRecord(nil), records...)}
	t.Sort()
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Records) }

// Sort orders rows by star count descending, rows without a star count
// last. The sort is stable, so ties keep their existing order.
func (t *Table) Sort() {
	sort.SliceStable(t.Records, func(i, j int) bool {
		a, b := t.Records[i].Stars, t.Records[j].Stars
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a > *b
		}
	})
}

// Filter returns a new table containing only rows that carry both a star
// count and a days-since-commit value, the precondition for plotting.
// Filtering an already filtered table returns an equal table.
func (t *Table) Filter() *Table {
	out := &Table{}
	for _, r := range t.Records {
		if r.HasStats() {
			out.Records = append(out.Records, r)
		}
	}
	return out
}

// WriteCSV persists the table at path. The file appears atomically from
// the reader's perspective: rows go to a temp file in the destination
// directory which is then renamed over path.
func (t *Table) WriteCSV(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp table file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(Header); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write table header: %w", err)
	}
	for _, r := range t.Records {
		if err := w.Write(encodeRecord(r)); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to write table row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush table: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp table file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move table into place: %w", err)
	}
	return nil
}

// ReadCSV loads a table previously written by WriteCSV. The nullable
// triple round-trips exactly: columns left empty come back as nil.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open table file: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read table file: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("table file %s has no header row", path)
	}
	if len(rows[0]) != len(Header) {
		return nil, fmt.Errorf("table file %s has %d columns, want %d", path, len(rows[0]), len(Header))
	}
	for i, name := range Header {
		if rows[0][i] != name {
			return nil, fmt.Errorf("table file %s has unexpected column %q, want %q", path, rows[0][i], name)
		}
	}

	t := &Table{}
	for n, row := range rows[1:] {
		rec, err := decodeRecord(row)
		if err != nil {
			return nil, fmt.Errorf("table file %s row %d: %w", path, n+1, err)
		}
		t.Records = append(t.Records, rec)
	}
	return t, nil
}

func encodeRecord(r domain.ServerRecord) []string {
	row := []string{r.Name, r.Version, r.RepositoryURL, "", "", ""}
	if r.Stars != nil {
		row[3] = strconv.Itoa(*r.Stars)
	}
	if r.DaysSinceCommit != nil {
		row[4] = strconv.FormatFloat(*r.DaysSinceCommit, 'f', -1, 64)
	}
	if r.LastCommitDate != nil {
		row[5] = *r.LastCommitDate
	}
	return row
}

func decodeRecord(row []string) (domain.ServerRecord, error) {
	rec := domain.ServerRecord{Name: row[0], Version: row[1], RepositoryURL: row[2]}
	if row[3] != "" {
		stars, err := strconv.Atoi(row[3])
		if err != nil {
			return rec, fmt.Errorf("invalid stars value %q: %w", row[3], err)
		}
		rec.Stars = &stars
	}
	if row[4] != "" {
		days, err := strconv.ParseFloat(row[4], 64)
		if err != nil {
			return rec, fmt.Errorf("invalid days_since_commit value %q: %w", row[4], err)
		}
		rec.DaysSinceCommit = &days
	}
	if row[5] != "" {
		date := row[5]
		rec.LastCommitDate = &date
	}
	return rec, nil
}
