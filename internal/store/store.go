// Package store persists prospect records and run logs in a tabular store.
// The header (column order) comes from the table schema; callers look columns
// up by name and never assume positions beyond the header.
package store

import (
	"context"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/prospector-cli/internal/model"
)

// Row is one stored record: a stable row ID plus cell values in header order.
type Row struct {
	ID    int64
	Cells []string
}

// Store defines the tabular persistence interface for the pipeline.
type Store interface {
	// Header returns the column names of a table in schema order.
	Header(ctx context.Context, table string) ([]string, error)
	// ReadAll returns the header and every row in stable row-ID order.
	ReadAll(ctx context.Context, table string) ([]string, []Row, error)
	// Append inserts one row; cells are matched to the header positionally
	// and padded or truncated to the header width.
	Append(ctx context.Context, table string, cells []string) error
	// Update overwrites one row in place by row ID.
	Update(ctx context.Context, table string, rowID int64, cells []string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// ReadProspects reads a prospects table into typed records.
func ReadProspects(ctx context.Context, st Store, table string) ([]model.Prospect, error) {
	header, rows, err := st.ReadAll(ctx, table)
	if err != nil {
		return nil, eris.Wrapf(err, "store: read %s", table)
	}
	if len(header) == 0 {
		return nil, eris.Errorf("store: table %s has no header", table)
	}
	out := make([]model.Prospect, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.ProspectFromRow(header, r.ID, r.Cells))
	}
	return out, nil
}

// ValidateProspectHeader checks that a prospects table carries every
// canonical column. Extra columns are fine; missing ones are reported by name
// so a misconfigured table fails before any writes.
func ValidateProspectHeader(header []string) error {
	present := make(map[string]bool, len(header))
	for _, col := range header {
		present[col] = true
	}
	var missing []string
	for _, col := range model.ProspectColumns {
		if col == model.ColLastEmailedAt || col == model.ColEmailedTo {
			// Optional; writers drop them when absent.
			continue
		}
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return eris.Errorf("store: prospects table missing columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// AppendRunSummary appends one run-log row. Columns missing from the runs
// table header are dropped silently; a missing header is an error.
func AppendRunSummary(ctx context.Context, st Store, table string, run model.RunSummary) error {
	header, err := st.Header(ctx, table)
	if err != nil {
		return eris.Wrapf(err, "store: read %s header", table)
	}
	if len(header) == 0 {
		return eris.Errorf("store: table %s has no header", table)
	}

	vals := map[string]string{
		"run_id":              run.RunID,
		"started_at":          run.StartedAt,
		"finished_at":         run.FinishedAt,
		"urls_seeded_count":   strconv.Itoa(run.URLsSeeded),
		"sites_scraped_count": strconv.Itoa(run.SitesScraped),
		"enriched_count":      strconv.Itoa(run.Enriched),
		"written_count":       strconv.Itoa(run.Written),
		"emails_sent_count":   strconv.Itoa(run.EmailsSent),
		"errors_count":        strconv.Itoa(run.Errors),
		"top_error":           truncate(run.TopError, 200),
	}

	cells := make([]string, len(header))
	for i, col := range header {
		cells[i] = vals[col]
	}
	return eris.Wrapf(st.Append(ctx, table, cells), "store: append run log")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
