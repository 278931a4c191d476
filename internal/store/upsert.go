package store

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospector-cli/internal/model"
)

// UpsertRow is a partial record keyed by column name. Empty values mean
// "leave unchanged"; columns absent from the table header are dropped.
type UpsertRow map[string]string

// UpsertOption configures a batch upsert.
type UpsertOption func(*upsertOpts)

type upsertOpts struct {
	keyNorm   func(string) string
	overwrite map[string]bool
}

// WithKeyNormalizer sets the canonicalizer applied to key values on both the
// stored and incoming side before matching. Defaults to trim + lowercase.
func WithKeyNormalizer(fn func(string) string) UpsertOption {
	return func(o *upsertOpts) {
		o.keyNorm = fn
	}
}

// WithOverwriteColumns marks columns the writer may overwrite even when the
// existing cell is non-blank. The outreach writer uses this for status and
// the emailed-at fields; discovery and enrichment writers declare none.
func WithOverwriteColumns(cols ...string) UpsertOption {
	return func(o *upsertOpts) {
		for _, c := range cols {
			o.overwrite[c] = true
		}
	}
}

// staged is one pending write: a new row awaiting append, or an existing row
// awaiting update. Later batch entries with the same key merge into the same
// staged copy before anything executes.
type staged struct {
	rowID int64
	cells []string
	isNew bool
	dirty bool
}

// UpsertBatch inserts or merges a batch of rows into a table, keyed by the
// named column. The store is read once; appends are staged and registered in
// the key index immediately so in-batch duplicates merge instead of
// re-appending. All staged appends execute first, then all staged updates.
// Returns the number of rows written.
//
// Merge rule per column: notes appends with " | ", last_checked_at always
// overwrites, overwrite-listed columns overwrite, everything else is set only
// when the existing cell is blank. Re-applying the same batch is a no-op for
// every column except notes and the overwrite set.
func UpsertBatch(ctx context.Context, st Store, table, key string, batch []UpsertRow, opts ...UpsertOption) (int, error) {
	o := &upsertOpts{
		keyNorm: func(s string) string {
			return strings.ToLower(strings.TrimSpace(s))
		},
		overwrite: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(o)
	}

	header, rows, err := st.ReadAll(ctx, table)
	if err != nil {
		return 0, eris.Wrapf(err, "upsert: read %s", table)
	}
	if len(header) == 0 {
		return 0, eris.Errorf("upsert: table %s has no header row", table)
	}

	colIdx := make(map[string]int, len(header))
	for i, col := range header {
		colIdx[col] = i
	}
	keyIdx, ok := colIdx[key]
	if !ok {
		return 0, eris.Errorf("upsert: key column %q not found in %s header", key, table)
	}

	// First matching stored row wins the index slot, as a linear scan would.
	index := make(map[string]*staged, len(rows))
	for _, r := range rows {
		var kv string
		if keyIdx < len(r.Cells) {
			kv = r.Cells[keyIdx]
		}
		kn := o.keyNorm(kv)
		if kn == "" {
			continue
		}
		if _, exists := index[kn]; exists {
			continue
		}
		cells := make([]string, len(header))
		copy(cells, r.Cells)
		index[kn] = &staged{rowID: r.ID, cells: cells}
	}

	var appends, updates []*staged

	for _, in := range batch {
		kn := o.keyNorm(in[key])
		if kn == "" {
			continue
		}

		hit := index[kn]
		if hit == nil {
			cells := make([]string, len(header))
			for col, val := range in {
				j, ok := colIdx[col]
				if !ok || strings.TrimSpace(val) == "" {
					continue
				}
				cells[j] = val
			}
			hit = &staged{cells: cells, isNew: true}
			index[kn] = hit
			appends = append(appends, hit)
			continue
		}

		changed := mergeRow(header, colIdx, hit.cells, in, o.overwrite)
		if changed && !hit.isNew && !hit.dirty {
			hit.dirty = true
			updates = append(updates, hit)
		}
	}

	written := 0
	for _, a := range appends {
		if err := st.Append(ctx, table, a.cells); err != nil {
			return written, eris.Wrapf(err, "upsert: append to %s", table)
		}
		written++
	}
	for _, u := range updates {
		if err := st.Update(ctx, table, u.rowID, u.cells); err != nil {
			return written, eris.Wrapf(err, "upsert: update %s row %d", table, u.rowID)
		}
		written++
	}

	zap.L().Debug("upsert batch complete",
		zap.String("table", table),
		zap.String("key", key),
		zap.Int("appended", len(appends)),
		zap.Int("updated", len(updates)),
	)
	return written, nil
}

// mergeRow applies one partial row onto existing cells in place and reports
// whether anything changed.
func mergeRow(header []string, colIdx map[string]int, cells []string, in UpsertRow, overwrite map[string]bool) bool {
	changed := false
	for _, col := range header {
		val, ok := in[col]
		if !ok {
			continue
		}
		v := strings.TrimSpace(val)
		if v == "" {
			continue
		}
		j := colIdx[col]

		switch {
		case col == model.ColNotes:
			if cells[j] != "" {
				cells[j] = cells[j] + " | " + v
			} else {
				cells[j] = v
			}
			changed = true
		case col == model.ColLastCheckedAt || overwrite[col]:
			if cells[j] != v {
				cells[j] = v
				changed = true
			}
		default:
			if cells[j] == "" {
				cells[j] = v
				changed = true
			}
		}
	}
	return changed
}
