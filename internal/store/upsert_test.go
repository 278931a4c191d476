package store

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospector-cli/internal/model"
	"github.com/sells-group/prospector-cli/internal/urlnorm"
)

func prospectByDomain(t *testing.T, s *SQLiteStore, domain string) model.Prospect {
	t.Helper()
	prospects, err := ReadProspects(context.Background(), s, "prospects")
	require.NoError(t, err)
	for _, p := range prospects {
		if p.Domain == domain {
			return p
		}
	}
	t.Fatalf("prospect %q not found", domain)
	return model.Prospect{}
}

func TestUpsertBatch_AppendsNewRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n, err := UpsertBatch(ctx, s, "prospects", model.ColDomain, []UpsertRow{
		{model.ColDomain: "acme.com", model.ColWebsiteURL: "https://acme.com/", model.ColStatus: model.StatusDiscovered},
		{model.ColDomain: "beta.com", model.ColWebsiteURL: "https://beta.com/", model.ColStatus: model.StatusDiscovered},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	p := prospectByDomain(t, s, "acme.com")
	assert.Equal(t, "https://acme.com/", p.WebsiteURL)
	assert.Equal(t, model.StatusDiscovered, p.Status)
}

func TestUpsertBatch_FirstKnownValueWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := UpsertBatch(ctx, s, "prospects", model.ColDomain, []UpsertRow{
		{model.ColDomain: "acme.com", model.ColCompanyName: "Acme"},
	})
	require.NoError(t, err)

	_, err = UpsertBatch(ctx, s, "prospects", model.ColDomain, []UpsertRow{
		{model.ColDomain: "acme.com", model.ColCompanyName: "Other"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Acme", prospectByDomain(t, s, "acme.com").CompanyName)
}

func TestUpsertBatch_BlankNeverClobbers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := UpsertBatch(ctx, s, "prospects", model.ColDomain, []UpsertRow{
		{model.ColDomain: "acme.com", model.ColPrimaryEmail: "info@acme.com"},
	})
	require.NoError(t, err)

	_, err = UpsertBatch(ctx, s, "prospects", model.ColDomain, []UpsertRow{
		{model.ColDomain: "acme.com", model.ColPrimaryEmail: ""},
	})
	require.NoError(t, err)

	assert.Equal(t, "info@acme.com", prospectByDomain(t, s, "acme.com").PrimaryEmail)
}

func TestUpsertBatch_NotesAppend(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := UpsertBatch(ctx, s, "prospects", model.ColDomain, []UpsertRow{
		{model.ColDomain: "acme.com", model.ColNotes: "a"},
	})
	require.NoError(t, err)

	_, err = UpsertBatch(ctx, s, "prospects", model.ColDomain, []UpsertRow{
		{model.ColDomain: "acme.com", model.ColNotes: "b"},
	})
	require.NoError(t, err)

	assert.Equal(t, "a | b", prospectByDomain(t, s, "acme.com").Notes)
}

func TestUpsertBatch_LastCheckedAtAlwaysOverwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := UpsertBatch(ctx, s, "prospects", model.ColDomain, []UpsertRow{
		{model.ColDomain: "acme.com", model.ColLastCheckedAt: "2025-01-01T00:00:00Z"},
	})
	require.NoError(t, err)

	n, err := UpsertBatch(ctx, s, "prospects", model.ColDomain, []UpsertRow{
		{model.ColDomain: "acme.com", model.ColLastCheckedAt: "2025-02-01T00:00:00Z"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Equal(t, "2025-02-01T00:00:00Z", prospectByDomain(t, s, "acme.com").LastCheckedAt)
}

func TestUpsertBatch_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	patch := []UpsertRow{{
		model.ColDomain:        "acme.com",
		model.ColCompanyName:   "Acme",
		model.ColPrimaryEmail:  "info@acme.com",
		model.ColLastCheckedAt: "2025-01-01T00:00:00Z",
	}}

	_, err := UpsertBatch(ctx, s, "prospects", model.ColDomain, patch)
	require.NoError(t, err)
	first := prospectByDomain(t, s, "acme.com")

	n, err := UpsertBatch(ctx, s, "prospects", model.ColDomain, patch)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, first, prospectByDomain(t, s, "acme.com"))
}

func TestUpsertBatch_InBatchDuplicateMergesIntoStagedAppend(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n, err := UpsertBatch(ctx, s, "prospects", model.ColDomain, []UpsertRow{
		{model.ColDomain: "acme.com", model.ColCompanyName: "Acme"},
		{model.ColDomain: "acme.com", model.ColCompanyName: "Acme Duplicate", model.ColPrimaryEmail: "info@acme.com"},
	})
	require.NoError(t, err)
	// One append; the duplicate merged in memory instead of re-appending.
	assert.Equal(t, 1, n)

	p := prospectByDomain(t, s, "acme.com")
	assert.Equal(t, "Acme", p.CompanyName)
	assert.Equal(t, "info@acme.com", p.PrimaryEmail)

	_, rows, err := s.ReadAll(ctx, "prospects")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestUpsertBatch_KeyMatchingCaseInsensitive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := UpsertBatch(ctx, s, "prospects", model.ColDomain, []UpsertRow{
		{model.ColDomain: "Acme.COM", model.ColCompanyName: "Acme"},
	})
	require.NoError(t, err)

	n, err := UpsertBatch(ctx, s, "prospects", model.ColDomain, []UpsertRow{
		{model.ColDomain: "acme.com", model.ColNotes: "seen again"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, rows, err := s.ReadAll(ctx, "prospects")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestUpsertBatch_EmptyKeySkipped(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n, err := UpsertBatch(ctx, s, "prospects", model.ColDomain, []UpsertRow{
		{model.ColDomain: "", model.ColCompanyName: "Nobody"},
		{model.ColCompanyName: "Still nobody"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestUpsertBatch_MissingKeyColumnFails(t *testing.T) {
	s := newTestStore(t)
	_, err := UpsertBatch(context.Background(), s, "prospects", "no_such_column", []UpsertRow{
		{"no_such_column": "x"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `key column "no_such_column" not found`)
}

func TestUpsertBatch_MissingHeaderFails(t *testing.T) {
	s := newTestStore(t)
	_, err := UpsertBatch(context.Background(), s, "absent_table", model.ColDomain, []UpsertRow{
		{model.ColDomain: "acme.com"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no header row")
}

func TestUpsertBatch_UnknownColumnsDroppedSilently(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n, err := UpsertBatch(ctx, s, "prospects", model.ColDomain, []UpsertRow{
		{model.ColDomain: "acme.com", "title": "Acme | Home", "description": "Widgets"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUpsertBatch_OverwriteColumns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := UpsertBatch(ctx, s, "prospects", model.ColDomain, []UpsertRow{
		{model.ColDomain: "acme.com", model.ColStatus: model.StatusDiscovered},
	})
	require.NoError(t, err)

	// Without the option, status follows fill-if-blank and stays discovered.
	_, err = UpsertBatch(ctx, s, "prospects", model.ColDomain, []UpsertRow{
		{model.ColDomain: "acme.com", model.ColStatus: model.StatusContacted},
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusDiscovered, prospectByDomain(t, s, "acme.com").Status)

	_, err = UpsertBatch(ctx, s, "prospects", model.ColDomain, []UpsertRow{
		{model.ColDomain: "acme.com", model.ColStatus: model.StatusContacted},
	}, WithOverwriteColumns(model.ColStatus))
	require.NoError(t, err)
	assert.Equal(t, model.StatusContacted, prospectByDomain(t, s, "acme.com").Status)
}

func TestUpsertBatch_KeyNormalizer(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := UpsertBatch(ctx, s, "prospects", model.ColWebsiteURL, []UpsertRow{
		{model.ColWebsiteURL: "https://acme.com/", model.ColCompanyName: "Acme"},
	})
	require.NoError(t, err)

	norm := func(s string) string {
		return strings.ToLower(urlnorm.Normalize(s))
	}
	n, err := UpsertBatch(ctx, s, "prospects", model.ColWebsiteURL, []UpsertRow{
		{model.ColWebsiteURL: "https://ACME.com", model.ColNotes: "matched"},
	}, WithKeyNormalizer(norm))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, rows, err := s.ReadAll(ctx, "prospects")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
