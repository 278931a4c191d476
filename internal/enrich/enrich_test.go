package enrich

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospector-cli/internal/model"
)

func TestBuildPatches(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	prospects := []model.Prospect{
		{WebsiteURL: "https://acme.com/", Domain: "acme.com"},
		{WebsiteURL: "https://beta.com/", Domain: "beta.com"},
	}
	results := []model.FetchResult{
		{
			URL:          "https://acme.com",
			Status:       "200",
			Title:        "Acme Law Group | Home",
			Description:  "Family law in Austin.",
			PrimaryEmail: "info@acme.com",
			AllEmails:    "info@acme.com,sales@acme.com",
		},
		{URL: "https://beta.com/", Status: "404"},
		{URL: "https://unknown.com/", Status: "200", PrimaryEmail: "x@unknown.com"},
	}

	patches := BuildPatches(prospects, results, now)
	require.Len(t, patches, 2)

	acme := patches[0]
	assert.Equal(t, "https://acme.com/", acme.WebsiteURL)
	assert.Equal(t, "Acme Law Group", acme.CompanyName)
	assert.Equal(t, "email", acme.ContactMethod)
	assert.Equal(t, "info@acme.com", acme.PrimaryEmail)
	assert.Equal(t, "2025-06-01T12:00:00Z", acme.LastCheckedAt)

	// Failed fetches still stamp last_checked_at but set nothing else.
	beta := patches[1]
	assert.Equal(t, "https://beta.com/", beta.WebsiteURL)
	assert.Empty(t, beta.ContactMethod)
	assert.Empty(t, beta.CompanyName)
	assert.Equal(t, "2025-06-01T12:00:00Z", beta.LastCheckedAt)
}

func TestBuildPatches_JoinNormalizesBothSides(t *testing.T) {
	prospects := []model.Prospect{
		{WebsiteURL: "http://acme.com/page?ref=1"},
	}
	results := []model.FetchResult{
		{URL: "http://acme.com/page", Status: "200", Title: "Acme"},
	}
	patches := BuildPatches(prospects, results, time.Now())
	require.Len(t, patches, 1)
	// Patch carries the normalized URL; the upsert key normalizer matches it
	// back to the stored record's raw URL.
	assert.Equal(t, "http://acme.com/page", patches[0].WebsiteURL)
}
