package enrich

import (
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/prospector-cli/internal/model"
	"github.com/sells-group/prospector-cli/internal/urlnorm"
)

// BuildPatches joins fetch results to stored prospects by normalized
// website_url and produces one patch per matched record, keyed by the
// normalized URL. Results for URLs with no stored record are dropped. Every
// patch stamps last_checked_at; contact_method is set to "email" only when
// an address was found.
func BuildPatches(prospects []model.Prospect, results []model.FetchResult, now time.Time) []model.Patch {
	byURL := make(map[string]model.Prospect, len(prospects))
	for _, p := range prospects {
		if key := urlnorm.Normalize(p.WebsiteURL); key != "" {
			if _, dup := byURL[key]; !dup {
				byURL[key] = p
			}
		}
	}

	checkedAt := model.ISO8601(now)
	var patches []model.Patch
	for _, r := range results {
		key := urlnorm.Normalize(r.URL)
		if _, ok := byURL[key]; !ok {
			zap.L().Debug("fetch result matched no record", zap.String("url", r.URL))
			continue
		}

		patch := model.Patch{
			WebsiteURL:    key,
			Title:         r.Title,
			Description:   r.Description,
			PrimaryEmail:  r.PrimaryEmail,
			AllEmails:     r.AllEmails,
			LastCheckedAt: checkedAt,
		}
		if r.PrimaryEmail != "" {
			patch.ContactMethod = "email"
		}
		if r.Title != "" {
			patch.CompanyName = CompanyNameFromTitle(r.Title)
		}
		patches = append(patches, patch)
	}
	return patches
}
