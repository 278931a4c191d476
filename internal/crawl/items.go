package crawl

import (
	"strings"

	"github.com/sells-group/prospector-cli/internal/model"
	"github.com/sells-group/prospector-cli/internal/urlnorm"
)

// BuildItems selects the records worth fetching: those with a website but no
// primary email that have not already been contacted. Items are deduplicated
// by domain (falling back to URL host, then the raw URL) with the first
// occurrence winning, then truncated to limit when positive.
func BuildItems(prospects []model.Prospect, limit int) []model.CrawlItem {
	seen := make(map[string]bool, len(prospects))
	var items []model.CrawlItem
	for _, p := range prospects {
		if p.WebsiteURL == "" || p.PrimaryEmail != "" {
			continue
		}
		if strings.EqualFold(p.Status, model.StatusContacted) {
			continue
		}

		key := p.Domain
		if key == "" {
			key = urlnorm.Domain(p.WebsiteURL)
		}
		if key == "" {
			key = p.WebsiteURL
		}
		if seen[key] {
			continue
		}
		seen[key] = true

		items = append(items, model.CrawlItem{URL: p.WebsiteURL, Domain: p.Domain})
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
