package discovery

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospector-cli/internal/config"
	"github.com/sells-group/prospector-cli/internal/model"
	"github.com/sells-group/prospector-cli/internal/urlnorm"
	"github.com/sells-group/prospector-cli/pkg/serper"
)

// Discoverer runs keyword searches and emits one candidate per new domain.
type Discoverer struct {
	search serper.Client
	cfg    config.DiscoveryConfig
}

// NewDiscoverer creates a Discoverer with the given search client.
func NewDiscoverer(search serper.Client, cfg config.DiscoveryConfig) *Discoverer {
	return &Discoverer{search: search, cfg: cfg}
}

// Run expands the keyword packs into queries, searches each one, and returns
// domain-unique candidates in first-seen order. Links that do not normalize
// to a URL with a host are skipped; a failed search aborts the run.
func (d *Discoverer) Run(ctx context.Context, packs []Pack) ([]model.Candidate, error) {
	log := zap.L().With(zap.String("phase", "discovery"))

	queries := ExpandQueries(packs)
	if len(queries) == 0 {
		return nil, eris.New("discovery: no enabled queries in keyword packs")
	}

	perQuery := d.cfg.ResultsPerQuery
	if perQuery <= 0 {
		perQuery = 10
	}

	seen := make(map[string]bool)
	var candidates []model.Candidate

	for _, q := range queries {
		results, err := d.search.Search(ctx, q.Text, perQuery)
		if err != nil {
			return nil, eris.Wrapf(err, "discovery: search %q", q.Text)
		}

		added := 0
		for _, r := range results {
			url := urlnorm.Normalize(r.Link)
			if url == "" {
				continue
			}
			domain := urlnorm.Domain(url)
			if domain == "" || seen[domain] {
				continue
			}
			seen[domain] = true
			added++
			candidates = append(candidates, model.Candidate{
				URL:           url,
				Domain:        domain,
				SourceKeyword: q.Keyword,
				Query:         q.Text,
				Pack:          q.Pack,
			})
		}

		log.Debug("query searched",
			zap.String("query", q.Text),
			zap.Int("results", len(results)),
			zap.Int("new_domains", added),
		)
	}

	log.Info("discovery complete",
		zap.Int("queries", len(queries)),
		zap.Int("candidates", len(candidates)),
	)
	return candidates, nil
}
