// Package pipeline orchestrates the discover, crawl, enrich, and outreach
// phases over a shared prospect store.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospector-cli/internal/config"
	"github.com/sells-group/prospector-cli/internal/crawl"
	"github.com/sells-group/prospector-cli/internal/discovery"
	"github.com/sells-group/prospector-cli/internal/enrich"
	"github.com/sells-group/prospector-cli/internal/model"
	"github.com/sells-group/prospector-cli/internal/outreach"
	"github.com/sells-group/prospector-cli/internal/store"
	"github.com/sells-group/prospector-cli/internal/urlnorm"
	"github.com/sells-group/prospector-cli/pkg/serper"
)

// Fetcher retrieves and extracts one page. Satisfied by crawl.Fetcher.
type Fetcher interface {
	Fetch(ctx context.Context, url string) model.FetchResult
}

// Options tune a single pipeline invocation.
type Options struct {
	// DryRun computes everything but skips all store writes.
	DryRun bool
	// CrawlLimit overrides the configured fetch cap when positive.
	CrawlLimit int
}

// Pipeline wires the run phases to their dependencies.
type Pipeline struct {
	cfg     *config.Config
	store   store.Store
	search  serper.Client
	fetcher Fetcher
}

// New creates a Pipeline with all dependencies.
func New(cfg *config.Config, st store.Store, search serper.Client, fetcher Fetcher) *Pipeline {
	return &Pipeline{cfg: cfg, store: st, search: search, fetcher: fetcher}
}

// Run executes discovery, crawl, enrichment, and outreach queueing as one
// run. A summary row is appended to the runs table even when a phase fails,
// unless the run is dry.
func (p *Pipeline) Run(ctx context.Context, opts Options) (model.RunSummary, error) {
	sum := model.RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: model.ISO8601(time.Now()),
	}
	log := zap.L().With(zap.String("run_id", sum.RunID))
	log.Info("run starting", zap.Bool("dry_run", opts.DryRun))

	err := p.run(ctx, opts, &sum)
	if err != nil {
		sum.Errors++
		if sum.TopError == "" {
			sum.TopError = err.Error()
		}
	}
	sum.FinishedAt = model.ISO8601(time.Now())

	if !opts.DryRun {
		if logErr := store.AppendRunSummary(ctx, p.store, p.cfg.Store.RunsTable, sum); logErr != nil {
			log.Warn("run log append failed", zap.Error(logErr))
		}
	}

	log.Info("run finished",
		zap.Int("urls_seeded", sum.URLsSeeded),
		zap.Int("sites_scraped", sum.SitesScraped),
		zap.Int("enriched", sum.Enriched),
		zap.Int("written", sum.Written),
		zap.Int("emails_queued", sum.EmailsSent),
		zap.Int("errors", sum.Errors),
	)
	return sum, err
}

func (p *Pipeline) run(ctx context.Context, opts Options, sum *model.RunSummary) error {
	header, err := p.store.Header(ctx, p.cfg.Store.ProspectsTable)
	if err != nil {
		return eris.Wrap(err, "pipeline: read prospects header")
	}
	if err := store.ValidateProspectHeader(header); err != nil {
		return err
	}

	candidates, err := p.Discover(ctx)
	if err != nil {
		return err
	}
	sum.URLsSeeded = len(candidates)

	if !opts.DryRun {
		n, err := p.WriteCandidates(ctx, candidates)
		if err != nil {
			return err
		}
		sum.Written += n
	}

	prospects, err := store.ReadProspects(ctx, p.store, p.cfg.Store.ProspectsTable)
	if err != nil {
		return eris.Wrap(err, "pipeline: read prospects")
	}

	results := p.Crawl(ctx, prospects, opts.CrawlLimit, sum)

	patches := enrich.BuildPatches(prospects, results, time.Now())
	sum.Enriched = len(patches)

	if !opts.DryRun {
		n, err := p.WritePatches(ctx, patches)
		if err != nil {
			return err
		}
		sum.Written += n

		// Outreach reads the enriched state, not the pre-crawl snapshot.
		prospects, err = store.ReadProspects(ctx, p.store, p.cfg.Store.ProspectsTable)
		if err != nil {
			return eris.Wrap(err, "pipeline: reread prospects")
		}
	}

	queue := outreach.Build(prospects, outreach.Suppressed(prospects), p.cfg.Outreach.SendLimit, time.Now())
	sum.EmailsSent = len(queue.Items)

	if !opts.DryRun {
		n, err := p.WriteContactUpdates(ctx, queue.Updates)
		if err != nil {
			return err
		}
		sum.Written += n
	}
	return nil
}

// Discover loads the keyword packs and runs the search phase.
func (p *Pipeline) Discover(ctx context.Context) ([]model.Candidate, error) {
	packs, err := discovery.LoadPacks(p.cfg.Discovery.KeywordsPath)
	if err != nil {
		return nil, err
	}
	return discovery.NewDiscoverer(p.search, p.cfg.Discovery).Run(ctx, packs)
}

// WriteCandidates upserts discovered candidates into the prospects table,
// keyed by domain.
func (p *Pipeline) WriteCandidates(ctx context.Context, candidates []model.Candidate) (int, error) {
	batch := make([]store.UpsertRow, 0, len(candidates))
	for _, c := range candidates {
		batch = append(batch, c.Row())
	}
	n, err := store.UpsertBatch(ctx, p.store, p.cfg.Store.ProspectsTable, model.ColDomain, batch)
	if err != nil {
		return n, eris.Wrap(err, "pipeline: write candidates")
	}
	return n, nil
}

// Crawl fetches the records that still need contact details. Fetch failures
// are recorded in the summary, never returned.
func (p *Pipeline) Crawl(ctx context.Context, prospects []model.Prospect, limitOverride int, sum *model.RunSummary) []model.FetchResult {
	limit := p.cfg.Crawl.Limit
	if limitOverride > 0 {
		limit = limitOverride
	}
	items := crawl.BuildItems(prospects, limit)

	results := make([]model.FetchResult, 0, len(items))
	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		res := p.fetcher.Fetch(ctx, item.URL)
		results = append(results, res)
		sum.SitesScraped++
		if res.Error != "" {
			sum.Errors++
			if sum.TopError == "" {
				sum.TopError = res.Error
			}
		}
	}
	return results
}

// WritePatches upserts enrichment patches keyed by website_url, normalizing
// both sides of the key so stored URLs with tracking params still match.
func (p *Pipeline) WritePatches(ctx context.Context, patches []model.Patch) (int, error) {
	batch := make([]store.UpsertRow, 0, len(patches))
	for _, patch := range patches {
		batch = append(batch, patch.Row())
	}
	n, err := store.UpsertBatch(ctx, p.store, p.cfg.Store.ProspectsTable, model.ColWebsiteURL, batch,
		store.WithKeyNormalizer(normalizeURLKey))
	if err != nil {
		return n, eris.Wrap(err, "pipeline: write patches")
	}
	return n, nil
}

// WriteContactUpdates marks queued records contacted. Status and the
// emailed-at fields overwrite; everything else keeps fill-if-blank.
func (p *Pipeline) WriteContactUpdates(ctx context.Context, updates []model.ContactUpdate) (int, error) {
	batch := make([]store.UpsertRow, 0, len(updates))
	for _, u := range updates {
		batch = append(batch, u.Row())
	}
	n, err := store.UpsertBatch(ctx, p.store, p.cfg.Store.ProspectsTable, model.ColWebsiteURL, batch,
		store.WithKeyNormalizer(normalizeURLKey),
		store.WithOverwriteColumns(model.ColStatus, model.ColLastEmailedAt, model.ColEmailedTo))
	if err != nil {
		return n, eris.Wrap(err, "pipeline: write contact updates")
	}
	return n, nil
}

func normalizeURLKey(s string) string {
	return strings.ToLower(urlnorm.Normalize(s))
}
