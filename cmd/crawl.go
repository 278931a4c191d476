package main

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/prospector-cli/internal/crawl"
	"github.com/sells-group/prospector-cli/internal/enrich"
	"github.com/sells-group/prospector-cli/internal/model"
	"github.com/sells-group/prospector-cli/internal/pipeline"
	"github.com/sells-group/prospector-cli/internal/store"
	"github.com/sells-group/prospector-cli/pkg/serper"
)

var (
	crawlLimit  int
	crawlDryRun bool
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Fetch prospect sites and enrich their records",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		search := serper.NewClient(cfg.Serper.Key, serper.WithBaseURL(cfg.Serper.BaseURL))
		p := pipeline.New(cfg, st, search, crawl.NewFetcher(cfg.Crawl))

		prospects, err := store.ReadProspects(ctx, st, cfg.Store.ProspectsTable)
		if err != nil {
			return eris.Wrap(err, "read prospects")
		}

		var sum model.RunSummary
		results := p.Crawl(ctx, prospects, crawlLimit, &sum)
		patches := enrich.BuildPatches(prospects, results, time.Now())

		if crawlDryRun {
			for _, patch := range patches {
				cmd.Printf("%s\t%s\t%s\n", patch.WebsiteURL, patch.CompanyName, patch.PrimaryEmail)
			}
			zap.L().Info("dry run, nothing written", zap.Int("patches", len(patches)))
			return nil
		}

		written, err := p.WritePatches(ctx, patches)
		if err != nil {
			return err
		}
		zap.L().Info("crawl complete",
			zap.Int("fetched", sum.SitesScraped),
			zap.Int("errors", sum.Errors),
			zap.Int("written", written),
		)
		return nil
	},
}

func init() {
	crawlCmd.Flags().IntVar(&crawlLimit, "limit", 0, "max sites to fetch (0 = configured limit)")
	crawlCmd.Flags().BoolVar(&crawlDryRun, "dry-run", false, "print patches instead of writing them")
	rootCmd.AddCommand(crawlCmd)
}
