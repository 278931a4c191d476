package main

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/prospector-cli/internal/crawl"
	"github.com/sells-group/prospector-cli/internal/outreach"
	"github.com/sells-group/prospector-cli/internal/pipeline"
	"github.com/sells-group/prospector-cli/internal/store"
	"github.com/sells-group/prospector-cli/pkg/serper"
)

var queueDryRun bool

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Build the outreach queue and mark records contacted",
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

		prospects, err := store.ReadProspects(ctx, st, cfg.Store.ProspectsTable)
		if err != nil {
			return eris.Wrap(err, "read prospects")
		}

		q := outreach.Build(prospects, outreach.Suppressed(prospects), cfg.Outreach.SendLimit, time.Now())
		for _, item := range q.Items {
			cmd.Printf("%s\t%s\t%s\n", item.Email, item.Prospect.CompanyName, item.Prospect.WebsiteURL)
		}

		if queueDryRun {
			zap.L().Info("dry run, nothing written", zap.Int("queued", len(q.Items)))
			return nil
		}

		search := serper.NewClient(cfg.Serper.Key, serper.WithBaseURL(cfg.Serper.BaseURL))
		p := pipeline.New(cfg, st, search, crawl.NewFetcher(cfg.Crawl))

		written, err := p.WriteContactUpdates(ctx, q.Updates)
		if err != nil {
			return err
		}
		zap.L().Info("queue built",
			zap.Int("queued", len(q.Items)),
			zap.Int("records_marked", written),
		)
		return nil
	},
}

func init() {
	queueCmd.Flags().BoolVar(&queueDryRun, "dry-run", false, "print the queue without marking records contacted")
	rootCmd.AddCommand(queueCmd)
}
