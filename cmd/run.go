package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/prospector-cli/internal/crawl"
	"github.com/sells-group/prospector-cli/internal/pipeline"
	"github.com/sells-group/prospector-cli/pkg/serper"
)

var (
	runDryRun     bool
	runCrawlLimit int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full discover, crawl, and queue pipeline",
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

		sum, err := p.Run(ctx, pipeline.Options{
			DryRun:     runDryRun,
			CrawlLimit: runCrawlLimit,
		})
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		zap.L().Info("run complete",
			zap.String("run_id", sum.RunID),
			zap.Int("urls_seeded", sum.URLsSeeded),
			zap.Int("emails_queued", sum.EmailsSent),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sum)
	},
}

func init() {
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "compute everything but write nothing")
	runCmd.Flags().IntVar(&runCrawlLimit, "limit", 0, "max sites to fetch this run (0 = configured limit)")
	rootCmd.AddCommand(runCmd)
}
