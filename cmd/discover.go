package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/prospector-cli/internal/crawl"
	"github.com/sells-group/prospector-cli/internal/pipeline"
	"github.com/sells-group/prospector-cli/pkg/serper"
)

var discoverDryRun bool

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Search keyword packs and seed new prospects",
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

		candidates, err := p.Discover(ctx)
		if err != nil {
			return eris.Wrap(err, "discover")
		}

		if discoverDryRun {
			for _, c := range candidates {
				cmd.Printf("%s\t%s\t%s\n", c.Domain, c.URL, c.SourceKeyword)
			}
			zap.L().Info("dry run, nothing written", zap.Int("candidates", len(candidates)))
			return nil
		}

		written, err := p.WriteCandidates(ctx, candidates)
		if err != nil {
			return err
		}
		zap.L().Info("discovery complete",
			zap.Int("candidates", len(candidates)),
			zap.Int("written", written),
		)
		return nil
	},
}

func init() {
	discoverCmd.Flags().BoolVar(&discoverDryRun, "dry-run", false, "print candidates instead of writing them")
	rootCmd.AddCommand(discoverCmd)
}
