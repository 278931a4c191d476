package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/prospector-cli/internal/store"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the prospects and runs tables",
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

		header, err := st.Header(ctx, cfg.Store.ProspectsTable)
		if err != nil {
			return eris.Wrap(err, "read prospects header")
		}
		if err := store.ValidateProspectHeader(header); err != nil {
			return err
		}

		zap.L().Info("store initialized", zap.String("driver", cfg.Store.Driver))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
