package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newIngestCommand() *cobra.Command {
	var (
		country string
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Run one warehouse-to-local-store import batch",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}

			app, err := newApp(cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			orchestrator, err := app.newOrchestrator()
			if err != nil {
				return err
			}

			if limit == 0 {
				limit = cfg.Ingest.DefaultImportLimit
			}

			res, err := orchestrator.Ingest(cmd.Context(), country, limit)
			if res.Count > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d publications, %d family rows\n", res.Count, res.FamilyRows)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&country, "country", "JP", "2-letter country filter")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum rows to fetch (0 = configured default)")
	return cmd
}
