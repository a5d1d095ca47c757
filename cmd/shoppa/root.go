package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"shoppa-backend/internal/shared/config"
	"shoppa-backend/internal/shared/telemetry"
)

type options struct {
	catalogFile string
	verbose     bool
	cfg         config.Config
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "shoppa",
		Short:         "Shoppa! smartphone recommendation pipeline",
		Long:          `Run the query analyzer, catalog pre-filter and recommendation generator without the HTTP server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			opts.cfg = config.Load()
			if opts.catalogFile != "" {
				opts.cfg.CatalogFile = opts.catalogFile
			}
			level := opts.cfg.LogLevel
			if !opts.verbose {
				level = "error"
			}
			telemetry.Configure(level, "console")
			return nil
		},
	}
	root.PersistentFlags().StringVar(&opts.catalogFile, "catalog", "", "catalog YAML file (defaults to the embedded catalog)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable log output")

	root.AddCommand(
		newAnalyzeCmd(opts),
		newFilterCmd(opts),
		newRecommendCmd(opts),
		newCatalogCmd(opts),
	)
	return root
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
