package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"shoppa-backend/internal/analyzer"
	"shoppa-backend/internal/bootstrap"
	"shoppa-backend/internal/catalog"
	"shoppa-backend/internal/prefilter"
	"shoppa-backend/internal/recommend"
	"shoppa-backend/internal/shared/resilience"
)

func newAnalyzeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <query>",
		Short: "Extract what a first query already says and list the missing dimensions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			primary, _, err := bootstrap.BuildProviders(opts.cfg, bootstrap.Overrides{})
			if err != nil {
				return err
			}
			a := analyzer.New(primary.Client, opts.cfg.AnalyzerTimeout)
			analysis, err := a.AnalyzeOrAskAll(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), analysis)
		},
	}
}

func newFilterCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "filter <profile>",
		Short: "Show the catalog candidates a profile would be offered",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := bootstrap.BuildCatalog(opts.cfg)
			if err != nil {
				return err
			}
			devices, err := store.Devices()
			if err != nil {
				return err
			}
			profile := strings.Join(args, " ")
			signals := prefilter.Detect(profile)
			fmt.Fprintf(cmd.OutOrStdout(), "brands=%v budget=%v premium=%v\n", signals.Brands, signals.Budget, signals.Premium)
			return writeDevices(cmd, prefilter.Filter(profile, devices))
		},
	}
}

func newCatalogCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := bootstrap.BuildCatalog(opts.cfg)
			if err != nil {
				return err
			}
			devices, err := store.Devices()
			if err != nil {
				return err
			}
			return writeDevices(cmd, devices)
		},
	}
}

func newRecommendCmd(opts *options) *cobra.Command {
	var rank int
	var ranked bool
	cmd := &cobra.Command{
		Use:   "recommend <profile>",
		Short: "Generate catalog-backed recommendations for a profile",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, err := newGenerator(opts)
			if err != nil {
				return err
			}
			profile := strings.Join(args, " ")
			ctx := cmd.Context()

			switch {
			case rank != 0:
				out, err := gen.GenerateAt(ctx, profile, rank)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			case ranked:
				results, err := gen.GenerateRanked(ctx, profile, func(o recommend.Outcome) {
					if len(o.Results) == 1 {
						fmt.Fprintf(cmd.ErrOrStderr(), "rank %d ready (%s)\n", o.Results[0].Rank, o.Provider)
					}
				})
				if perr := printJSON(cmd.OutOrStdout(), results); perr != nil {
					return perr
				}
				return err
			default:
				out, err := gen.Generate(ctx, profile)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			}
		},
	}
	cmd.Flags().IntVar(&rank, "rank", 0, "generate only this funnel position (1-3)")
	cmd.Flags().BoolVar(&ranked, "ranked", false, "generate the three positions concurrently")
	return cmd
}

func newGenerator(opts *options) (*recommend.Generator, error) {
	store, err := bootstrap.BuildCatalog(opts.cfg)
	if err != nil {
		return nil, err
	}
	primary, fallback, err := bootstrap.BuildProviders(opts.cfg, bootstrap.Overrides{})
	if err != nil {
		return nil, err
	}
	return &recommend.Generator{
		Catalog:  store,
		Primary:  primary,
		Fallback: fallback,
		Breaker:  resilience.NewBreaker(resilience.DefaultBreakerOptions),
	}, nil
}

func writeDevices(cmd *cobra.Command, devices []catalog.Device) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tGAMA")
	for _, d := range devices {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.ID, d.Name(), d.Price, d.Tier)
	}
	return tw.Flush()
}
