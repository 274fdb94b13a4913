package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"streetfood-backend/internal/bootstrap"
	"streetfood-backend/internal/llm"
	"streetfood-backend/internal/query"
	"streetfood-backend/internal/recommendations/schema"
	"streetfood-backend/internal/shared/config"
	"streetfood-backend/internal/shared/telemetry"
)

type configLoader func() (config.Config, error)

// rootOptions are shared by every subcommand.
type rootOptions struct {
	load      configLoader
	knowledge string
	offline   bool
	jsonOut   bool
}

type queryFlags struct {
	area   string
	time   string
	pref   string
	budget string
}

func (f queryFlags) raw() query.Raw {
	raw := query.Raw{
		Area:            f.area,
		TimePreference:  f.time,
		FoodPreferences: f.pref,
		BudgetCategory:  f.budget,
	}
	if strings.TrimSpace(raw.TimePreference) == "" {
		raw.TimePreference = string(query.DefaultTime)
	}
	if strings.TrimSpace(raw.BudgetCategory) == "" {
		raw.BudgetCategory = string(query.DefaultBudget)
	}
	return raw
}

func (f *queryFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.area, "area", "a", "", "Delhi area, e.g. \"Karol Bagh\"")
	cmd.Flags().StringVarP(&f.time, "time", "t", string(query.DefaultTime), "Morning, Afternoon, Evening or \"Late Night\"")
	cmd.Flags().StringVarP(&f.pref, "pref", "p", "", "Free-text food preferences")
	cmd.Flags().StringVarP(&f.budget, "budget", "b", string(query.DefaultBudget), "Budget-friendly, Mid-range or Premium")
}

func newRootCmd(load configLoader) *cobra.Command {
	opts := &rootOptions{load: load}
	root := &cobra.Command{
		Use:           "foodguide",
		Short:         "Delhi street food recommendations from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.knowledge, "knowledge", "", "Path to the knowledge document (overrides KNOWLEDGE_PATH)")
	root.PersistentFlags().BoolVar(&opts.offline, "offline", false, "Never call the inference service")
	root.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "Output as JSON")

	root.AddCommand(
		newRecommendCmd(opts),
		newValidateCmd(opts),
		newAreasCmd(opts),
		newAreaCmd(opts),
		newPromptCmd(opts),
	)
	return root
}

func (o *rootOptions) app(cmd *cobra.Command) (*bootstrap.App, error) {
	cfg, err := o.load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.knowledge != "" {
		cfg.KnowledgePath = o.knowledge
	}
	if o.offline {
		cfg.InferenceAPIKey = ""
	}
	cfg.KnowledgeWatch = false
	telemetry.Init(cfg.LogLevel, cfg.LogFormat)
	telemetry.SetOutput(cmd.ErrOrStderr())
	return bootstrap.Build(cfg)
}

func newRecommendCmd(opts *rootOptions) *cobra.Command {
	var flags queryFlags
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend street food for an area",
		Example: `  foodguide recommend --area "Karol Bagh"
  foodguide recommend -a "Lajpat Nagar" -t "Late Night" -p momos -b Budget-friendly --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.app(cmd)
			if err != nil {
				return err
			}
			raw := flags.raw()
			if errs := app.Service.Validate(raw); len(errs) > 0 {
				return errs
			}
			set := app.Service.GetRecommendations(cmd.Context(), raw)
			if opts.jsonOut {
				return writeJSON(cmd.OutOrStdout(), set.ToMap())
			}
			printSet(cmd.OutOrStdout(), set)
			return nil
		},
	}
	flags.bind(cmd)
	return cmd
}

func newValidateCmd(opts *rootOptions) *cobra.Command {
	var flags queryFlags
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a query without calling the inference service",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.app(cmd)
			if err != nil {
				return err
			}
			errs := app.Service.Validate(flags.raw())
			if opts.jsonOut {
				if errs == nil {
					errs = query.ValidationErrors{}
				}
				return writeJSON(cmd.OutOrStdout(), map[string]any{"valid": len(errs) == 0, "errors": errs})
			}
			if len(errs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "valid")
				return nil
			}
			return errs
		},
	}
	flags.bind(cmd)
	return cmd
}

func newAreasCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "areas",
		Aliases: []string{"ls"},
		Short:   "List the areas in the knowledge document",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.app(cmd)
			if err != nil {
				return err
			}
			areas := app.Service.Areas()
			if opts.jsonOut {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"areas": areas})
			}
			for _, a := range areas {
				fmt.Fprintln(cmd.OutOrStdout(), a)
			}
			return nil
		},
	}
}

func newAreaCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "area <name>",
		Short: "Show the foods and timing guidance for one area",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.app(cmd)
			if err != nil {
				return err
			}
			info := app.Service.AreaInfo(strings.TrimSpace(args[0]))
			if opts.jsonOut {
				return writeJSON(cmd.OutOrStdout(), info)
			}
			if info.Error != "" {
				return errors.New(info.Error)
			}
			out := cmd.OutOrStdout()
			if !info.Available {
				fmt.Fprintf(out, "%s is not in the knowledge document\n", info.Area)
				return nil
			}
			fmt.Fprintf(out, "%s\n", info.Area)
			if len(info.FoodOptions) == 0 {
				fmt.Fprintln(out, "  no foods listed")
			}
			for _, f := range info.FoodOptions {
				fmt.Fprintf(out, "  - %s (%s)\n", f.Name, f.Price)
			}
			return nil
		},
	}
}

func newPromptCmd(opts *rootOptions) *cobra.Command {
	var flags queryFlags
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Print the composed inference payload and its cache fingerprint",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.app(cmd)
			if err != nil {
				return err
			}
			doc, err := app.Store.Load()
			if err != nil {
				return err
			}
			q, err := app.Service.Normalizer.Normalize(flags.raw(), doc)
			if err != nil {
				return err
			}
			payload, err := llm.Compose(doc, q)
			if err != nil {
				return err
			}
			if opts.jsonOut {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"fingerprint": llm.Fingerprint(payload),
					"payload":     payload,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# fingerprint %s\n\n%s\n", llm.Fingerprint(payload), payload)
			return nil
		},
	}
	flags.bind(cmd)
	return cmd
}

func printSet(w io.Writer, set schema.RecommendationSet) {
	fmt.Fprintf(w, "%s\n\n", set.Area)
	for i, r := range set.Recommendations {
		fmt.Fprintf(w, "%d. %s [%s]\n", i+1, r.FoodName, r.HygieneRating)
		fmt.Fprintf(w, "   where: %s\n", r.Location)
		fmt.Fprintf(w, "   price: %s\n", r.PriceRange)
		fmt.Fprintf(w, "   crowd: %s\n", r.CrowdInfo)
		fmt.Fprintf(w, "   tip:   %s\n", r.LocalTip)
	}
	if len(set.AlternativeAreas) > 0 {
		fmt.Fprintf(w, "\nAlso try: %s\n", strings.Join(set.AlternativeAreas, ", "))
	}
	if set.LocalContext != "" {
		fmt.Fprintf(w, "\n%s\n", set.LocalContext)
	}
}

func writeJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
