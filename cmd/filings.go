package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/xbrl-fetch/internal/model"
)

var (
	filingsType  string
	filingsYears []int
)

var filingsCmd = &cobra.Command{
	Use:   "filings <ticker-or-cik>",
	Short: "List a filer's filing index pages for the target years",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initPipeline(ctx, cfg, "resolve")
		if err != nil {
			return err
		}

		id, err := env.Client.Resolve(ctx, args[0])
		if err != nil {
			return err
		}

		filingType := cfg.EDGAR.FilingType
		if cmd.Flags().Changed("type") {
			filingType = filingsType
		}
		years := cfg.EDGAR.Years
		if cmd.Flags().Changed("years") {
			years = filingsYears
		}

		refs, err := env.Client.ListFilings(ctx, id.CIK, filingType, years)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, ref := range refs {
			fmt.Fprintf(out, "%s\t%s\t%s\n", ref.FilingDate.Format(model.FilingDateLayout), ref.FilingType, ref.URL)
		}
		if len(refs) == 0 {
			fmt.Fprintf(out, "no %s filings for %s in %v\n", filingType, id.CIK, years)
		}
		return nil
	},
}

func init() {
	filingsCmd.Flags().StringVar(&filingsType, "type", "10-K", "filing type to list")
	filingsCmd.Flags().IntSliceVar(&filingsYears, "years", nil, "target years (default from config)")
	rootCmd.AddCommand(filingsCmd)
}
