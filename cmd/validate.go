package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/xbrl-fetch/internal/xbrl"
)

var (
	validateFields []string
	validateStrict bool
)

var validateCmd = &cobra.Command{
	Use:   "validate <instance-file>",
	Short: "Report identified elements missing contextRef, decimals, or unitRef",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return eris.Wrapf(err, "validate: open %s", args[0])
		}
		defer f.Close() //nolint:errcheck

		issues, err := xbrl.Validate(f, validateFields)
		if err != nil {
			return eris.Wrapf(err, "validate: parse %s", args[0])
		}

		out := cmd.OutOrStdout()
		for _, is := range issues {
			fmt.Fprintf(out, "%s\t%s\tmissing %s\n", is.ElementID, is.Element, strings.Join(is.MissingFields, ", "))
		}
		fmt.Fprintf(out, "%d issue(s) in %s\n", len(issues), args[0])

		if validateStrict && len(issues) > 0 {
			return eris.Errorf("validate: %d issue(s)", len(issues))
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().StringSliceVar(&validateFields, "fields", xbrl.DefaultRequiredAttrs, "attributes every identified element must carry")
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "exit non-zero when issues are found")
	rootCmd.AddCommand(validateCmd)
}
