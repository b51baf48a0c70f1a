package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/xbrl-fetch/internal/xbrl"
)

var (
	factsTargets []string
	factsFormat  string
)

var factsCmd = &cobra.Command{
	Use:   "facts <instance-file>",
	Short: "Print target us-gaap and dei facts from a downloaded XBRL instance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return eris.Wrapf(err, "facts: open %s", args[0])
		}
		defer f.Close() //nolint:errcheck

		inst, err := xbrl.ParseInstance(f)
		if err != nil {
			return eris.Wrapf(err, "facts: parse %s", args[0])
		}

		targets := factsTargets
		if len(targets) == 0 {
			targets = xbrl.TargetFacts
		}
		return writeFacts(cmd.OutOrStdout(), xbrl.ExtractTargetFacts(inst, targets), factsFormat)
	},
}

func init() {
	factsCmd.Flags().StringSliceVar(&factsTargets, "targets", nil, "fact names to extract (default built-in list)")
	factsCmd.Flags().StringVar(&factsFormat, "format", "text", "output format: text, json, or yaml")
	rootCmd.AddCommand(factsCmd)
}

func writeFacts(w io.Writer, facts []xbrl.ExtractedFact, format string) error {
	if facts == nil {
		facts = []xbrl.ExtractedFact{}
	}
	switch strings.ToLower(format) {
	case "", "text":
		for _, f := range facts {
			line := fmt.Sprintf("%s:%s\t%s\t%s", f.Taxonomy, f.Name, f.Period, f.Value)
			if f.Unit != "" {
				line += "\t" + f.Unit
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return eris.Wrap(err, "facts: write")
			}
		}
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(facts), "facts: encode json")
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(facts); err != nil {
			return eris.Wrap(err, "facts: encode yaml")
		}
		return eris.Wrap(enc.Close(), "facts: close yaml encoder")
	default:
		return eris.Errorf("facts: unknown format %q", format)
	}
}
