package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <ticker-or-cik>...",
	Short: "Resolve tickers or raw CIKs to 10-digit CIKs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initPipeline(ctx, cfg, "resolve")
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		var failed int
		for _, input := range args {
			id, err := env.Client.Resolve(ctx, input)
			if err != nil {
				failed++
				zap.L().Error("resolve failed", zap.String("input", input), zap.Error(err))
				continue
			}
			fmt.Fprintf(out, "%s\t%s\t%s\n", input, id.CIK, id.DisplayName)
		}
		if failed > 0 {
			return eris.Errorf("resolve: %d of %d input(s) failed", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}
