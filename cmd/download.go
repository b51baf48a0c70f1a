package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/xbrl-fetch/internal/pipeline"
)

var downloadDir string

var downloadCmd = &cobra.Command{
	Use:   "download <index-url>",
	Short: "Download the XBRL attachments of one filing index page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if downloadDir != "" {
			cfg.Download.Dir = downloadDir
		}

		ctx := cmd.Context()
		env, err := initPipeline(ctx, cfg, "download")
		if err != nil {
			return err
		}

		fd, err := env.Downloader.DownloadFiling(ctx, args[0], cfg.Download.Dir)
		out := cmd.OutOrStdout()
		for _, res := range fd.Results {
			line := fmt.Sprintf("%s\t%s", res.State, res.LocalPath)
			if res.Error != "" {
				line += "\t" + res.Error
			}
			fmt.Fprintln(out, line)
		}
		fmt.Fprintln(out, pipeline.SummaryLine(*fd))
		if err != nil {
			return err
		}

		if _, failed := fd.Counts(); failed > 0 {
			return eris.Errorf("download: %d attachment(s) failed", failed)
		}
		return nil
	},
}

func init() {
	downloadCmd.Flags().StringVar(&downloadDir, "dir", "", "download root (default download.dir)")
	rootCmd.AddCommand(downloadCmd)
}
