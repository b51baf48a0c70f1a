package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/xbrl-fetch/internal/edgar"
	"github.com/sells-group/xbrl-fetch/internal/model"
)

var (
	companiesURL  string
	companiesOut  string
	companiesSort bool
)

var companiesCmd = &cobra.Command{
	Use:   "companies [list-file]",
	Short: "Convert a company list into the JSON the batch command reads",
	Long:  "Parses a text company list (CIK, ticker, or name:cik lines, e.g. the SEC cik-lookup-data file) from a local file or --url and writes it as a JSON array.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if (len(args) == 0) == (companiesURL == "") {
			return eris.New("companies: give exactly one of a file argument or --url")
		}

		entries, err := readCompanies(cmd, args)
		if err != nil {
			return err
		}
		if companiesSort {
			edgar.SortByName(entries)
		}

		if companiesOut == "" {
			return edgar.WriteCompaniesJSON(cmd.OutOrStdout(), entries)
		}
		return writeCompaniesFile(companiesOut, entries)
	},
}

func init() {
	companiesCmd.Flags().StringVar(&companiesURL, "url", "", "fetch the list from this URL instead of a file")
	companiesCmd.Flags().StringVarP(&companiesOut, "out", "o", "", "write JSON to this file instead of stdout")
	companiesCmd.Flags().BoolVar(&companiesSort, "sort", false, "sort companies by name")
	rootCmd.AddCommand(companiesCmd)
}

func readCompanies(cmd *cobra.Command, args []string) ([]model.CompanyEntry, error) {
	if len(args) == 1 {
		return edgar.LoadCompanies(args[0])
	}

	env, err := initPipeline(cmd.Context(), cfg, "resolve")
	if err != nil {
		return nil, err
	}
	body, err := env.Fetcher.Get(cmd.Context(), companiesURL)
	if err != nil {
		return nil, eris.Wrapf(err, "companies: fetch %s", companiesURL)
	}
	return edgar.DecodeCompanies(body)
}

func writeCompaniesFile(path string, entries []model.CompanyEntry) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "companies: create %s", path)
	}
	if err := edgar.WriteCompaniesJSON(f, entries); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "companies: close %s", path)
	}
	zap.L().Info("wrote companies", zap.String("path", path), zap.Int("count", len(entries)))
	return nil
}
