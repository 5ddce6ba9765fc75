package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"retailbench/internal/config"
	"retailbench/internal/wdcconvert"
)

func newConvertWDCCommand(root *rootOptions) *cobra.Command {
	var input, output string

	cmd := &cobra.Command{
		Use:   "convert-wdc",
		Short: "Convert WDC Products JSON files into the wdc adapter's CSV layout",
		Long: `convert-wdc walks --input for *.json and *.json.gz files and writes one
directory per file under --output, named after the file stem, holding
offers.csv plus pairs.csv (pairwise variants) or offer_to_entity.csv
(multi-class variants). CSVs are appended to when they already exist.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(root.ConfigPath)
			if err != nil {
				return err
			}
			log, err := root.newLogger(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer func() { _ = log.Sync() }()

			res, err := wdcconvert.Convert(cmd.Context(), input, output, wdcconvert.Options{Logger: log})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "converted %d file(s): offers=%d pairs=%d links=%d\n",
				res.Files, res.Offers, res.Pairs, res.Links)
			for _, d := range res.Dirs {
				fmt.Fprintln(cmd.OutOrStdout(), "  "+d)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "directory holding the raw JSON files")
	cmd.Flags().StringVar(&output, "output", "", "base directory for the converted variants")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}
