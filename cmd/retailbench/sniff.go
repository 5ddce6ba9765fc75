package main

import (
	"fmt"
	"io"
	"slices"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"retailbench/internal/adapter"
	"retailbench/internal/columns"
	"retailbench/internal/probe"
)

func newSniffCommand(_ *rootOptions) *cobra.Command {
	var (
		rules    string
		maxBytes int
		rows     int
	)

	cmd := &cobra.Command{
		Use:   "sniff <file>",
		Short: "Show how a source file parses and which columns the adapters would use",
		Long: `sniff samples the start of a file (gzip aware) and prints its format,
delimiter, header, columns with inferred types and a few rows. With --rules it
also prints the column each role of that rule set resolves to. Parquet files
are read through their schema instead of sampled.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rs columns.RuleSet
			if rules != "" {
				var ok bool
				if rs, ok = adapter.RuleSets[rules]; !ok {
					return fmt.Errorf("unknown rule set %q (one of %s)", rules, strings.Join(ruleSetNames(), ", "))
				}
			}

			rep, err := probe.File(cmd.Context(), args[0], maxBytes, rows)
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), rep, rs)
		},
	}

	cmd.Flags().StringVar(&rules, "rules", "", "rule set to resolve (e.g. esci.products, wdc.offers)")
	cmd.Flags().IntVar(&maxBytes, "bytes", probe.DefaultMaxBytes, "bytes to sample from the start of the file")
	cmd.Flags().IntVar(&rows, "rows", 5, "sample rows to print")

	return cmd
}

func ruleSetNames() []string {
	names := make([]string, 0, len(adapter.RuleSets))
	for n := range adapter.RuleSets {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

func printReport(w io.Writer, rep probe.Report, rs columns.RuleSet) error {
	fmt.Fprintf(w, "file:    %s\n", rep.Path)
	fmt.Fprintf(w, "format:  %s\n", rep.Format)
	if rep.Format == probe.FormatCSV {
		fmt.Fprintf(w, "delim:   %q\n", rep.Delimiter)
		fmt.Fprintf(w, "header:  %t\n", rep.HasHeader)
	}

	fmt.Fprintln(w, "columns:")
	for i, c := range rep.Columns {
		typ := ""
		if i < len(rep.Types) {
			typ = rep.Types[i]
		}
		fmt.Fprintf(w, "  %-32s %s\n", c, typ)
	}

	if rs != nil {
		res := columns.Resolve(rep.Columns, rs)
		fmt.Fprintln(w, "roles:")
		for _, r := range rs {
			col, ok := res.Column(r.Role)
			if !ok {
				col = "-"
			}
			fmt.Fprintf(w, "  %-16s %s\n", r.Role, col)
		}
	}

	if len(rep.Rows) > 0 {
		fmt.Fprintln(w, "rows:")
		for _, rec := range rep.Rows {
			b, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "  %s\n", b)
		}
	}
	return nil
}
