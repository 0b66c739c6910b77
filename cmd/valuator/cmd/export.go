package cmd

import (
	"fmt"

	"github.com/aristath/valuator/internal/config"
	"github.com/spf13/cobra"
)

func newExportCmd(root *rootOptions) *cobra.Command {
	var workbook bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the JSON artifacts from stored valuations",
		Long: `Write one <symbol>_valuation.json per symbol and all_stocks_valuation.json
from the stored snapshots, in symbol list order. Nothing is fetched or computed.

Example:
  valuator export --out docs/data --workbook`,
		RunE: func(cmd *cobra.Command, args []string) error {
			container, _, err := root.wire(cmd, func(cfg *config.Config) {
				if cmd.Flags().Changed("workbook") {
					cfg.WriteWorkbook = workbook
				}
			})
			if err != nil {
				return err
			}
			defer container.Close()

			symbols, err := container.LoadSymbols()
			if err != nil {
				return err
			}

			result, err := container.Exporter.Export(config.SymbolCodes(symbols))
			if err != nil {
				return err
			}

			for _, f := range result.Files {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&workbook, "workbook", false, "also write all_stocks_valuation.xlsx (WRITE_WORKBOOK)")

	return cmd
}
