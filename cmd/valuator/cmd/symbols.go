package cmd

import (
	"fmt"
	"strconv"

	"github.com/aristath/valuator/internal/config"
	"github.com/spf13/cobra"
)

func newSymbolsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "symbols",
		Short: "Print the configured universe in export order",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := root.load(cmd, nil)
			if err != nil {
				return err
			}

			symbols, err := config.LoadSymbols(cfg.SymbolsFile)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, s := range symbols {
				fmt.Fprintf(out, "%-10s %-6s %s\n", s.Symbol, strconv.FormatFloat(s.StdMultiplier, 'f', -1, 64), s.Name)
			}
			return nil
		},
	}
}
