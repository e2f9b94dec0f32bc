package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"semcache/internal/application/commands"
)

var invalidateReason string

var invalidateCmd = &cobra.Command{
	Use:   "invalidate <page>...",
	Short: "Drop cached results embedded in the given pages",
	Long: `Drop every cached result computed for a query embedded in one of the
given pages.

Examples:
  semcache-cli invalidate France
  semcache-cli invalidate "Category:City" "Paris#census 2020"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := commands.NewInvalidateCommand(container.Cache, args, invalidateReason).Execute(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(res.Message)
		return nil
	},
}

func init() {
	invalidateCmd.Flags().StringVar(&invalidateReason, "reason", commands.ReasonManual, "reason recorded in the statistics")
	rootCmd.AddCommand(invalidateCmd)
}
