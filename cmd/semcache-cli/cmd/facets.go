package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"semcache/internal/adapters/render"
	"semcache/internal/application/commands"
	"semcache/internal/domain"
)

var facetsLimit int

var facetsCmd = &cobra.Command{
	Use:   "facets <conditions>",
	Short: "Count the properties and categories of a query's subjects",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := commands.QueryRequest{
			Conditions: args[0],
			Limit:      facetsLimit,
			Source:     domain.ContextCLI,
			Facets:     true,
		}
		res, err := commands.NewQueryCommand(container.Cache, container.Data, container.Logger, req).
			Execute(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Facets over %d subject(s)\n", len(res.Rows))
		return render.Facets(os.Stdout, res.Facets)
	},
}

func init() {
	facetsCmd.Flags().IntVarP(&facetsLimit, "limit", "l", commands.MaxLimit, "maximum subjects to count over")
	rootCmd.AddCommand(facetsCmd)
}
