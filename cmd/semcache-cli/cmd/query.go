package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"semcache/internal/adapters/render"
	"semcache/internal/application/commands"
	"semcache/internal/domain"
)

var queryReq = commands.QueryRequest{Source: domain.ContextCLI}
var queryJSON bool

var queryCmd = &cobra.Command{
	Use:   "query <conditions>",
	Short: "Run an ask query",
	Long: `Run an ask query and print the matching subjects with the requested
printout columns.

Examples:
  semcache-cli query '[[Category:City]]' -p '?Population' --sort Population --order desc
  semcache-cli query '[[Located in::France]]' -p '?Population#-=Inhabitants' --context France
  semcache-cli query '[[Category:City]]' --limit 0`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := queryReq
		req.Conditions = args[0]

		res, err := commands.NewQueryCommand(container.Cache, container.Data, container.Logger, req).
			Execute(cmd.Context())
		if err != nil {
			return err
		}

		if queryJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}

		if err := render.Result(os.Stdout, res); err != nil {
			return err
		}
		if len(res.Facets) > 0 {
			if err := render.Facets(os.Stdout, res.Facets); err != nil {
				return err
			}
		}
		if len(res.Dependencies) > 0 {
			fmt.Printf("\ndepends on %d subject(s):\n", len(res.Dependencies))
			for _, id := range res.Dependencies {
				fmt.Printf("  %s\n", id)
			}
		}
		return nil
	},
}

func init() {
	f := queryCmd.Flags()
	f.StringArrayVarP(&queryReq.Printouts, "print", "p", nil, "printout column, repeatable (e.g. '?Population|+limit=1')")
	f.IntVarP(&queryReq.Limit, "limit", "l", domain.DefaultLimit, "maximum rows; 0 only counts")
	f.IntVar(&queryReq.Offset, "offset", 0, "rows to skip")
	f.StringVar(&queryReq.Sort, "sort", "", "comma-separated sort properties")
	f.StringVar(&queryReq.Order, "order", "", "comma-separated asc/desc, paired with --sort")
	f.StringVar(&queryReq.Context, "context", "", "page the query is embedded in")
	f.BoolVar(&queryReq.NoCache, "no-cache", false, "bypass the result cache")
	f.BoolVar(&queryReq.Facets, "facets", false, "count properties and categories of the result")
	f.BoolVar(&queryReq.Journal, "deps", false, "list the subjects the printed values depend on")
	f.StringSliceVar(&queryReq.Highlight, "highlight", nil, "terms to mark in text values")
	f.BoolVar(&queryJSON, "json", false, "print the result as JSON")

	rootCmd.AddCommand(queryCmd)
}
