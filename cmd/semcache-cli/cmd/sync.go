package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"semcache/internal/application/commands"
)

var syncFull bool

var syncCmd = &cobra.Command{
	Use:         "sync",
	Short:       "Re-read the wiki into the index",
	Annotations: map[string]string{"sync": "manual"},
	Args:        cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := commands.NewSyncCommand(container.Index, container.Cache, container.Logger, syncFull).
			Execute(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(res.Message)
		fmt.Printf("Scanned %d file(s), %d triple(s) in %s\n",
			res.Stats.FilesScanned, res.Stats.TriplesAdded, res.Stats.Duration)
		return nil
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncFull, "full", false, "rebuild the index from scratch")
	rootCmd.AddCommand(syncCmd)
}
