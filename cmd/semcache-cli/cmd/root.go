package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"semcache/internal/application/commands"
	"semcache/internal/config"
	"semcache/internal/di"
)

var (
	configPath string
	wikiPath   string
	noSync     bool
	container  *di.Container
)

var rootCmd = &cobra.Command{
	Use:   "semcache-cli",
	Short: "Query a semantic wiki through a result cache",
	Long: `semcache-cli indexes a directory of wiki pages carrying property
annotations, answers ask queries over them and caches the results.

Results computed for a query embedded in a page are dropped whenever that
page changes.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for help commands
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if wikiPath != "" {
			cfg.Wiki.Path = wikiPath
		}

		container, err = di.New(cfg)
		if err != nil {
			return err
		}
		if noSync || cmd.Annotations["sync"] == "manual" {
			return nil
		}
		return syncIndex(cmd.Context(), false)
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if container == nil {
			return nil
		}
		return container.Close()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if container != nil {
			container.Close()
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file (default $SEMCACHE_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&wikiPath, "wiki", "w", "", "path to the wiki, overrides the config")
	rootCmd.PersistentFlags().BoolVar(&noSync, "no-sync", false, "skip the incremental index sync before running")
}

// syncIndex brings the index up to date and purges cached results of
// changed pages
func syncIndex(ctx context.Context, full bool) error {
	res, err := commands.NewSyncCommand(container.Index, container.Cache, container.Logger, full).Execute(ctx)
	if err != nil {
		return err
	}
	container.Logger.Debug("index synced",
		zap.Bool("full", res.Full),
		zap.Int("added", res.Stats.PagesAdded),
		zap.Int("updated", res.Stats.PagesUpdated),
		zap.Int("deleted", res.Stats.PagesDeleted),
	)
	return nil
}
