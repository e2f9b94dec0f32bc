package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"semcache/internal/adapters/render"
	"semcache/internal/application/commands"
	"semcache/internal/application/querycache"
)

var statsServer string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show query cache statistics",
	Long: `Show the hit, miss and deletion counters of the query cache.

Counters live in the process serving queries. Without --server the
counters of this short-lived process are shown; pass the address of a
running 'semcache-cli serve' to read its counters instead.`,
	Annotations: map[string]string{"sync": "manual"},
	Args:        cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if statsServer == "" {
			snap, err := commands.NewStatsCommand(container.Cache).Execute(cmd.Context())
			if err != nil {
				return err
			}
			return render.Stats(os.Stdout, snap)
		}

		snap, err := fetchStats(cmd, statsServer)
		if err != nil {
			return err
		}
		return render.Stats(os.Stdout, snap)
	},
}

func fetchStats(cmd *cobra.Command, server string) (querycache.StatsSnapshot, error) {
	var snap querycache.StatsSnapshot
	if !strings.Contains(server, "://") {
		server = "http://" + server
	}
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, strings.TrimRight(server, "/")+"/api/stats", nil)
	if err != nil {
		return snap, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return snap, fmt.Errorf("failed to reach %s: %w", server, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return snap, fmt.Errorf("%s answered %s", server, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return snap, fmt.Errorf("failed to decode stats: %w", err)
	}
	return snap, nil
}

func init() {
	statsCmd.Flags().StringVar(&statsServer, "server", "", "address of a running server, e.g. 127.0.0.1:8089")
	rootCmd.AddCommand(statsCmd)
}
