package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"semcache/internal/adapters/editor"
	"semcache/internal/adapters/obsidian"
	"semcache/internal/adapters/tui"
	"semcache/internal/adapters/tui/views"
	"semcache/internal/application/commands"
	"semcache/internal/config"
	"semcache/internal/di"
	"semcache/internal/domain"
)

func main() {
	configFlag := flag.String("config", "", "path to a YAML config file")
	wikiFlag := flag.String("wiki", "", "path to the wiki, overrides the config")
	contextFlag := flag.String("context", "", "page the initial query is embedded in")
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *wikiFlag != "" {
		cfg.Wiki.Path = *wikiFlag
	}
	// the screen belongs to the TUI
	if cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(os.TempDir(), "semcache-tui.log")
	}

	if err := run(cfg, flag.Arg(0), *contextFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, conditions, contextPage string) error {
	c, err := di.New(cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	if _, err := commands.NewSyncCommand(c.Index, c.Cache, c.Logger, false).Execute(context.Background()); err != nil {
		return err
	}

	svc := views.Services{
		Cache:  c.Cache,
		Data:   c.Data,
		Index:  c.Index,
		Logger: c.Logger.Named("tui"),
	}
	initial := commands.QueryRequest{
		Conditions: conditions,
		Context:    contextPage,
		Limit:      domain.DefaultLimit,
		Source:     domain.ContextTUI,
		Facets:     true,
	}

	app := tui.NewApp(svc, editor.NewOpener(cfg.Editor), initial)
	if cfg.Obsidian.Enabled {
		app.WithViewer(obsidian.NewOpener(c.Index.WikiPath(), cfg.Obsidian.Vault))
	}
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
