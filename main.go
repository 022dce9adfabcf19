// Copyright (c) 2025 Ben Averill
// SPDX-License-Identifier: AGPL-3.0-or-later

// atomchat - a terminal chat client for hosted language models.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/averill/atomchat/internal/atoms"
	"github.com/averill/atomchat/internal/chat"
	"github.com/averill/atomchat/internal/cli"
	"github.com/averill/atomchat/internal/completion"
	"github.com/averill/atomchat/internal/config"
	"github.com/averill/atomchat/internal/storage"
	"github.com/averill/atomchat/internal/ui"
	"github.com/averill/atomchat/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", "", "config file path (default: ~/.atomchat/config.toml)")
		lineMode    = flag.Bool("repl", false, "run the line-mode interface instead of the full-screen UI")
		quiet       = flag.Bool("quiet", false, "suppress the welcome banner in line mode")
		theme       = flag.String("theme", "", "color theme: "+strings.Join(styles.ValidThemes(), ", ")+" (overrides config)")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("atomchat %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	cfg := loadConfig(*configPath)
	cfg.ApplyEnvOverrides()
	if *theme != "" {
		cfg.UI.Theme = *theme
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "atomchat: invalid configuration: %v\n", err)
		os.Exit(1)
	}

	styles.ApplyTheme(cfg.UI.Theme)
	setupLogging()

	store, err := storage.OpenDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "atomchat: cannot open storage: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	prefs := config.NewPrefs(store, cfg)
	orch := chat.New(store, prefs)

	snap := prefs.Snapshot()
	var completer atoms.Completer
	if snap.APIKey != "" {
		completer = completion.New(snap.APIURL, snap.APIKey)
	}
	atomSvc := atoms.NewService(cfg.Search, completer)

	if w := watchConfig(*configPath, prefs); w != nil {
		defer w.Close()
	}

	if *lineMode || !cli.IsTTY() {
		repl := cli.NewREPL(orch, atomSvc, *quiet)
		if err := repl.Run(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "atomchat: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := ui.Run(orch, atomSvc); err != nil {
		fmt.Fprintf(os.Stderr, "atomchat: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file, falling back to defaults when it is
// absent or unreadable. A broken config file should not lock the user
// out of their conversations.
func loadConfig(path string) *config.Config {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFromPath(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "atomchat: using defaults, config unreadable: %v\n", err)
		return config.Default()
	}
	return cfg
}

// setupLogging sends the standard logger to a file under the config
// directory. Log lines on stdout or stderr would corrupt the
// full-screen UI.
func setupLogging() {
	dir, err := config.Dir()
	if err != nil {
		log.SetOutput(io.Discard)
		return
	}
	if _, err := tea.LogToFile(filepath.Join(dir, "debug.log"), "atomchat"); err != nil {
		log.SetOutput(io.Discard)
	}
}

// watchConfig reloads file-config defaults when config.toml changes on
// disk. Preference overrides stored in the database keep winning.
func watchConfig(path string, prefs *config.Prefs) *config.Watcher {
	if path == "" {
		var err error
		path, err = config.Path()
		if err != nil {
			return nil
		}
	}
	w, err := config.WatchPath(path, func(cfg *config.Config, err error) {
		if err != nil {
			log.Printf("config reload failed: %v", err)
			return
		}
		cfg.ApplyEnvOverrides()
		if err := cfg.Validate(); err != nil {
			log.Printf("config reload rejected: %v", err)
			return
		}
		prefs.SetDefaults(cfg)
		log.Printf("config reloaded from %s", path)
	})
	if err != nil {
		log.Printf("config watch unavailable: %v", err)
		return nil
	}
	return w
}
