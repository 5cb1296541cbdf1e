// Copyright 2025 The fqwb Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main runs the fqwb candidate resolution engine as a msgpack IPC
server or as an interactive debug CLI.

A front end sends the code the user typed and receives the ranked candidates:
dictionary order, optionally widened by fuzzy sound rules, re-ranked by what
the user picked before.

# Usage

Start the server with default settings:

	fqwb

Use a custom data directory, a specific dictionary and debug logging:

	fqwb -data /path/to/dicts -dict wubi -d

Run the CLI for interactive testing:

	fqwb -c

The data directory holds one file per dictionary: <name>.dic or <name>.txt
for text tables, <name>.bin for compiled ones (see cmd/fqwb-dicgen).

# Configuration

The config file (config.toml under the user config dir unless -config is
given) is created with defaults on first run:

	fuzzy_sound_enabled = false
	history_enabled = true

	[hotkeys]
	clear-input = "Esc"
	toggle-language = "Ctrl+Shift"
	page-up = "-"
	page-down = "="

	[history]
	backend = "file"

Changes made over IPC or in the CLI are written back only on config_save or
:save.

# Command Line Flags

	-data string
	    Directory containing dictionary files (default from config, "data")
	-config string
	    Config file path, .toml or .yaml
	-dict string
	    Dictionary to activate at startup
	-c  Run the CLI instead of the IPC server
	-d  Enable debug logging
	-watch
	    Reload the active dictionary when its file changes
	-reset-config
	    Overwrite the config file with defaults
	-version
	    Show current version
*/
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/bastiangx/fqwb/internal/cli"
	"github.com/bastiangx/fqwb/internal/utils"
	"github.com/bastiangx/fqwb/pkg/config"
	"github.com/bastiangx/fqwb/pkg/engine"
	"github.com/bastiangx/fqwb/pkg/server"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const (
	Version = "0.3.0"
	AppName = "fqwb"
	gh      = "https://github.com/bastiangx/fqwb"
)

// surface is a front end that reads input until it ends or is stopped.
type surface interface {
	Start() error
	Stop()
}

// run drives sf until its input ends or SIGINT/SIGTERM arrives. On a signal
// the request in flight completes first; the caller closes the engine after
// run returns.
func run(sf surface) error {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)

	done := make(chan error, 1)
	go func() { done <- sf.Start() }()

	select {
	case err := <-done:
		return err
	case <-sigs:
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		sf.Stop()
		return nil
	}
}

func showVersion() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
		Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	logger.SetStyles(styles)

	logger.Print("")
	logger.Print("[ fqwb ] Chinese input candidates, ranked by what you pick")
	logger.Print("", "version", Version)
	logger.Print("")
	logger.Print("use -h or --help to see available options")
	logger.Print("Github Repo", "gh", gh)
}

// main only wires flags and paths; the engine and its surfaces do the work.
func main() {
	versionFlag := flag.Bool("version", false, "Show current version")
	dataDir := flag.String("data", "", "Directory containing dictionary files (default from config)")
	configFlag := flag.String("config", "", "Config file path (.toml or .yaml)")
	dictName := flag.String("dict", "", "Dictionary to activate at startup")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	watch := flag.Bool("watch", false, "Reload the active dictionary when its file changes")
	resetConfig := flag.Bool("reset-config", false, "Overwrite the config file with defaults")

	flag.Parse()

	if *versionFlag {
		showVersion()
		os.Exit(0)
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	pathResolver, err := utils.NewPathResolver()
	if err != nil {
		log.Fatalf("Failed to initialize path resolver: %v", err)
	}
	if *debugMode {
		info := pathResolver.GetRuntimeInfo()
		keys := make([]string, 0, len(info))
		for k := range info {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			log.Debugf("%s: %s", k, info[k])
		}
	}

	configPath := *configFlag
	if configPath == "" {
		configPath, err = pathResolver.GetConfigPath("config.toml")
		if err != nil {
			log.Fatalf("Failed to determine config path: %v", err)
		}
	}
	log.Debugf("Using config file: %s", utils.GetAbsolutePath(configPath))

	if *resetConfig {
		if err := config.NewStore(configPath).Reset(); err != nil {
			log.Fatalf("Failed to reset config: %v", err)
		}
		log.Infof("Config reset to defaults at %s", configPath)
	} else if !utils.FileExists(configPath) {
		if err := config.SaveFile(config.DefaultConfig(), configPath); err != nil {
			log.Warnf("Could not create default config at %s: %v", configPath, err)
		}
	}

	// data dir and history path depend on the config; the engine reloads it.
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		cfg = config.DefaultConfig()
	}
	wantDataDir := cfg.Dict.DataDir
	if *dataDir != "" {
		wantDataDir = *dataDir
	}
	resolvedDataDir, err := pathResolver.GetDataDir(wantDataDir)
	if err != nil {
		log.Fatalf("Failed to resolve data dir: %v", err)
	}
	log.Debugf("Using data dir at: %s", resolvedDataDir)

	historyPath := cfg.History.Path
	if historyPath == "" {
		historyPath, err = pathResolver.GetStatePath(engine.HistoryFileName(cfg.History.Backend))
		if err != nil {
			log.Warnf("No writable location for history, keeping it in memory: %v", err)
			historyPath = ""
		}
	}

	eng, err := engine.New(engine.Options{
		ConfigPath:  configPath,
		DataDir:     resolvedDataDir,
		Dict:        *dictName,
		HistoryPath: historyPath,
		Watch:       *watch,
	})
	if err != nil {
		log.Fatalf("Failed to start engine: %v", err)
	}

	if *cliMode {
		log.SetReportTimestamp(false)
		err := run(cli.NewInputHandler(eng, os.Stdin, os.Stdout))
		if cerr := eng.Close(); cerr != nil {
			log.Errorf("Flushing history: %v", cerr)
		}
		if err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		return
	}

	showStartupInfo(eng, resolvedDataDir, historyPath)

	err = run(server.NewServer(eng, os.Stdin, os.Stdout))
	if cerr := eng.Close(); cerr != nil {
		log.Errorf("Flushing history: %v", cerr)
	}
	if err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

// showStartupInfo prints the init summary to stderr; stdout carries IPC.
func showStartupInfo(eng *engine.Engine, dataDir, historyPath string) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	log.Infof("%s %s", AppName, Version)
	log.Infof("Process ID: [ %d ]", os.Getpid())
	log.Infof("data dir: ( %s )", dataDir)
	log.Infof("dictionary: %s, available: %v", eng.Dictionaries().ActiveName(), eng.Dictionaries().ListAvailable())
	log.Infof("history: %s (%d records)", historyPath, eng.History().Len())
	log.Info("status: ready")

	log.SetLevel(currentLevel)
}
