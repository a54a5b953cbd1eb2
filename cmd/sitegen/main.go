package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/version"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"site.yaml"`
	Verbose int    `short:"v" type:"counter" help:"Increase logging verbosity (repeatable)"`

	Build struct{} `cmd:"" help:"Generate the site once"`

	Serve struct {
		Port int `short:"p" help:"Override the configured port"`
	} `cmd:"" help:"Serve the site and rebuild on content changes"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`

	Version struct{} `cmd:"" help:"Print version information"`
}

func main() {
	ctx := kong.Parse(&CLI)

	setupLogging(CLI.Verbose)
	adapter := errors.NewCLIErrorAdapter(CLI.Verbose > 0, slog.Default())

	var err error
	switch ctx.Command() {
	case "build":
		err = runBuild()
	case "serve":
		err = runServe()
	case "init":
		err = config.Init(CLI.Config, CLI.Init.Force)
	case "version":
		fmt.Printf("%s %s\n", version.Name, version.Version)
	}

	if err != nil {
		os.Exit(adapter.Report(err))
	}
}

// setupLogging maps -v occurrences onto slog levels: warn by default, then
// info, debug, and debug with source positions.
func setupLogging(verbosity int) {
	opts := &slog.HandlerOptions{}
	switch {
	case verbosity <= 0:
		opts.Level = slog.LevelWarn
	case verbosity == 1:
		opts.Level = slog.LevelInfo
	case verbosity == 2:
		opts.Level = slog.LevelDebug
	default:
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, opts)))
}

// signalContext cancels on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
