package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	viewfinder "github.com/menta2k/viewfinder"
	"github.com/menta2k/viewfinder/internal/config"
	"github.com/menta2k/viewfinder/internal/utils"
)

// Options holds flags shared by every command
type Options struct {
	ConfigPath string
	Backend    string
	URL        string
	Model      string
	Quiet      bool
}

var rootOpts Options

var rootCmd = &cobra.Command{
	Use:           "viewfinder",
	Short:         "Outline a region of a camera frame and ask a vision model about it",
	Version:       viewfinder.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetFlags(log.LstdFlags)
		if rootOpts.Quiet {
			log.SetOutput(io.Discard)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootOpts.ConfigPath, "config", "c", "", "config file, .json or .yaml (default: "+config.GetConfigPath()+" when present)")
	rootCmd.PersistentFlags().StringVar(&rootOpts.Backend, "backend", "", "model backend: ollama or llamacpp")
	rootCmd.PersistentFlags().StringVar(&rootOpts.URL, "url", "", "model server URL")
	rootCmd.PersistentFlags().StringVarP(&rootOpts.Model, "model", "m", "", "model name")
	rootCmd.PersistentFlags().BoolVarP(&rootOpts.Quiet, "quiet", "q", false, "suppress log output")
}

// loadConfig resolves file, environment and flag settings, in that order
func loadConfig(opts Options) (*config.Config, error) {
	cfg := config.Default()

	path := opts.ConfigPath
	if path == "" && utils.FileExists(config.GetConfigPath()) {
		path = config.GetConfigPath()
	}
	if path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	cfg.ApplyEnv()

	if opts.Backend != "" {
		cfg.Model.Backend = opts.Backend
	}
	if opts.URL != "" {
		cfg.Model.URL = opts.URL
	}
	if opts.Model != "" {
		cfg.Model.Name = opts.Model
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Execute runs the CLI with a context cancelled by Ctrl+C or SIGTERM
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
