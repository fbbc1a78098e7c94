package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jo-hoe/goscore/internal/core"
)

type options struct {
	configPath string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		printError(os.Stderr, "%v", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "goscore",
		Short:         "Serve images from a directory and collect scores for them",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "",
		"path to the YAML config file (default $CONFIG_PATH or ./config.yaml)")

	root.AddCommand(newServeCmd(opts), newReconcileCmd(opts), newClientCmd(opts))
	return root
}

// getConfigPath resolves the flag, then CONFIG_PATH, then config.yaml in the working directory.
// An absent default file yields "" so that the defaults apply.
func getConfigPath(opts *options) (string, error) {
	if opts.configPath != "" {
		return opts.configPath, nil
	}
	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		return configPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	configPath := filepath.Join(cwd, "config.yaml")
	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	return configPath, nil
}

func loadConfig(opts *options) (*core.ServiceConfig, error) {
	configPath, err := getConfigPath(opts)
	if err != nil {
		return nil, err
	}
	config, err := core.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %q: %w", configPath, err)
	}
	setupLogger(config)
	return config, nil
}

func setupLogger(config *core.ServiceConfig) {
	level, _ := config.SlogLevel()
	handlerOptions := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if config.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, handlerOptions)
	} else {
		handler = slog.NewTextHandler(os.Stderr, handlerOptions)
	}
	slog.SetDefault(slog.New(handler))
}
