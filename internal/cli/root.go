package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/gokatarajesh/livequiz/internal/config"
)

const defaultEnvFile = "configs/.env"

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

type rootOptions struct {
	envFile string
	addr    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "livequiz",
		Short:         "Live quiz session coordinator over WebSocket",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "dotenv file to load before reading the environment (default "+defaultEnvFile+" outside production)")
	cmd.PersistentFlags().StringVar(&opts.addr, "addr", "", "override HTTP_ADDR")
	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))
	return cmd
}

// loadConfig applies the dotenv file, parses the environment and applies flag overrides.
func loadConfig(ctx context.Context, opts *rootOptions) (*config.App, error) {
	switch {
	case opts.envFile != "":
		if err := godotenv.Load(opts.envFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", opts.envFile, err)
		}
	case os.Getenv("APP_ENV") != "production":
		// a missing default file is fine
		_ = godotenv.Load(defaultEnvFile)
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	if opts.addr != "" {
		cfg.HTTPAddr = opts.addr
	}
	return cfg, nil
}
