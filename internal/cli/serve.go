package cli

import (
	"github.com/spf13/cobra"

	"github.com/gokatarajesh/livequiz/internal/app"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig(ctx, opts)
			if err != nil {
				return err
			}

			instance, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			return instance.Run(ctx)
		},
	}
}
