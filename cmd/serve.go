package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kilianp07/compstation/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Answer evaluation requests over MQTT",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			return a.Serve(ctx)
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
