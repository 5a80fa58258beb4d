package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lomakinroman97/code-fixer-agent-mcp-service/pkg/wire"
)

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test the completion provider connection",
	Long:  `The test command sends a minimal completion with the configured credentials and reports whether the provider answered.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log := newLogger(cmd, cfg, true)

		app, cleanup, err := wire.InitializeApp(cfg, log)
		if err != nil {
			printTroubleshooting(cmd.ErrOrStderr(), err)
			return err
		}
		defer cleanup()

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout.Duration)
		defer cancel()
		if err := app.Client.Ping(ctx); err != nil {
			printTroubleshooting(cmd.ErrOrStderr(), err)
			return fmt.Errorf("error testing completion provider connection: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Completion provider at %s is reachable (model %s)\n", cfg.BaseURL, cfg.ModelURI)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(testCmd)
}
