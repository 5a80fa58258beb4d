package cmd

import (
	"context"
	stderrors "errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lomakinroman97/code-fixer-agent-mcp-service/pkg/registrar"
	"github.com/lomakinroman97/code-fixer-agent-mcp-service/pkg/wire"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the fix_code tool over MCP stdio",
	Long:  `The mcp command speaks the Model Context Protocol on stdin/stdout so editor agents can call fix_code. Logs go to stderr.`,
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

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		mcpServer := app.Registrar.NewMCPServer(Version)
		log.Info().Str("root", cfg.RootDir).Msg("Starting MCP stdio server")
		if err := registrar.ServeStdio(ctx, mcpServer, os.Stdin, os.Stdout); err != nil && !stderrors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("MCP server failed")
			return err
		}
		log.Info().Msg("MCP server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
