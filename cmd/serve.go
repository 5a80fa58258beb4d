package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lomakinroman97/code-fixer-agent-mcp-service/pkg/wire"
)

var (
	httpHost string
	httpPort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long:  `The serve command exposes POST /api/fix, GET /health and GET /metrics until it receives SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log := newLogger(cmd, cfg, false)

		app, cleanup, err := wire.InitializeApp(cfg, log)
		if err != nil {
			printTroubleshooting(cmd.ErrOrStderr(), err)
			return err
		}
		defer cleanup()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Info().
			Str("version", getVersion()).
			Str("root", cfg.RootDir).
			Str("addr", cfg.HTTPAddr()).
			Bool("metrics", cfg.MetricsEnabled).
			Msg("Starting code fixer")

		if err := app.HTTP.Serve(ctx); err != nil {
			log.Error().Err(err).Msg("Server failed")
			return err
		}
		log.Info().Msg("Shutdown complete")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&httpHost, "host", "", "Listen host (overrides CODEFIXER_HTTP_HOST)")
	serveCmd.Flags().IntVarP(&httpPort, "port", "p", 0, "Listen port (overrides CODEFIXER_HTTP_PORT)")
	rootCmd.AddCommand(serveCmd)
}
