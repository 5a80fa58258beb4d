package cmd

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lomakinroman97/code-fixer-agent-mcp-service/pkg/config"
	"github.com/lomakinroman97/code-fixer-agent-mcp-service/pkg/logger"
)

var (
	configFile string
	envFile    string
	rootDir    string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "code-fixer",
	Short: "Fix bugs in source files with a YandexGPT model",
	Long: `code-fixer reads a source file from a fixed root directory, strips comments and
imports to save tokens, and asks a YandexGPT completion model for a corrected
version of the whole file. It runs as an HTTP API, an MCP stdio server or a
one-shot command.`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Path to a .env file (default: ./.env when present)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "root", "r", "", "Directory that file paths are resolved against (overrides CODEFIXER_ROOT_DIR)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: console or json")
}

// loadConfig loads the configuration with the persistent flags applied on top
// and prints troubleshooting hints when the result is unusable.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()
	cfg, err := config.Load(configFile, envFile, func(cfg *config.Config) {
		if flags.Changed("root") {
			cfg.RootDir = rootDir
		}
		if flags.Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if flags.Changed("log-format") {
			cfg.LogFormat = logFormat
		}
		if flags.Changed("host") {
			cfg.HTTPHost = httpHost
		}
		if flags.Changed("port") {
			cfg.HTTPPort = httpPort
		}
	})
	if err != nil {
		printTroubleshooting(cmd.ErrOrStderr(), err)
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the process logger. stderrOnly keeps stdout free for
// protocol traffic or command output.
func newLogger(cmd *cobra.Command, cfg *config.Config, stderrOnly bool) zerolog.Logger {
	if stderrOnly {
		return logger.NewStderr(cfg.LogLevel)
	}
	return logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Stdout: cmd.OutOrStdout(),
		Stderr: cmd.ErrOrStderr(),
	})
}
