package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/lomakinroman97/code-fixer-agent-mcp-service/pkg/fixer"
	"github.com/lomakinroman97/code-fixer-agent-mcp-service/pkg/wire"
)

var outputFile string

var fixCmd = &cobra.Command{
	Use:   "fix <file_path> <bug_description>...",
	Short: "Fix one file and print the corrected code",
	Long: `The fix command runs a single fix request against the configured root and
prints the corrected file to stdout, or writes it to --output. The source file
itself is never modified.`,
	Args: cobra.MinimumNArgs(2),
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

		req := fixer.Request{
			FilePath:       args[0],
			BugDescription: strings.Join(args[1:], " "),
		}

		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
		s.Suffix = " Fixing " + req.FilePath
		s.Start()
		outcome := app.Fixer.FixCode(cmd.Context(), req)
		s.Stop()

		if !outcome.OK() {
			return fmt.Errorf("fix failed (%s): %s", outcome.Failure.Reason, outcome.Failure.Detail)
		}

		if outputFile != "" {
			if err := os.WriteFile(outputFile, []byte(outcome.FixedCode), 0o644); err != nil {
				return fmt.Errorf("error writing %s: %w", outputFile, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Fixed code written to %s\n", outputFile)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), outcome.FixedCode)
		return nil
	},
}

func init() {
	fixCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write the fixed code to this file instead of stdout")
	rootCmd.AddCommand(fixCmd)
}
