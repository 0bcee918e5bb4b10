package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/isseis/go-safe-envrc/internal/appconfig"
	"github.com/isseis/go-safe-envrc/internal/common"
	"github.com/isseis/go-safe-envrc/internal/logging"
	"github.com/isseis/go-safe-envrc/internal/security"
	"github.com/isseis/go-safe-envrc/internal/terminal"
)

var version = "dev" // Set at build time using -ldflags

// Exit codes reported to the shell.
const (
	exitOK         = 0
	exitValidation = 1
	exitSecurity   = 2
)

// NewRootCmd builds the root command with all subcommands attached. The App
// is constructed lazily in PersistentPreRunE so the --config-dir flag is
// honored before any store is opened.
func NewRootCmd() *cobra.Command {
	var (
		app       *App
		logLevel  string
		configDir string
	)

	rootCmd := &cobra.Command{
		Use:           "safe-envrc <command> [args]",
		Short:         "safe-envrc loads directory-scoped environment variables behind an explicit permission store.",
		Long:          longDescription,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			detector := terminal.NewDetector(terminal.DetectorOptions{})
			logging.Setup(logging.ParseLevel(logLevel), detector, logging.GenerateRunID())

			if configDir != "" {
				if err := os.Setenv(appconfig.EnvConfigDir, configDir); err != nil {
					return err
				}
			}

			cfg, err := appconfig.Load(common.NewDefaultFileSystem())
			if err != nil {
				return err
			}
			app, err = NewApp(cfg, common.NewDefaultFileSystem())
			if err != nil {
				return err
			}
			app.Stdout = cmd.OutOrStdout()
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "override the configuration directory")

	appRef := func() *App { return app }
	rootCmd.AddCommand(newAllowCmd(appRef))
	rootCmd.AddCommand(newDenyCmd(appRef))
	rootCmd.AddCommand(newPruneCmd(appRef))
	rootCmd.AddCommand(newStatusCmd(appRef))
	rootCmd.AddCommand(newExportCmd(appRef))
	rootCmd.AddCommand(newListCmd(appRef))
	rootCmd.AddCommand(newExecCmd(appRef))
	rootCmd.AddCommand(newProfileCmd(appRef))

	return rootCmd
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "safe-envrc: %v\n", err)
		return exitCode(err)
	}
	return exitOK
}

// exitCode maps an error to its exit status: security failures (path
// traversal) are distinguished from ordinary validation failures.
func exitCode(err error) int {
	if errors.Is(err, security.ErrPathTraversal) {
		return exitSecurity
	}
	return exitValidation
}

const longDescription = `safe-envrc manages directory-scoped environment variables loaded from
per-directory configuration files (".envrc" by convention).

Loading is gated behind an explicit allow/deny permission store: a file
contributes variables only after it has been granted with "safe-envrc allow".
Dangerous variables (dynamic-linker hooks, interpreter search paths, shell
startup hooks) are always stripped, and ${VAR} references are interpolated
with cycle and depth protection.`
