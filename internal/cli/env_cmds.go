package cli

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/isseis/go-safe-envrc/internal/common"
	"github.com/isseis/go-safe-envrc/internal/redaction"
)

// Error definitions
var (
	ErrUnsupportedShell = errors.New("unsupported shell")
	ErrCommandRequired  = errors.New("command is required after --")
)

func newExportCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "export <shell> [dir]",
		Short: "Print the merged environment as shell export statements",
		Long: `Print the merged environment for a directory (ancestors included) as
export statements for the given shell. Supported shells: bash, zsh, fish.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			shell := args[0]
			dir, err := dirArg(args, 1)
			if err != nil {
				return err
			}

			switch shell {
			case "bash", "zsh", "posix", "fish":
			default:
				return fmt.Errorf("%w: %s", ErrUnsupportedShell, shell)
			}

			vars, err := a.Loader.LoadUpward(dir)
			if err != nil {
				return err
			}

			for _, name := range sortedKeys(vars) {
				if shell == "fish" {
					fmt.Fprintf(a.Stdout, "set -gx %s %s\n", name, fishQuote(vars[name]))
				} else {
					fmt.Fprintf(a.Stdout, "export %s=%s\n", name, shellQuote(vars[name]))
				}
			}
			return nil
		},
	}
}

func newListCmd(app func() *App) *cobra.Command {
	var showValues bool

	listCmd := &cobra.Command{
		Use:   "list [dir]",
		Short: "Print the merged environment for a directory",
		Long: `Print the merged environment for a directory with ancestors applied.
Values of credential-looking variables are masked unless --show-values is
given; masking is display-only and never affects export or exec.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			dir, err := dirArg(args, 0)
			if err != nil {
				return err
			}

			vars, err := a.Loader.LoadUpward(dir)
			if err != nil {
				return err
			}
			for _, name := range sortedKeys(vars) {
				value := vars[name]
				if !showValues {
					value = redaction.MaskValue(name, value)
				}
				fmt.Fprintf(a.Stdout, "%s=%s\n", name, value)
			}
			return nil
		},
	}
	listCmd.Flags().BoolVar(&showValues, "show-values", false, "print credential-looking values instead of masking them")
	return listCmd
}

func newExecCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "exec <dir> -- <command> [args...]",
		Short: "Run a command with the directory's environment applied",
		Long: `Run a command with the target directory's configuration applied on top of
the current process environment. Only the target directory's own files are
loaded, not the caller's ancestry.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if len(args) < 2 {
				return ErrCommandRequired
			}
			dir, command, commandArgs := args[0], args[1], args[2:]

			vars, err := a.Loader.LoadSingle(dir)
			if err != nil {
				return err
			}

			child := exec.Command(command, commandArgs...)
			child.Dir = dir
			child.Env = mergeEnviron(os.Environ(), vars)
			child.Stdin = os.Stdin
			child.Stdout = os.Stdout
			child.Stderr = os.Stderr

			if err := child.Run(); err != nil {
				var exitErr *exec.ExitError
				if errors.As(err, &exitErr) {
					os.Exit(exitErr.ExitCode())
				}
				return err
			}
			return nil
		},
	}
}

// mergeEnviron overlays loaded variables on the ambient environment; loaded
// values win for the same name.
func mergeEnviron(environ []string, vars map[string]string) []string {
	merged := make(map[string]string, len(environ)+len(vars))
	for _, env := range environ {
		if key, value, ok := common.ParseEnvVariable(env); ok {
			merged[key] = value
		}
	}
	for name, value := range vars {
		merged[name] = value
	}

	result := make([]string, 0, len(merged))
	for _, name := range sortedKeys(merged) {
		result = append(result, name+"="+merged[name])
	}
	return result
}

// shellQuote single-quotes a value for POSIX-style shells.
func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", `'\''`) + "'"
}

// fishQuote single-quotes a value for fish, which escapes backslashes and
// quotes inside single-quoted strings instead of using the POSIX close-reopen
// trick.
func fishQuote(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, "'", `\'`)
	return "'" + value + "'"
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
