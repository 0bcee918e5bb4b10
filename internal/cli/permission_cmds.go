package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newAllowCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "allow <path>",
		Short: "Grant permission to load a configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := a.Perms.Allow(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.Stdout, "allowed %s\n", args[0])
			return nil
		},
	}
}

func newDenyCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "deny <path>",
		Short: "Revoke permission to load a configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := a.Perms.Deny(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.Stdout, "denied %s\n", args[0])
			return nil
		},
	}
}

func newPruneCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove permission entries for files that no longer exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			removed, err := a.Perms.Prune()
			if err != nil {
				return err
			}
			fmt.Fprintf(a.Stdout, "removed %d stale entries\n", removed)
			return nil
		},
	}
}

func newStatusCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status [dir]",
		Short: "Show the permission state of a directory's configuration files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			dir, err := dirArg(args, 0)
			if err != nil {
				return err
			}
			resolved, err := a.Validator.Validate(dir)
			if err != nil {
				return err
			}

			basePath := filepath.Join(resolved.String(), a.Config.RCFileName)
			printFileStatus(a, basePath)

			if name, ok := a.Profiles.Active(resolved.String()); ok {
				fmt.Fprintf(a.Stdout, "active profile: %s\n", name)
				printFileStatus(a, basePath+"."+name)
			} else {
				fmt.Fprintln(a.Stdout, "active profile: none")
			}
			return nil
		},
	}
}

func printFileStatus(a *App, path string) {
	exists, _ := a.FS.FileExists(path)
	if !exists {
		fmt.Fprintf(a.Stdout, "%s: missing\n", path)
		return
	}
	if a.Perms.IsAllowed(path) {
		fmt.Fprintf(a.Stdout, "%s: allowed\n", path)
		return
	}
	if _, found := a.Perms.Lookup(path); found {
		fmt.Fprintf(a.Stdout, "%s: denied\n", path)
		return
	}
	fmt.Fprintf(a.Stdout, "%s: no decision (default deny)\n", path)
}
