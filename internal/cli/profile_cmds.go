package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newProfileCmd(app func() *App) *cobra.Command {
	profileCmd := &cobra.Command{
		Use:   "profile <use|show|clear>",
		Short: "Manage the active profile of a directory",
		Long: `A profile selects an alternate configuration overlay: with profile "staging"
active for a directory, ".envrc.staging" is merged on top of ".envrc" there.
The overlay file needs its own grant.`,
	}

	profileCmd.AddCommand(&cobra.Command{
		Use:   "use <dir> <name>",
		Short: "Set the active profile for a directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := a.Profiles.SetActive(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(a.Stdout, "profile %s active for %s\n", args[1], args[0])
			return nil
		},
	})

	profileCmd.AddCommand(&cobra.Command{
		Use:   "show [dir]",
		Short: "Show the active profile for a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			dir, err := dirArg(args, 0)
			if err != nil {
				return err
			}
			if name, ok := a.Profiles.Active(dir); ok {
				fmt.Fprintln(a.Stdout, name)
			} else {
				fmt.Fprintln(a.Stdout, "none")
			}
			return nil
		},
	})

	profileCmd.AddCommand(&cobra.Command{
		Use:   "clear <dir>",
		Short: "Clear the active profile for a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := a.Profiles.ClearActive(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.Stdout, "profile cleared for %s\n", args[0])
			return nil
		},
	})

	return profileCmd
}
