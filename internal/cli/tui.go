package cli

import (
	"github.com/spf13/cobra"

	"github.com/runoshun/quire/internal/app"
)

// newTUICommand creates the tui command for launching the interactive task browser.
// Running quire without arguments does the same.
func newTUICommand(c *app.Container, flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Launch the interactive task browser",
		Long: `Launch the interactive terminal task browser.

Browse open tasks, read their history and take the next review step.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			actor, err := resolveActor(c, flags.actor)
			if err != nil {
				return err
			}
			return launchTUIFunc(c, actor)
		},
	}
	return cmd
}
