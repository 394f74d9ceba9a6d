package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/bonnie/pkg/project"
)

// initCommand creates the init command.
func (c *CLI) initCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a starter bonnie.toml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := project.ResolvePath(c.settings.Config)
			if err := project.Init(path); err != nil {
				return err
			}
			c.printSuccess("Created %s", path)
			c.printDetail("Add packages with: bonnie install <package>")
			return nil
		},
	}
}
