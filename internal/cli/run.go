package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/bonnie/pkg/project"
	"github.com/matzehuels/bonnie/pkg/scripts"
)

// runCommand creates the run command. "bonnie run test a b" and
// "bonnie test a b" are equivalent; run also works for scripts whose name
// collides with a subcommand.
func (c *CLI) runCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run <script> [args...]",
		Short: "Run a script from bonnie.toml",
		Long: `Run a script from the [scripts] table of bonnie.toml.

Each %% in the script is replaced by the next argument; the number of
arguments must match the number of placeholders. Use -- before arguments
that start with a dash.`,
		Example: `  bonnie run start
  bonnie run greet -- --name world`,
		Args: cobra.MinimumNArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			s, err := loadSettings(c.SettingsPath, cmd.Flags())
			if err != nil {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			doc, err := project.Load(project.ResolvePath(s.Config))
			if err != nil {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return scripts.FromDocument(doc).Names(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: c.runScript,
	}
}

// runScript expands the script named by args[0] and executes it.
func (c *CLI) runScript(cmd *cobra.Command, args []string) error {
	doc, err := project.Load(project.ResolvePath(c.settings.Config))
	if err != nil {
		return err
	}
	line, err := scripts.CommandFromArgs(doc, args)
	if err != nil {
		return err
	}

	c.Logger.Debug("running script", "name", args[0], "command", line)
	dir, _ := os.Getwd()
	return scripts.Execute(cmd.Context(), line, scripts.ExecOptions{
		Stdin:  cmd.InOrStdin(),
		Stdout: cmd.OutOrStdout(),
		Stderr: cmd.ErrOrStderr(),
		Dir:    dir,
	})
}
