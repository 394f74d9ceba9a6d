// Package cli implements the bonnie command-line interface.
package cli

import (
	"errors"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/bonnie/pkg/buildinfo"
	"github.com/matzehuels/bonnie/pkg/observability"
	"github.com/matzehuels/bonnie/pkg/scripts"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "bonnie"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// SettingsPath overrides the settings file location (tests).
	SettingsPath string

	settings *Settings
	verbose  bool
	stdout   io.Writer
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:       newLogger(w, level),
		SettingsPath: settingsPath(),
		stdout:       os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// SetOutput redirects command output (not logs).
func (c *CLI) SetOutput(w io.Writer) {
	c.stdout = w
}

// RootCommand creates the root cobra command with all subcommands registered.
//
// Arguments that are not a subcommand name a script from bonnie.toml:
// "bonnie test" runs the "test" script.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "bonnie [script] [args...]",
		Short:         "Bonnie installs npm packages and runs project scripts",
		Long:          `Bonnie installs packages from an npm-compatible registry into bonnie_modules, records them in bonnie.toml, and runs the scripts defined there.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
				observability.NewLogHooks(c.Logger).Register()
			}

			s, err := loadSettings(c.SettingsPath, cmd.Flags())
			if err != nil {
				return err
			}
			c.settings = s
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return c.runScript(cmd, args)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	flags.StringP("config", "c", "", "path to bonnie.toml (env BONNIE_CONF)")
	flags.String("registry", "", "registry base URL")
	flags.Int("workers", 0, "parallel registry requests")

	root.AddCommand(c.installCommand())
	root.AddCommand(c.runCommand())
	root.AddCommand(c.initCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.historyCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// ExitCode maps a command error to a process exit status.
func ExitCode(err error) int {
	var exit *scripts.ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}
	return 1
}
