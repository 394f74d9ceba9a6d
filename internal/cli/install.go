package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/bonnie/pkg/download"
	errs "github.com/matzehuels/bonnie/pkg/errors"
	"github.com/matzehuels/bonnie/pkg/pipeline"
	"github.com/matzehuels/bonnie/pkg/project"
	"github.com/matzehuels/bonnie/pkg/render"
)

// installOpts holds the install command flags.
type installOpts struct {
	graph   string
	refresh bool
	strict  bool
	noCache bool
}

// installCommand creates the install command.
func (c *CLI) installCommand() *cobra.Command {
	var opts installOpts

	cmd := &cobra.Command{
		Use:   "install [package...]",
		Short: "Install packages and record them in bonnie.toml",
		Long: `Install packages from the registry into the packages directory.

With package names, the latest version of each is installed together with its
dependencies and their dependencies, and recorded in bonnie.toml.
Without arguments, every entry of the [dependencies] table is installed.`,
		Example: `  bonnie install left-pad
  bonnie install @types/node react --graph deps.svg
  bonnie install --strict`,
		Aliases: []string{"i", "add"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInstall(cmd.Context(), args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.graph, "graph", "", "write the resolved graph to a .svg or .dot file")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached registry responses")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "fail if any package could not be installed")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the registry response cache")

	return cmd
}

func (c *CLI) runInstall(ctx context.Context, args []string, opts installOpts) error {
	configPath := project.ResolvePath(c.settings.Config)
	doc, err := project.Load(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return errs.Wrap(errs.ErrCodeNotFound, err, "no project at %s (run `bonnie init` first)", configPath)
		}
		return err
	}

	seeds := pipeline.SeedsFromArgs(args)
	if len(args) == 0 {
		seeds = pipeline.SeedsFromDocument(doc)
	}
	if len(seeds) == 0 {
		c.printInfo("Nothing to install")
		return nil
	}

	respCache, err := c.settings.openCache(ctx, opts.noCache)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer respCache.Close()

	store, err := c.settings.openHistory(ctx)
	if err != nil {
		c.Logger.Warn("install history disabled", "error", err)
		store = nil
	} else {
		defer store.Close()
	}

	inst := pipeline.New(c.settings.newRegistryClient(respCache, opts.refresh), pipeline.Options{
		ConfigPath:  configPath,
		PackagesDir: c.settings.PackagesDir,
		Workers:     c.settings.Workers,
		Strict:      opts.strict,
		Logger:      c.Logger,
		History:     store,
	})

	prog := newProgress(c.Logger)
	report, err := inst.Install(ctx, seeds)
	if report != nil {
		ok, failed := download.Summary(report.Outcomes())
		prog.done(fmt.Sprintf("Installed %d packages, %d failed", ok, failed))
		c.printReport(report)
		if opts.graph != "" {
			if gerr := c.writeGraph(ctx, report, opts.graph); gerr != nil {
				c.Logger.Error("graph not written", "path", opts.graph, "error", gerr)
			}
		}
	}
	return err
}

// printReport prints one line per seed followed by failed packages.
func (c *CLI) printReport(report *pipeline.Report) {
	for _, s := range report.Seeds {
		if s.Err != nil {
			c.printError("%s: %s", s.Seed.Name, errs.UserMessage(s.Err))
			continue
		}
		ok, failed := download.Summary(s.Outcomes)
		line := fmt.Sprintf("%s %s", s.Spec, styleNumber.Render(fmt.Sprintf("(%d packages)", ok)))
		if failed > 0 {
			c.printWarning("%s, %d failed", line, failed)
		} else {
			c.printSuccess("%s", line)
		}
		if s.WrittenBack {
			c.printDetail("recorded in %s", report.ConfigPath)
		}
	}

	for _, f := range report.ExpansionFailures() {
		c.printDetail("dependencies of %s unavailable: %s", f.Spec, errs.UserMessage(f.Err))
	}
	for _, o := range download.Failed(report.Outcomes()) {
		c.printDetail("%s", download.Describe(o))
	}
}

// writeGraph renders the resolved graph to path; the extension picks DOT or SVG.
func (c *CLI) writeGraph(ctx context.Context, report *pipeline.Report, path string) error {
	failed := map[string]bool{}
	for _, o := range download.Failed(report.Outcomes()) {
		failed[o.Spec.Name] = true
	}
	dot := render.ToDOT(report.Resolutions(), render.Options{Failed: failed, ShowVersions: true})

	data := []byte(dot)
	if !strings.EqualFold(filepath.Ext(path), ".dot") {
		svg, err := render.RenderSVG(ctx, dot)
		if err != nil {
			return err
		}
		data = svg
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	c.printFile(path)
	return nil
}
