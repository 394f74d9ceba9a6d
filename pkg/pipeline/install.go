package pipeline

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/bonnie/pkg/deps"
	"github.com/matzehuels/bonnie/pkg/download"
	errs "github.com/matzehuels/bonnie/pkg/errors"
	"github.com/matzehuels/bonnie/pkg/history"
	"github.com/matzehuels/bonnie/pkg/observability"
	"github.com/matzehuels/bonnie/pkg/project"
)

// Registry is everything an install needs from a package registry.
type Registry interface {
	deps.ManifestSource
	download.TarballSource
	LatestVersion(ctx context.Context, name string) (string, string, error)
}

// Options configures an [Installer].
type Options struct {
	ConfigPath  string        // bonnie.toml to record argument seeds in (default: ./bonnie.toml)
	PackagesDir string        // Tarball destination (default: bonnie_modules)
	Workers     int           // Parallel registry requests per phase (default: 8)
	Strict      bool          // Return an INCOMPLETE error when anything failed
	Logger      *log.Logger   // Progress logging (default: log.Default())
	History     history.Store // Run log (default: discard)
}

// Installer runs installs against one registry.
type Installer struct {
	registry   Registry
	resolver   *deps.Resolver
	downloader *download.Downloader
	opts       Options
}

// New creates an Installer.
func New(reg Registry, opts Options) *Installer {
	opts.ConfigPath = project.ResolvePath(opts.ConfigPath)
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.History == nil {
		opts.History = history.NullStore{}
	}
	return &Installer{
		registry: reg,
		resolver: deps.NewResolver(reg, deps.Options{Workers: opts.Workers, Logger: opts.Logger}),
		downloader: download.New(reg, download.Options{
			Dir:     opts.PackagesDir,
			Workers: opts.Workers,
			Logger:  opts.Logger,
		}),
		opts: opts,
	}
}

// Install processes seeds in order and returns what happened to each.
// The returned error is non-nil when bonnie.toml could not be updated, when
// ctx was cancelled, or in strict mode when anything failed. The report is
// returned in every case.
func (i *Installer) Install(ctx context.Context, seeds []Seed) (*Report, error) {
	report := &Report{
		RunID:      uuid.NewString(),
		ConfigPath: i.opts.ConfigPath,
		StartedAt:  time.Now(),
	}

	err := i.run(ctx, seeds, report)
	report.Duration = time.Since(report.StartedAt)

	if err == nil && i.opts.Strict && !report.Complete() {
		_, failed := download.Summary(report.Outcomes())
		err = errs.New(errs.ErrCodeIncomplete, "install incomplete: %d seed(s) failed, %d download(s) failed",
			len(report.SeedFailures()), failed)
	}

	if herr := i.opts.History.Append(context.WithoutCancel(ctx), report.Record(err)); herr != nil {
		i.opts.Logger.Warn("could not record install history", "error", herr)
	}
	return report, err
}

func (i *Installer) run(ctx context.Context, seeds []Seed, report *Report) error {
	for _, seed := range seeds {
		if err := ctx.Err(); err != nil {
			return err
		}
		sr, err := i.installSeed(ctx, seed)
		report.Seeds = append(report.Seeds, sr)
		if err != nil {
			return err
		}
	}
	return ctx.Err()
}

func (i *Installer) installSeed(ctx context.Context, seed Seed) (SeedReport, error) {
	sr := SeedReport{Seed: seed}
	logger := i.opts.Logger.With("seed", seed.Name)

	spec, err := i.seedSpec(ctx, seed)
	sr.Spec = spec
	if err != nil {
		sr.Err = err
		logger.Error("cannot resolve version", "error", err)
		return sr, nil
	}

	logger.Info("resolving", "version", spec.Version, "from", seed.Origin)
	start := time.Now()
	observability.Install().OnResolveStart(ctx, spec.Name)
	res, err := i.resolver.Resolve(ctx, spec)
	if err != nil {
		observability.Install().OnResolveComplete(ctx, spec.Name, 0, time.Since(start), err)
		sr.Err = err
		logger.Error("cannot read dependencies", "version", spec.Version, "error", err)
		return sr, nil
	}
	observability.Install().OnResolveComplete(ctx, spec.Name, res.Deps.Len(), time.Since(start), nil)
	sr.Resolution = res
	logger.Info("resolved", "packages", res.Deps.Len(), "skipped", len(res.Failures))

	sr.Outcomes = i.downloader.DownloadAll(ctx, downloadSet(spec, res.Deps))

	if seed.Origin != FromArgument {
		return sr, nil
	}
	if !seedDownloaded(spec, sr.Outcomes) {
		logger.Warn("not recording in config, seed download failed", "path", i.opts.ConfigPath)
		return sr, nil
	}

	err = project.RecordInstalledDependency(i.opts.ConfigPath, spec.Name, spec.Version)
	observability.Install().OnWriteBack(ctx, i.opts.ConfigPath, spec.Name, spec.Version, err)
	if err != nil {
		return sr, fmt.Errorf("record %s in %s: %w", spec, i.opts.ConfigPath, err)
	}
	sr.WrittenBack = true
	logger.Info("recorded", "version", spec.Version, "path", i.opts.ConfigPath)
	return sr, nil
}

// seedSpec picks the version to install for a seed. Manifest seeds without a
// usable constraint fall back to the latest version.
func (i *Installer) seedSpec(ctx context.Context, seed Seed) (deps.PackageSpec, error) {
	spec := deps.PackageSpec{Name: seed.Name, Constraint: seed.Constraint}
	if err := errs.ValidatePackageName(seed.Name); err != nil {
		return spec, err
	}

	if seed.Origin == FromManifest {
		switch v := deps.Normalize(seed.Constraint); strings.ToLower(v) {
		case "", "*", "latest":
		default:
			spec.Version = v
			return spec, nil
		}
	}

	name, version, err := i.registry.LatestVersion(ctx, seed.Name)
	if err != nil {
		return spec, err
	}
	spec.Name, spec.Version = name, version
	return spec, nil
}

// downloadSet returns the resolved packages plus the seed, sorted by name.
// The seed's own version wins if the map also lists it.
func downloadSet(seed deps.PackageSpec, m *deps.DependencyMap) []deps.PackageSpec {
	specs := []deps.PackageSpec{{Name: seed.Name, Version: seed.Version}}
	for _, s := range m.Specs() {
		if s.Name != seed.Name {
			specs = append(specs, s)
		}
	}
	slices.SortFunc(specs, func(a, b deps.PackageSpec) int { return strings.Compare(a.Name, b.Name) })
	return specs
}

func seedDownloaded(seed deps.PackageSpec, outcomes []download.Outcome) bool {
	for _, o := range outcomes {
		if o.Spec.Name == seed.Name {
			return o.Err == nil
		}
	}
	return false
}
