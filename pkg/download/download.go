// Package download fetches package tarballs into a local directory.
//
// Every download is independent. A package whose tarball is missing, whose
// transfer fails or whose file cannot be written gets an [Outcome] with a
// non-nil Err; the remaining downloads are unaffected. Archives are stored
// as-is and never extracted.
package download

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/bonnie/pkg/deps"
	errs "github.com/matzehuels/bonnie/pkg/errors"
	"github.com/matzehuels/bonnie/pkg/observability"
)

// DefaultDir is where archives are stored when Options.Dir is empty.
const DefaultDir = "bonnie_modules"

// TarballSource resolves and streams package archives.
type TarballSource interface {
	TarballLocation(ctx context.Context, name, version string) (deps.TarballLocation, error)
	FetchTarball(ctx context.Context, url string, w io.Writer) (int64, error)
}

// Options configures a [Downloader].
type Options struct {
	Dir     string      // Destination directory (default: bonnie_modules)
	Workers int         // Concurrent downloads (default: 8)
	Logger  *log.Logger // Per-package progress (default: log.Default())
}

// Outcome is the result of downloading one package. Err is nil on success.
type Outcome struct {
	Spec  deps.PackageSpec
	Path  string
	Bytes int64
	Err   error
}

// OK reports whether the download succeeded.
func (o Outcome) OK() bool { return o.Err == nil }

// Downloader saves tarballs for a list of packages.
type Downloader struct {
	source TarballSource
	opts   Options
}

// New creates a Downloader reading from source.
func New(source TarballSource, opts Options) *Downloader {
	if opts.Dir == "" {
		opts.Dir = DefaultDir
	}
	if opts.Workers <= 0 {
		opts.Workers = deps.DefaultWorkers
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Downloader{source: source, opts: opts}
}

// Dir returns the destination directory.
func (d *Downloader) Dir() string { return d.opts.Dir }

// DownloadAll downloads every spec concurrently and returns one Outcome per
// spec, in input order.
func (d *Downloader) DownloadAll(ctx context.Context, specs []deps.PackageSpec) []Outcome {
	outcomes := make([]Outcome, len(specs))
	start := time.Now()
	observability.Install().OnDownloadStart(ctx, len(specs))

	if err := os.MkdirAll(d.opts.Dir, 0o755); err != nil {
		err = errs.Wrap(errs.ErrCodeIO, err, "create %s", d.opts.Dir)
		for i, s := range specs {
			outcomes[i] = Outcome{Spec: s, Err: err}
		}
		observability.Install().OnDownloadComplete(ctx, 0, len(specs), time.Since(start))
		return outcomes
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Workers)
	for i, s := range specs {
		g.Go(func() error {
			outcomes[i] = d.download(gctx, s)
			return nil
		})
	}
	_ = g.Wait()

	ok, failed := Summary(outcomes)
	observability.Install().OnDownloadComplete(ctx, ok, failed, time.Since(start))
	return outcomes
}

func (d *Downloader) download(ctx context.Context, s deps.PackageSpec) Outcome {
	out := Outcome{Spec: s}

	loc, err := d.source.TarballLocation(ctx, s.Name, s.Version)
	if err != nil {
		out.Err = err
		d.opts.Logger.Error("download failed", "package", s.Name, "version", s.Version, "error", err)
		return out
	}

	out.Path, out.Err = d.localPath(s, loc)
	if out.Err == nil {
		out.Bytes, out.Err = d.save(ctx, loc, out.Path)
	}
	if out.Err != nil {
		d.opts.Logger.Error("download failed", "package", s.Name, "version", s.Version, "error", out.Err)
		return out
	}
	d.opts.Logger.Info("downloaded", "package", s.Name, "version", s.Version, "bytes", out.Bytes)
	return out
}

// localPath maps a location to a file inside the destination directory.
// The version and file name come from remote metadata, so anything that
// would land outside Dir is rejected.
func (d *Downloader) localPath(s deps.PackageSpec, loc deps.TarballLocation) (string, error) {
	if err := errs.ValidateVersion(s.Version); err != nil {
		return "", fmt.Errorf("package %s: %w", s.Name, err)
	}
	rel := filepath.FromSlash(loc.FileName)
	if !filepath.IsLocal(rel) {
		return "", errs.New(errs.ErrCodeInvalidInput, "package %s: archive path %q leaves %s", s, loc.FileName, d.opts.Dir)
	}
	return filepath.Join(d.opts.Dir, rel), nil
}

// save streams into a temp file in Dir and renames it into place, so a
// failed transfer never leaves a truncated archive or an empty package
// directory behind.
func (d *Downloader) save(ctx context.Context, loc deps.TarballLocation, path string) (int64, error) {
	tmp, err := os.CreateTemp(d.opts.Dir, ".download-*")
	if err != nil {
		return 0, errs.Wrap(errs.ErrCodeIO, err, "create temp file")
	}
	defer os.Remove(tmp.Name())

	n, err := d.source.FetchTarball(ctx, loc.URL, tmp)
	if err != nil {
		tmp.Close()
		return n, err
	}
	if err := tmp.Close(); err != nil {
		return n, errs.Wrap(errs.ErrCodeIO, err, "write %s", loc.FileName)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return n, errs.Wrap(errs.ErrCodeIO, err, "create %s", filepath.Dir(path))
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return n, errs.Wrap(errs.ErrCodeIO, err, "rename to %s", path)
	}
	return n, nil
}

// Summary counts succeeded and failed outcomes.
func Summary(outcomes []Outcome) (ok, failed int) {
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		} else {
			ok++
		}
	}
	return ok, failed
}

// Failed returns the outcomes that carry an error.
func Failed(outcomes []Outcome) []Outcome {
	var out []Outcome
	for _, o := range outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}

// Describe formats an outcome for a single status line.
func Describe(o Outcome) string {
	if o.Err != nil {
		return fmt.Sprintf("%s: %s", o.Spec, errs.UserMessage(o.Err))
	}
	return fmt.Sprintf("%s -> %s", o.Spec, o.Path)
}
