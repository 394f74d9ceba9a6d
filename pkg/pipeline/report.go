package pipeline

import (
	"time"

	"github.com/matzehuels/bonnie/pkg/deps"
	"github.com/matzehuels/bonnie/pkg/download"
	errs "github.com/matzehuels/bonnie/pkg/errors"
	"github.com/matzehuels/bonnie/pkg/history"
)

// SeedReport is the result of one seed.
type SeedReport struct {
	Seed        Seed
	Spec        deps.PackageSpec // Resolved seed; Version is empty if lookup failed
	Resolution  *deps.Resolution
	Outcomes    []download.Outcome
	WrittenBack bool
	Err         error // Seed-level failure (version lookup or seed manifest)
}

// Report is the result of an install run.
type Report struct {
	RunID      string
	ConfigPath string
	StartedAt  time.Time
	Duration   time.Duration
	Seeds      []SeedReport
}

// Resolutions returns the resolution of every seed that got that far.
func (r *Report) Resolutions() []*deps.Resolution {
	var out []*deps.Resolution
	for _, s := range r.Seeds {
		if s.Resolution != nil {
			out = append(out, s.Resolution)
		}
	}
	return out
}

// Outcomes returns all download outcomes in seed order.
func (r *Report) Outcomes() []download.Outcome {
	var out []download.Outcome
	for _, s := range r.Seeds {
		out = append(out, s.Outcomes...)
	}
	return out
}

// SeedFailures returns the seeds that failed before downloading.
func (r *Report) SeedFailures() []SeedReport {
	var out []SeedReport
	for _, s := range r.Seeds {
		if s.Err != nil {
			out = append(out, s)
		}
	}
	return out
}

// ExpansionFailures returns packages whose dependencies could not be read.
func (r *Report) ExpansionFailures() []deps.Failure {
	var out []deps.Failure
	for _, res := range r.Resolutions() {
		out = append(out, res.Failures...)
	}
	return out
}

// Complete reports whether every seed resolved and every download succeeded.
func (r *Report) Complete() bool {
	_, failed := download.Summary(r.Outcomes())
	return failed == 0 && len(r.SeedFailures()) == 0
}

// Record converts the report into a history record. runErr is the error
// Install returned, if any.
func (r *Report) Record(runErr error) *history.Record {
	rec := &history.Record{
		ID:         r.RunID,
		StartedAt:  r.StartedAt,
		Duration:   r.Duration,
		ConfigPath: r.ConfigPath,
	}
	for _, s := range r.Seeds {
		rec.Seeds = append(rec.Seeds, s.Seed.Name)
		if s.WrittenBack {
			rec.WrittenBack = append(rec.WrittenBack, s.Spec.String())
		}
		if s.Err != nil {
			rec.Packages = append(rec.Packages, history.PackageRecord{
				Name:    s.Seed.Name,
				Version: s.Spec.Version,
				Error:   errs.UserMessage(s.Err),
			})
		}
		for _, o := range s.Outcomes {
			p := history.PackageRecord{Name: o.Spec.Name, Version: o.Spec.Version, Path: o.Path}
			if o.Err != nil {
				p.Error = errs.UserMessage(o.Err)
			}
			rec.Packages = append(rec.Packages, p)
		}
	}
	if runErr != nil {
		rec.Error = errs.UserMessage(runErr)
	}
	return rec
}
