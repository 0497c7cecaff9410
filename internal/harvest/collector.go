// Package harvest uploads the output files a run leaves next to its artifact.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/animus-labs/runworker/internal/domain"
)

var outputExtensions = map[string]struct{}{
	"txt": {},
	"png": {},
	"gif": {},
}

type Uploader interface {
	Upload(ctx context.Context, ref domain.ArtifactRef) error
}

// Report lists file names by what happened to them.
type Report struct {
	Uploaded []string
	Skipped  []string
	Failed   map[string]error
}

type Collector struct {
	uploader Uploader
	logger   *slog.Logger
}

func NewCollector(uploader Uploader, logger *slog.Logger) (*Collector, error) {
	if uploader == nil {
		return nil, errors.New("uploader is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{uploader: uploader, logger: logger}, nil
}

// Qualifies splits name at the first dot and reports whether the remainder is
// one of the harvested extensions.
func Qualifies(name string) (base, ext string, ok bool) {
	base, ext, ok = domain.SplitFileName(name)
	if !ok {
		return "", "", false
	}
	if _, want := outputExtensions[ext]; !want {
		return "", "", false
	}
	return base, ext, true
}

// Collect scans dir, which must be the staging directory of runID, without
// descending into subdirectories. A failed upload does not stop the scan.
func (c *Collector) Collect(ctx context.Context, runID, dir string) (Report, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Report{}, fmt.Errorf("list %s: %w", dir, err)
	}

	report := Report{Failed: map[string]error{}}
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() {
			report.Skipped = append(report.Skipped, name)
			continue
		}
		base, ext, ok := Qualifies(name)
		if !ok {
			report.Skipped = append(report.Skipped, name)
			continue
		}

		ref := domain.ArtifactRef{RunID: runID, Name: base, Extension: ext}
		if err := c.uploader.Upload(ctx, ref); err != nil {
			c.logger.Error("output upload failed", "run_id", runID, "file", name, "error", err)
			report.Failed[name] = err
			continue
		}
		c.logger.Info("output uploaded", "run_id", runID, "key", ref.ObjectKey())
		report.Uploaded = append(report.Uploaded, name)
	}
	sort.Strings(report.Uploaded)
	sort.Strings(report.Skipped)
	return report, nil
}
