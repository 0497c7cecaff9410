package domain

import (
	"path"
	"strings"
)

// ArtifactRef identifies a file of a run, both in the bucket and on disk.
type ArtifactRef struct {
	RunID     string
	Name      string
	Extension string
}

func (a ArtifactRef) FileName() string {
	return a.Name + "." + a.Extension
}

// ObjectKey is {runId}/{name}.{extension}.
func (a ArtifactRef) ObjectKey() string {
	return path.Join(a.RunID, a.FileName())
}

// SplitFileName splits at the first dot. "report.final.txt" yields
// ("report", "final.txt").
func SplitFileName(name string) (base, ext string, ok bool) {
	base, ext, ok = strings.Cut(name, ".")
	if !ok || base == "" || ext == "" {
		return "", "", false
	}
	return base, ext, true
}
