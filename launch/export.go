package launch

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"

	"github.com/tie/modlauncher/modlauncher"
	"github.com/tie/modlauncher/progress"
	"github.com/tie/modlauncher/version"
)

// Exporter is a Launcher that writes the composed descriptor and the
// launch parameters under Dir/versions/<id> for an external launcher.
type Exporter struct {
	Dir string
}

func (e *Exporter) Launch(ctx context.Context, d version.Descriptor, params Parameters, p progress.Receiver) error {
	if p == nil {
		p = progress.Discard
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.ID == "" || d.ID == "." || d.ID == ".." || strings.ContainsAny(d.ID, `/\`) {
		return modlauncher.InvalidDescriptor("invalid version id %q", d.ID)
	}

	dir := filepath.Join(e.Dir, "versions", d.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return modlauncher.Filesystem("mkdir", dir, err)
	}

	p.ProgressUpdate(progress.Label("Writing version profile %s", d.ID))
	if err := writeJSON(filepath.Join(dir, d.ID+".json"), d); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, "launch.json"), params); err != nil {
		return err
	}
	log.Printf("export %q to %q", d.ID, dir)

	p.ProgressUpdate(progress.ToMax())
	return nil
}

func writeJSON(path string, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	if err := renameio.WriteFile(path, b, 0644); err != nil {
		return modlauncher.Filesystem("write", path, err)
	}
	return nil
}
