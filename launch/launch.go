// Package launch sequences the steps that prepare a build for launching.
package launch

import (
	"context"
	"fmt"
	"log"

	"github.com/tie/modlauncher/modlauncher"
	"github.com/tie/modlauncher/progress"
	"github.com/tie/modlauncher/version"
)

// Transport fetches the remote documents a launch needs.
type Transport interface {
	version.DescriptorFetcher

	FetchVersionCatalog(ctx context.Context) (*version.Catalog, error)
	FetchBuildManifest(ctx context.Context, buildID int) (*modlauncher.LaunchManifest, error)
}

// ModRetriever installs the mods of a manifest.
type ModRetriever interface {
	Retrieve(ctx context.Context, m *modlauncher.LaunchManifest, p progress.Receiver) error
}

// Parameters are passed through to the Launcher untouched.
type Parameters struct {
	Username    string `json:"username"`
	JavaPath    string `json:"javaPath,omitempty"`
	MaxMemoryMB int    `json:"maxMemoryMb,omitempty"`
	GameDir     string `json:"gameDir"`
}

// Launcher starts the game from a composed descriptor. The mods
// directory is fully populated when Launch is called.
type Launcher interface {
	Launch(ctx context.Context, d version.Descriptor, params Parameters, p progress.Receiver) error
}

// Prelauncher runs catalog and manifest retrieval, mod installation and
// descriptor composition, then hands off to Launcher.
type Prelauncher struct {
	Transport Transport
	Resolver  ModRetriever
	Launcher  Launcher

	// MaxDepth bounds descriptor inheritance chains.
	MaxDepth int
}

func (pl *Prelauncher) Launch(ctx context.Context, buildID int, params Parameters, p progress.Receiver) error {
	if p == nil {
		p = progress.Discard
	}

	log.Printf("load version catalog")
	catalog, err := pl.Transport.FetchVersionCatalog(ctx)
	if err != nil {
		return err
	}

	log.Printf("load launch manifest of build %d", buildID)
	m, err := pl.Transport.FetchBuildManifest(ctx, buildID)
	if err != nil {
		return err
	}

	p.ProgressUpdate(progress.Max())
	p.ProgressUpdate(progress.SetProgress(0))

	if err := pl.Resolver.Retrieve(ctx, m, p); err != nil {
		return fmt.Errorf("retrieve mods: %w", err)
	}

	d, err := pl.Compose(ctx, catalog, m)
	if err != nil {
		return err
	}

	log.Printf("launch %q", m.Build.CommitID)
	return pl.Launcher.Launch(ctx, d, params, p)
}

// Compose builds the effective version descriptor of m.
func (pl *Prelauncher) Compose(ctx context.Context, catalog *version.Catalog, m *modlauncher.LaunchManifest) (version.Descriptor, error) {
	rawurl := version.ManifestURL(m.Loader, m.Build)
	log.Printf("load version profile %q", rawurl)
	c := version.Composer{
		Fetcher:  pl.Transport,
		MaxDepth: pl.MaxDepth,
	}
	return c.Compose(ctx, catalog, rawurl)
}
