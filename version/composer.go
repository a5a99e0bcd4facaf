package version

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/tie/modlauncher/modlauncher"
)

// DefaultMaxDepth bounds inheritance chains.
const DefaultMaxDepth = 8

const (
	placeholderMinecraft    = "{MINECRAFT_VERSION}"
	placeholderFabricLoader = "{FABRIC_LOADER_VERSION}"
)

// ManifestURL returns the version profile URL of build for loader.
func ManifestURL(loader modlauncher.Loader, build modlauncher.Build) string {
	switch loader.Subsystem {
	case modlauncher.SubsystemFabric:
		r := strings.NewReplacer(
			placeholderMinecraft, build.MinecraftVersion,
			placeholderFabricLoader, build.FabricLoaderVersion,
		)
		return r.Replace(loader.LauncherManifest)
	}
	return loader.LauncherManifest
}

type DescriptorFetcher interface {
	FetchDescriptor(ctx context.Context, rawurl string) (Descriptor, error)
}

// Composer loads a version profile and merges its ancestors into it.
type Composer struct {
	Fetcher DescriptorFetcher

	// MaxDepth is the longest accepted inheritance chain.
	// Default: DefaultMaxDepth
	MaxDepth int
}

// Compose loads the descriptor at rawurl and resolves its parents
// through catalog until none remain.
func (c *Composer) Compose(ctx context.Context, catalog *Catalog, rawurl string) (Descriptor, error) {
	d, err := c.Fetcher.FetchDescriptor(ctx, rawurl)
	if err != nil {
		return Descriptor{}, fmt.Errorf("load version profile %q: %w", rawurl, err)
	}

	maxDepth := c.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	seen := map[string]bool{d.ID: true}
	for depth := 0; d.InheritsFrom != ""; depth++ {
		parentID := d.InheritsFrom
		if depth >= maxDepth {
			return Descriptor{}, modlauncher.InvalidDescriptor("inheritance of %s deeper than %d", d.ID, maxDepth)
		}
		if seen[parentID] {
			return Descriptor{}, modlauncher.InvalidDescriptor("inheritance cycle at version profile %s", parentID)
		}
		seen[parentID] = true

		purl, ok := catalog.Lookup(parentID)
		if !ok {
			return Descriptor{}, modlauncher.InvalidDescriptor("unable to find inherited version profile %s", parentID)
		}
		log.Printf("download inherited version %q from %q", parentID, purl)
		parent, err := c.Fetcher.FetchDescriptor(ctx, purl)
		if err != nil {
			return Descriptor{}, fmt.Errorf("load inherited version profile %q: %w", parentID, err)
		}
		d = Merge(d, parent)
	}
	return d, nil
}
