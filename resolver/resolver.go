// Package resolver installs the mods of a launch manifest into a mods
// directory, downloading missing ones into a shared cache first.
package resolver

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-git/go-billy/v5"

	"github.com/tie/modlauncher/archive"
	"github.com/tie/modlauncher/fetcher"
	"github.com/tie/modlauncher/maven"
	"github.com/tie/modlauncher/modlauncher"
	"github.com/tie/modlauncher/progress"
)

// Resolver retrieves mods one at a time, in manifest order.
type Resolver struct {
	Downloader fetcher.Downloader
	Cache      *fetcher.Cache

	// Files holds ModsDir, the directory the game loads mods from.
	Files   billy.Filesystem
	ModsDir string
}

// Retrieve makes ModsDir contain exactly the selected mods of m.
//
// The first failure aborts the retrieval. Mods installed before the
// failure are left in place; the next run clears them anyway.
func (r *Resolver) Retrieve(ctx context.Context, m *modlauncher.LaunchManifest, p progress.Receiver) error {
	if p == nil {
		p = progress.Discard
	}
	if err := r.Cache.Init(); err != nil {
		return err
	}
	if err := r.Files.MkdirAll(r.ModsDir, 0755); err != nil {
		return modlauncher.Filesystem("mkdir", r.ModsDir, err)
	}
	if err := r.clear(); err != nil {
		return err
	}

	n := len(m.Mods)
	max := progress.ItemsMax(n)
	for i, mod := range m.Mods {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !mod.Selected() {
			continue
		}
		p.ProgressUpdate(progress.Label("Downloading recommended mod %s", mod.Name))

		onProgress := func(done, total int64) {
			p.ProgressUpdate(progress.ForStep(progress.StepDownloadMods, progress.ItemProgress(i, done, total), max))
		}
		if err := r.retrieve(ctx, m, mod, onProgress); err != nil {
			return fmt.Errorf("mod %q: %w", mod.Name, err)
		}
	}
	return nil
}

// clear removes regular files from ModsDir. Directories are kept.
func (r *Resolver) clear() error {
	infos, err := r.Files.ReadDir(r.ModsDir)
	if err != nil {
		return modlauncher.Filesystem("readdir", r.ModsDir, err)
	}
	for _, fi := range infos {
		if !fi.Mode().IsRegular() {
			continue
		}
		fpath := r.Files.Join(r.ModsDir, fi.Name())
		if err := r.Files.Remove(fpath); err != nil {
			return modlauncher.Filesystem("remove", fpath, err)
		}
	}
	return nil
}

func (r *Resolver) retrieve(ctx context.Context, m *modlauncher.LaunchManifest, mod modlauncher.Mod, fn fetcher.ProgressFunc) error {
	name, err := mod.FileName()
	if err != nil {
		return err
	}
	key, err := mod.Source.CachePath()
	if err != nil {
		return err
	}
	ok, err := r.Cache.Has(key)
	if err != nil {
		return err
	}
	if !ok {
		rawurl, data, err := r.acquire(ctx, m, mod.Source, fn)
		if err != nil {
			return err
		}
		if err := r.Cache.Put(key, rawurl, data); err != nil {
			return err
		}
	}
	return r.install(key, name)
}

// acquire downloads the final bytes of src.
func (r *Resolver) acquire(ctx context.Context, m *modlauncher.LaunchManifest, src modlauncher.Source, fn fetcher.ProgressFunc) (string, []byte, error) {
	switch src := src.(type) {
	case modlauncher.DirectDownload:
		data, err := r.Downloader.Download(ctx, src.URL, fn)
		if err != nil {
			return "", nil, err
		}
		if !src.Extract {
			return src.URL, data, nil
		}
		name, jar, err := archive.FirstJar(data)
		if err != nil {
			return "", nil, fmt.Errorf("extract %q: %w", src.URL, err)
		}
		log.Printf("extract %q: %q", src.URL, name)
		return src.URL, jar, nil

	case modlauncher.RepositoryArtifact:
		base, ok := m.Repositories[src.Repository]
		if !ok {
			return "", nil, modlauncher.InvalidDescriptor("there is no repository specified with the name %s", src.Repository)
		}
		rawurl, err := maven.URL(base, src.Artifact)
		if err != nil {
			return "", nil, modlauncher.InvalidDescriptor("artifact %q: %v", src.Artifact, err)
		}
		log.Printf("download mod %q from %q", src.Artifact, src.Repository)
		data, err := r.Downloader.Download(ctx, rawurl, fn)
		if err != nil {
			return "", nil, err
		}
		return rawurl, data, nil
	}
	return "", nil, modlauncher.InvalidDescriptor("unsupported mod source %T", src)
}

// install copies the cache entry for key to ModsDir/name.
func (r *Resolver) install(key, name string) (err error) {
	src, err := r.Cache.Open(key)
	if err != nil {
		return err
	}
	defer func() {
		err := src.Close()
		if err != nil {
			log.Printf("close %q: %+v", src.Name(), err)
		}
	}()

	fpath := r.Files.Join(r.ModsDir, name)
	dst, err := r.Files.OpenFile(fpath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return modlauncher.Filesystem("create", fpath, err)
	}
	defer func() {
		cerr := dst.Close()
		if err == nil && cerr != nil {
			err = modlauncher.Filesystem("close", fpath, cerr)
		}
	}()
	if _, err := io.Copy(dst, src); err != nil {
		return modlauncher.Filesystem("copy", fpath, err)
	}
	return nil
}
