package main

import (
	"log"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh/terminal"

	"github.com/akrylysov/pogreb"
	"github.com/akrylysov/pogreb/fs"
	"github.com/andybalholm/cascadia"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/tie/modlauncher/api"
	"github.com/tie/modlauncher/config"
	"github.com/tie/modlauncher/fetcher"
	"github.com/tie/modlauncher/progress"
	"github.com/tie/modlauncher/resolver"
)

func makeCache(path string) error {
	return os.MkdirAll(path, 0700)
}

func newDiagWr(p *hclparse.Parser) (diagWr hcl.DiagnosticWriter, color bool) {
	files := p.Files()
	stderr := os.Stderr
	fd := int(stderr.Fd())
	istty, color := fdinfo(fd)
	if !istty {
		diagWr := hcl.NewDiagnosticTextWriter(stderr, files, 80, color)
		return diagWr, color
	}
	width := uint(80)
	if w, _, err := terminal.GetSize(fd); err != nil {
		log.Printf("get term size: %+v", err)
	} else if w > 0 {
		width = uint(w)
	}
	return hcl.NewDiagnosticTextWriter(stderr, files, width, color), color
}

func fdinfo(fd int) (istty, color bool) {
	istty = terminal.IsTerminal(fd)
	if istty {
		color = true
	}
	// See https://no-color.org
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		color = false
	}
	return
}

func writeDiags(p *hclparse.Parser, diags hcl.Diagnostics) {
	if len(diags) == 0 {
		return
	}
	diagWr, _ := newDiagWr(p)
	if err := diagWr.WriteDiagnostics(diags); err != nil {
		log.Printf("write diags: %+v", err)
	}
}

func loadConfig() (config.Config, bool) {
	parser := hclparse.NewParser()
	cfg, diags, err := config.Load(parser, configPath)
	writeDiags(parser, diags)
	if diags.HasErrors() {
		return cfg, false
	}
	if err != nil {
		log.Printf("load config %q: %+v", configPath, err)
		return cfg, false
	}
	return cfg, true
}

// buildID picks the build from the command line or the configuration.
func buildID(flagID int, cfg config.Config) (int, bool) {
	id := flagID
	if id <= 0 {
		id = cfg.Build
	}
	if id <= 0 {
		log.Printf("no build specified: use -build or set build in %q", configPath)
		return 0, false
	}
	return id, true
}

// pipeline holds the collaborators shared by the commands.
type pipeline struct {
	Client   *api.Client
	Cache    *fetcher.Cache
	Resolver *resolver.Resolver
	Progress progress.Receiver
}

func newHTTPClient(cfg config.Config) *http.Client {
	return &http.Client{Timeout: cfg.Timeout}
}

func newAPIClient(c *http.Client, cfg config.Config) (*api.Client, error) {
	return api.NewClient(c, api.Options{
		API:       cfg.API,
		Catalog:   cfg.Catalog,
		CacheSize: cfg.DescriptorCacheSize,
	})
}

func openPipeline(cfg config.Config, nocache bool) (*pipeline, error) {
	var cachefs billy.Filesystem
	var db *pogreb.DB
	if !nocache {
		if err := makeCache(cfg.CacheDir); err != nil {
			return nil, err
		}
		cachefs = osfs.New(cfg.CacheDir)
		var err error
		db, err = pogreb.Open(filepath.Join(cfg.CacheDir, "index"), nil)
		if err != nil {
			return nil, err
		}
	} else {
		cachefs = memfs.New()
		// BUG pogreb.Open always calls os.MkdirAll
		var err error
		db, err = pogreb.Open(".", &pogreb.Options{
			FileSystem: fs.Mem,
		})
		if err != nil {
			return nil, err
		}
	}

	c := newHTTPClient(cfg)
	client, err := newAPIClient(c, cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	dl := fetcher.NewHTTPDownloader(c)
	if cfg.AdSelector != "" {
		sel, err := cascadia.Compile(cfg.AdSelector)
		if err != nil {
			db.Close()
			return nil, err
		}
		dl.AdPage = sel
	}

	cache := &fetcher.Cache{
		Files: cachefs,
		Index: db,
	}
	return &pipeline{
		Client: client,
		Cache:  cache,
		Resolver: &resolver.Resolver{
			Downloader: dl,
			Cache:      cache,
			Files:      osfs.New(cfg.GameDir),
			ModsDir:    "mods",
		},
		Progress: progress.NewLogger(log.Default(), programName),
	}, nil
}

func (p *pipeline) Close() {
	if err := p.Cache.Index.Close(); err != nil {
		log.Printf("close index: %+v", err)
	}
}
