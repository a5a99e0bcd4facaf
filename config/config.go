// Package config loads launcher settings.
//
// Settings come from, in increasing precedence: built-in defaults, an HCL
// file, a .env file and the process environment.
//
//	api       = "https://api.liquidbounce.net/api/v1"
//	cache_dir = "mod_cache"
//	game_dir  = "gameDir"
//	timeout   = "30s"
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/andybalholm/cascadia"
	"github.com/caarlos0/env/v11"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/joho/godotenv"

	"github.com/tie/modlauncher/api"
	"github.com/tie/modlauncher/fetcher"
)

const (
	DefaultPath    = "modlauncher.hcl"
	DefaultEnvFile = ".env"
)

type Config struct {
	// API is the launcher API base URL.
	API string `env:"MODLAUNCHER_API"`
	// Catalog is the game version catalog URL.
	Catalog string `env:"MODLAUNCHER_CATALOG"`

	// Build is the default build to launch.
	Build int `env:"MODLAUNCHER_BUILD"`

	// CacheDir holds downloaded mods shared by all builds.
	CacheDir string `env:"MODLAUNCHER_CACHE_DIR"`
	// GameDir is the game working directory; mods go to GameDir/mods.
	GameDir string `env:"MODLAUNCHER_GAME_DIR"`

	// AdSelector selects the download link on ad landing pages.
	AdSelector string `env:"MODLAUNCHER_AD_SELECTOR"`

	// Timeout bounds each HTTP request.
	Timeout time.Duration `env:"MODLAUNCHER_TIMEOUT"`

	// DescriptorCacheSize is the number of API documents kept in memory.
	DescriptorCacheSize int `env:"MODLAUNCHER_DESCRIPTOR_CACHE_SIZE"`
}

// file is the HCL schema of the configuration file.
type file struct {
	API                 *string `hcl:"api,optional"`
	Catalog             *string `hcl:"catalog,optional"`
	Build               *int    `hcl:"build,optional"`
	CacheDir            *string `hcl:"cache_dir,optional"`
	GameDir             *string `hcl:"game_dir,optional"`
	AdSelector          *string `hcl:"ad_selector,optional"`
	Timeout             *string `hcl:"timeout,optional"`
	DescriptorCacheSize *int    `hcl:"descriptor_cache_size,optional"`
}

func Default() Config {
	return Config{
		API:                 api.DefaultAPI,
		Catalog:             api.DefaultCatalog,
		CacheDir:            "mod_cache",
		GameDir:             "gameDir",
		AdSelector:          fetcher.DefaultAdPageSelector,
		Timeout:             30 * time.Second,
		DescriptorCacheSize: api.DefaultCacheSize,
	}
}

// ModsDir is the directory the game loads mods from.
func (c Config) ModsDir() string {
	return filepath.Join(c.GameDir, "mods")
}

// Parse decodes an HCL configuration over the defaults.
func Parse(p *hclparse.Parser, src []byte, filename string) (Config, hcl.Diagnostics) {
	cfg := Default()
	f, diags := p.ParseHCL(src, filename)
	if diags.HasErrors() {
		return cfg, diags
	}
	var fc file
	diags = append(diags, gohcl.DecodeBody(f.Body, nil, &fc)...)
	if diags.HasErrors() {
		return cfg, diags
	}

	setString(&cfg.API, fc.API)
	setString(&cfg.Catalog, fc.Catalog)
	setString(&cfg.CacheDir, fc.CacheDir)
	setString(&cfg.GameDir, fc.GameDir)
	setString(&cfg.AdSelector, fc.AdSelector)
	if fc.Build != nil {
		cfg.Build = *fc.Build
	}
	if fc.DescriptorCacheSize != nil {
		cfg.DescriptorCacheSize = *fc.DescriptorCacheSize
	}
	if fc.Timeout != nil {
		d, err := time.ParseDuration(*fc.Timeout)
		if err != nil {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid timeout",
				Detail:   fmt.Sprintf("Cannot parse %q as a duration: %v.", *fc.Timeout, err),
				Subject:  attrRange(f.Body, "timeout"),
			})
		} else {
			cfg.Timeout = d
		}
	}
	return cfg, diags
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func attrRange(body hcl.Body, name string) *hcl.Range {
	attrs, _ := body.JustAttributes()
	if a, ok := attrs[name]; ok {
		return a.Expr.Range().Ptr()
	}
	return nil
}

// Load reads the configuration file at path, if any, and applies the
// environment. A missing file yields the defaults.
func Load(p *hclparse.Parser, path string) (Config, hcl.Diagnostics, error) {
	cfg := Default()
	var diags hcl.Diagnostics
	src, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, nil, err
	default:
		cfg, diags = Parse(p, src, path)
		if diags.HasErrors() {
			return cfg, diags, nil
		}
	}
	environ, err := Environ(DefaultEnvFile)
	if err != nil {
		return cfg, diags, err
	}
	if err := ApplyEnv(&cfg, environ); err != nil {
		return cfg, diags, err
	}
	return cfg, diags, cfg.Validate()
}

// Environ returns the variables of envFile overlaid with the process
// environment. A missing envFile is ignored.
func Environ(envFile string) (map[string]string, error) {
	environ, err := godotenv.Read(envFile)
	if errors.Is(err, os.ErrNotExist) {
		environ, err = map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", envFile, err)
	}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		environ[k] = v
	}
	return environ, nil
}

// ApplyEnv overrides cfg with the MODLAUNCHER_* variables in environ.
func ApplyEnv(cfg *Config, environ map[string]string) error {
	return env.ParseWithOptions(cfg, env.Options{Environment: environ})
}

func (c Config) Validate() error {
	switch {
	case c.API == "":
		return errors.New("config: api is empty")
	case c.Catalog == "":
		return errors.New("config: catalog is empty")
	case c.CacheDir == "":
		return errors.New("config: cache_dir is empty")
	case c.GameDir == "":
		return errors.New("config: game_dir is empty")
	case c.Timeout <= 0:
		return fmt.Errorf("config: timeout %v is not positive", c.Timeout)
	}
	if c.AdSelector != "" {
		if _, err := cascadia.Compile(c.AdSelector); err != nil {
			return fmt.Errorf("config: ad_selector %q: %w", c.AdSelector, err)
		}
	}
	return nil
}

// Format returns src in canonical HCL style.
func Format(src []byte) []byte {
	return hclwrite.Format(src)
}
