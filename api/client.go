// Package api fetches the version catalog, build manifests and version
// profiles over HTTP.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tie/modlauncher/fetcher"
	"github.com/tie/modlauncher/modlauncher"
	"github.com/tie/modlauncher/version"
)

const (
	DefaultAPI     = "https://api.liquidbounce.net/api/v1"
	DefaultCatalog = "https://launchermeta.mojang.com/mc/game/version_manifest.json"

	// DefaultCacheSize is the number of documents kept in memory.
	DefaultCacheSize = 64
)

// DefaultMaxDocumentSize is 16MiB.
const DefaultMaxDocumentSize = 16 * 1024 * 1024

var ErrTooLarge = errors.New("document too large")

type Options struct {
	// API is the base URL of the launcher API.
	API string
	// Catalog is the URL of the game version catalog.
	Catalog string
	// CacheSize is the number of fetched documents to memoize.
	CacheSize int
	// MaxDocumentSize bounds the size of a fetched document in bytes.
	MaxDocumentSize int64
}

func DefaultOptions() Options {
	return Options{
		API:             DefaultAPI,
		Catalog:         DefaultCatalog,
		CacheSize:       DefaultCacheSize,
		MaxDocumentSize: DefaultMaxDocumentSize,
	}
}

// Client memoizes fetched documents by URL for the lifetime of the client.
type Client struct {
	http *http.Client
	opts Options
	docs *lru.Cache[string, []byte]
}

func NewClient(c *http.Client, opts Options) (*Client, error) {
	if c == nil {
		c = http.DefaultClient
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	docs, err := lru.New[string, []byte](opts.CacheSize)
	if err != nil {
		return nil, err
	}
	return &Client{http: c, opts: opts, docs: docs}, nil
}

func (c *Client) maxDocument() int64 {
	if c.opts.MaxDocumentSize <= 0 {
		return DefaultMaxDocumentSize
	}
	return c.opts.MaxDocumentSize
}

func (c *Client) FetchVersionCatalog(ctx context.Context) (*version.Catalog, error) {
	var catalog version.Catalog
	if err := c.getJSON(ctx, c.opts.Catalog, &catalog); err != nil {
		return nil, fmt.Errorf("fetch version catalog: %w", err)
	}
	return &catalog, nil
}

func (c *Client) FetchBuildManifest(ctx context.Context, buildID int) (*modlauncher.LaunchManifest, error) {
	rawurl := fmt.Sprintf("%s/version/launch/%d", strings.TrimSuffix(c.opts.API, "/"), buildID)
	var m modlauncher.LaunchManifest
	if err := c.getJSON(ctx, rawurl, &m); err != nil {
		return nil, fmt.Errorf("fetch build %d manifest: %w", buildID, err)
	}
	return &m, nil
}

func (c *Client) FetchDescriptor(ctx context.Context, rawurl string) (version.Descriptor, error) {
	var d version.Descriptor
	if err := c.getJSON(ctx, rawurl, &d); err != nil {
		return version.Descriptor{}, err
	}
	return d, nil
}

func (c *Client) getJSON(ctx context.Context, rawurl string, v interface{}) error {
	data, err := c.get(ctx, rawurl)
	if err != nil {
		return err
	}
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(v); err != nil {
		return modlauncher.InvalidDescriptor("decode %q: %v", rawurl, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, rawurl string) ([]byte, error) {
	if data, ok := c.docs.Get(rawurl); ok {
		return data, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawurl, nil)
	if err != nil {
		return nil, modlauncher.Transport(rawurl, err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, modlauncher.Transport(rawurl, err)
	}
	r := resp.Body
	defer func() {
		err := r.Close()
		if err != nil {
			log.Printf("close %q: %+v", rawurl, err)
		}
	}()
	if err := fetcher.CheckStatusCode(resp.StatusCode); err != nil {
		return nil, modlauncher.Transport(rawurl, err)
	}
	data, err := io.ReadAll(io.LimitReader(r, c.maxDocument()+1))
	if err != nil {
		return nil, modlauncher.Transport(rawurl, err)
	}
	if int64(len(data)) > c.maxDocument() {
		return nil, modlauncher.Transport(rawurl, fmt.Errorf("%w: over %d bytes", ErrTooLarge, c.maxDocument()))
	}
	c.docs.Add(rawurl, data)
	return data, nil
}
