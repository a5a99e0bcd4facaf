package fetcher

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"hash"
	"io"
	"log"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"golang.org/x/crypto/sha3"

	"github.com/akrylysov/pogreb"
	"github.com/go-git/go-billy/v5"

	"github.com/tie/modlauncher/modlauncher"
)

// Cache stores downloaded mods under Dir, keyed by the slash-separated
// cache path of their source. Entries are never invalidated.
//
// Index, if set, records where each entry came from and its checksums.
// It is informational only: an entry exists iff its file exists.
type Cache struct {
	Files billy.Filesystem
	Dir   string
	Index *pogreb.DB

	now func() time.Time
}

// Entry is the index record of a cache entry.
type Entry struct {
	Key     string    `json:"-"`
	URL     string    `json:"url"`
	Size    int64     `json:"size"`
	Sums    []string  `json:"sums"`
	Fetched time.Time `json:"fetched"`
}

// Init creates the cache directory.
func (c *Cache) Init() error {
	if err := c.Files.MkdirAll(c.dir(), 0755); err != nil {
		return modlauncher.Filesystem("mkdir", c.dir(), err)
	}
	return nil
}

func (c *Cache) dir() string {
	if c.Dir == "" {
		return "."
	}
	return c.Dir
}

// Path returns the filesystem path of key.
func (c *Cache) Path(key string) string {
	elem := append([]string{c.dir()}, strings.Split(key, "/")...)
	return c.Files.Join(elem...)
}

// Has reports whether an entry for key exists.
func (c *Cache) Has(key string) (bool, error) {
	fpath := c.Path(key)
	_, err := c.Files.Stat(fpath)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, modlauncher.Filesystem("stat", fpath, err)
	}
	return true, nil
}

// Open opens the entry for key for reading.
func (c *Cache) Open(key string) (billy.File, error) {
	fpath := c.Path(key)
	f, err := c.Files.Open(fpath)
	if err != nil {
		return nil, modlauncher.Filesystem("open", fpath, err)
	}
	return f, nil
}

// Put stores data as the entry for key. The entry appears atomically:
// data is written to a temporary file in the same directory and renamed.
func (c *Cache) Put(key, rawurl string, data []byte) (err error) {
	fpath := c.Path(key)
	dir := c.Path(path.Dir(key))
	if err := c.Files.MkdirAll(dir, 0755); err != nil {
		return modlauncher.Filesystem("mkdir", dir, err)
	}
	f, err := c.Files.TempFile(dir, ".tmp-")
	if err != nil {
		return modlauncher.Filesystem("create", dir, err)
	}
	tmp := f.Name()
	defer func() {
		if err == nil {
			return
		}
		if rerr := c.Files.Remove(tmp); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
			log.Printf("remove %q: %+v", tmp, rerr)
		}
	}()

	names, hashes := newHashes()
	ww := make([]io.Writer, 0, len(hashes)+1)
	for _, h := range hashes {
		ww = append(ww, h)
	}
	ww = append(ww, f)
	_, werr := io.MultiWriter(ww...).Write(data)
	cerr := f.Close()
	if werr != nil {
		return modlauncher.Filesystem("write", tmp, werr)
	}
	if cerr != nil {
		return modlauncher.Filesystem("close", tmp, cerr)
	}
	if err := c.Files.Rename(tmp, fpath); err != nil {
		return modlauncher.Filesystem("rename", fpath, err)
	}

	sums := make([]string, len(hashes))
	for i, name := range names {
		sums[i] = fmt.Sprintf("%s:%x", name, hashes[i].Sum(nil))
	}
	return c.record(Entry{
		Key:     key,
		URL:     rawurl,
		Size:    int64(len(data)),
		Sums:    sums,
		Fetched: c.clock(),
	})
}

func (c *Cache) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now().UTC()
}

func newHashes() ([]string, []hash.Hash) {
	names := []string{
		"md5",
		"sha1",
		"sha256",
		"sha3-256",
	}
	hashes := []hash.Hash{
		md5.New(),
		sha1.New(),
		sha256.New(),
		sha3.New256(),
	}
	return names, hashes
}

func (c *Cache) record(e Entry) error {
	if c.Index == nil {
		return nil
	}
	v, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := c.Index.Put([]byte(e.Key), v); err != nil {
		return modlauncher.Filesystem("index", e.Key, err)
	}
	return nil
}

// Lookup returns the index record for key.
func (c *Cache) Lookup(key string) (Entry, bool, error) {
	if c.Index == nil {
		return Entry{}, false, nil
	}
	v, err := c.Index.Get([]byte(key))
	if err != nil {
		return Entry{}, false, modlauncher.Filesystem("index", key, err)
	}
	if v == nil {
		return Entry{}, false, nil
	}
	var e Entry
	if err := json.Unmarshal(v, &e); err != nil {
		return Entry{}, false, fmt.Errorf("decode index entry %q: %w", key, err)
	}
	e.Key = key
	return e, true, nil
}

// Entries returns all index records sorted by key.
func (c *Cache) Entries() ([]Entry, error) {
	if c.Index == nil {
		return nil, nil
	}
	var entries []Entry
	it := c.Index.Items()
	for {
		k, v, err := it.Next()
		if errors.Is(err, pogreb.ErrIterationDone) {
			break
		}
		if err != nil {
			return nil, modlauncher.Filesystem("index", "", err)
		}
		var e Entry
		if err := json.Unmarshal(v, &e); err != nil {
			return nil, fmt.Errorf("decode index entry %q: %w", k, err)
		}
		e.Key = string(k)
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})
	return entries, nil
}
