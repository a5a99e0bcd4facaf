package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/akrylysov/pogreb"
	"github.com/akrylysov/pogreb/fs"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tie/modlauncher/modlauncher"
)

func TestDownloadProgress(t *testing.T) {
	body := bytes.Repeat([]byte("x"), 64*1024)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/java-archive")
		w.Header().Set("Content-Length", fmt.Sprint(len(body)))
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	var calls [][2]int64
	dl := NewHTTPDownloader(srv.Client())
	data, err := dl.Download(context.Background(), srv.URL+"/mod.jar", func(done, total int64) {
		calls = append(calls, [2]int64{done, total})
	})
	require.NoError(t, err)
	assert.Equal(t, body, data)

	require.NotEmpty(t, calls)
	assert.Equal(t, [2]int64{0, int64(len(body))}, calls[0])
	assert.Equal(t, [2]int64{int64(len(body)), int64(len(body))}, calls[len(calls)-1])
	for i := 1; i < len(calls); i++ {
		assert.GreaterOrEqual(t, calls[i][0], calls[i-1][0])
	}
}

func TestDownloadUnknownLength(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.(http.Flusher).Flush()
		_, _ = w.Write([]byte("chunked"))
	}))
	defer srv.Close()

	var last [2]int64
	_, err := NewHTTPDownloader(srv.Client()).Download(context.Background(), srv.URL, func(done, total int64) {
		last = [2]int64{done, total}
	})
	require.NoError(t, err)
	assert.Equal(t, [2]int64{7, 7}, last)
}

func TestDownloadStatus(t *testing.T) {
	tests := []struct {
		code int
		want error
	}{
		{http.StatusNotFound, ErrNotFound},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusBadGateway, ErrServerError},
		{http.StatusTeapot, ErrBadStatus},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.code)
		}))
		_, err := NewHTTPDownloader(srv.Client()).Download(context.Background(), srv.URL, nil)
		srv.Close()
		assert.ErrorIs(t, err, tt.want, tt.code)
		assert.ErrorIs(t, err, modlauncher.ErrTransport, tt.code)
	}
}

func TestCheckStatusCode(t *testing.T) {
	assert.NoError(t, CheckStatusCode(http.StatusOK))
	assert.NoError(t, CheckStatusCode(http.StatusNoContent))
	assert.ErrorIs(t, CheckStatusCode(http.StatusNotFound), ErrNotFound)
	assert.ErrorIs(t, CheckStatusCode(http.StatusServiceUnavailable), ErrServerError)
	assert.ErrorIs(t, CheckStatusCode(http.StatusNotModified), ErrBadStatus)
}

func TestDownloadSkipsAdPage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/adloadx", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><body><div id="Download"><a href="downloadx?f=mod.jar&amp;x=1">Download</a></div></body></html>`)
	})
	mux.HandleFunc("/downloadx", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "mod.jar", r.URL.Query().Get("f"))
		w.Header().Set("Content-Type", "application/octet-stream")
		fmt.Fprint(w, "real jar")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	data, err := NewHTTPDownloader(srv.Client()).Download(context.Background(), srv.URL+"/adloadx?f=mod.jar", nil)
	require.NoError(t, err)
	assert.Equal(t, "real jar", string(data))
}

func TestDownloadAdPageProgress(t *testing.T) {
	body := strings.Repeat("j", 4096)
	mux := http.NewServeMux()
	mux.HandleFunc("/ad", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<div id="Download"><a href="/file.jar">Download</a></div>`)
	})
	mux.HandleFunc("/file.jar", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", fmt.Sprint(len(body)))
		fmt.Fprint(w, body)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	var calls [][2]int64
	data, err := NewHTTPDownloader(srv.Client()).Download(context.Background(), srv.URL+"/ad", func(done, total int64) {
		calls = append(calls, [2]int64{done, total})
	})
	require.NoError(t, err)
	assert.Equal(t, body, string(data))

	require.NotEmpty(t, calls)
	assert.Equal(t, [2]int64{0, int64(len(body))}, calls[0])
	for i := 1; i < len(calls); i++ {
		assert.GreaterOrEqual(t, calls[i][0], calls[i-1][0], "progress went backwards at %d", i)
		assert.Equal(t, int64(len(body)), calls[i][1])
	}
	assert.Equal(t, int64(len(body)), calls[len(calls)-1][0])
}

func TestDownloadAdPageWithoutLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><p>nothing here</p></body></html>`)
	}))
	defer srv.Close()

	_, err := NewHTTPDownloader(srv.Client()).Download(context.Background(), srv.URL, nil)
	assert.ErrorIs(t, err, ErrUnexpectedNode)
	assert.ErrorIs(t, err, modlauncher.ErrTransport)

	dl := NewHTTPDownloader(srv.Client())
	dl.AdPage = nil
	data, err := dl.Download(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Contains(t, string(data), "nothing here")
}

func TestAdPageLink(t *testing.T) {
	page := `<div id="Download"><a href="/files/a.jar">x</a></div>`
	link, err := adPageLink(defaultAdPage, "https://example.com/adloadx?f=a", strings.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/files/a.jar", link)
}

func newIndex(t *testing.T) *pogreb.DB {
	t.Helper()
	db, err := pogreb.Open(filepath.Join(t.TempDir(), "index"), &pogreb.Options{
		FileSystem: fs.Mem,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, db.Close())
	})
	return db
}

func newCache(t *testing.T) *Cache {
	return &Cache{
		Files: memfs.New(),
		Dir:   "mod_cache",
		Index: newIndex(t),
		now:   func() time.Time { return time.Unix(1700000000, 0).UTC() },
	}
}

func readAll(t *testing.T, files billy.Filesystem, name string) []byte {
	t.Helper()
	data, err := util.ReadFile(files, name)
	require.NoError(t, err)
	return data
}

func TestCachePutHas(t *testing.T) {
	c := newCache(t)
	require.NoError(t, c.Init())

	const key = "maven/a/b/1/b-1.jar"
	ok, err := c.Has(key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(key, "https://repo/a/b/1/b-1.jar", []byte("hello")))

	ok, err = c.Has(key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("hello"), readAll(t, c.Files, c.Path(key)))

	// No temporary files are left next to the entry.
	infos, err := c.Files.ReadDir(c.Path("maven/a/b/1"))
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "b-1.jar", infos[0].Name())

	e, ok, err := c.Lookup(key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, key, e.Key)
	assert.Equal(t, "https://repo/a/b/1/b-1.jar", e.URL)
	assert.Equal(t, int64(5), e.Size)
	assert.Equal(t, []string{
		"md5:5d41402abc4b2a76b9719d911017c592",
		"sha1:aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d",
		"sha256:2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		"sha3-256:3338be694f50c5f338814986cdf0686453a888b84f424d792af4b9202398f392",
	}, e.Sums)
}

func TestCacheEntries(t *testing.T) {
	c := newCache(t)
	require.NoError(t, c.Put("direct/b.jar", "https://e/b", []byte("b")))
	require.NoError(t, c.Put("direct/a.jar", "https://e/a", []byte("a")))

	entries, err := c.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "direct/a.jar", entries[0].Key)
	assert.Equal(t, "direct/b.jar", entries[1].Key)

	_, ok, err := c.Lookup("direct/missing.jar")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheWithoutIndex(t *testing.T) {
	c := &Cache{Files: memfs.New()}
	require.NoError(t, c.Init())
	require.NoError(t, c.Put("direct/a.jar", "https://e/a", []byte("a")))

	f, err := c.Open("direct/a.jar")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	entries, err := c.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCacheOpenMissing(t *testing.T) {
	c := newCache(t)
	_, err := c.Open("direct/none.jar")
	assert.True(t, errors.Is(err, modlauncher.ErrFilesystem))
}
