package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"

	"github.com/andybalholm/cascadia"
	"github.com/dustin/go-humanize"

	"github.com/tie/modlauncher/modlauncher"
)

var (
	ErrNotFound     = errors.New("http: resource not found")
	ErrForbidden    = errors.New("http: access forbidden")
	ErrUnauthorized = errors.New("http: unauthorized")
	ErrServerError  = errors.New("http: server error")
	ErrBadStatus    = errors.New("http: unexpected status")
)

// ProgressFunc is called with the bytes received so far and the expected
// total, or -1 if the total is unknown.
type ProgressFunc func(done, total int64)

// Downloader fetches the full body at rawurl.
type Downloader interface {
	Download(ctx context.Context, rawurl string, fn ProgressFunc) ([]byte, error)
}

// HTTPDownloader downloads over HTTP. HTML pages answering a download are
// treated as ad landing pages: the first element matching AdPage is
// followed once.
type HTTPDownloader struct {
	Client *http.Client

	// AdPage selects the link to the actual file. Disabled if nil.
	AdPage cascadia.Selector
}

func NewHTTPDownloader(c *http.Client) *HTTPDownloader {
	return &HTTPDownloader{
		Client: c,
		AdPage: defaultAdPage,
	}
}

func (dl *HTTPDownloader) client() *http.Client {
	if dl.Client == nil {
		return http.DefaultClient
	}
	return dl.Client
}

func (dl *HTTPDownloader) Download(ctx context.Context, rawurl string, fn ProgressFunc) ([]byte, error) {
	data, isPage, err := dl.fetch(ctx, rawurl, fn, dl.AdPage != nil)
	if err != nil || !isPage {
		return data, err
	}
	next, err := adPageLink(dl.AdPage, rawurl, bytes.NewReader(data))
	if err != nil {
		return nil, modlauncher.Transport(rawurl, err)
	}
	log.Printf("skip ad page %q: %q", rawurl, next)
	data, _, err = dl.fetch(ctx, next, fn, false)
	return data, err
}

// fetch reads the body at rawurl. If skipPages is set and the response is
// an HTML page, the page is returned with isPage set and fn is not called.
func (dl *HTTPDownloader) fetch(ctx context.Context, rawurl string, fn ProgressFunc, skipPages bool) (data []byte, isPage bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawurl, nil)
	if err != nil {
		return nil, false, modlauncher.Transport(rawurl, err)
	}
	resp, err := dl.client().Do(req)
	if err != nil {
		return nil, false, modlauncher.Transport(rawurl, err)
	}
	r := resp.Body
	defer func() {
		err := r.Close()
		if err != nil {
			log.Printf("close %q: %+v", rawurl, err)
		}
	}()
	if err := CheckStatusCode(resp.StatusCode); err != nil {
		return nil, false, modlauncher.Transport(rawurl, err)
	}

	if skipPages {
		mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
		if mediaType == "text/html" {
			page, err := io.ReadAll(io.LimitReader(r, maxAdPage))
			if err != nil {
				return nil, false, modlauncher.Transport(rawurl, err)
			}
			return page, true, nil
		}
	}

	total := resp.ContentLength
	if fn == nil {
		fn = func(int64, int64) {}
	}
	var buf bytes.Buffer
	if total > 0 {
		buf.Grow(int(total))
	}
	fn(0, total)
	cr := &countingReader{r: r, total: total, fn: fn}
	if _, err := io.Copy(&buf, cr); err != nil {
		return nil, false, modlauncher.Transport(rawurl, err)
	}
	if total < 0 {
		// Report completion against the observed size.
		fn(cr.done, cr.done)
	}
	log.Printf("download %q: %s", rawurl, humanize.IBytes(uint64(cr.done)))
	return buf.Bytes(), false, nil
}

// CheckStatusCode maps an HTTP status code to one of the status errors.
func CheckStatusCode(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusForbidden:
		return ErrForbidden
	case code == http.StatusUnauthorized:
		return ErrUnauthorized
	case code >= 500:
		return fmt.Errorf("%w: %d", ErrServerError, code)
	}
	return fmt.Errorf("%w: %d", ErrBadStatus, code)
}

type countingReader struct {
	r     io.Reader
	done  int64
	total int64
	fn    ProgressFunc
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		cr.done += int64(n)
		cr.fn(cr.done, cr.total)
	}
	return n, err
}
