// Package res loads the files a map definition refers to: datasources,
// marker symbols, background images and fonts. References may be local
// paths, http(s) URLs or RFC 2397 data URLs.
package res

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// ErrNotFound is returned when a local reference exists neither relative to
// the base nor in any search path.
var ErrNotFound = errors.New("resource not found")

// Kind classifies a resource by its content.
type Kind int

const (
	KindUnknown Kind = iota
	KindImage
	KindFont
	// KindData is vector data such as GeoJSON.
	KindData
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindFont:
		return "font"
	case KindData:
		return "data"
	case KindOther:
		return "other"
	}
	return "unknown"
}

// Resource is a loaded file.
type Resource struct {
	// Ref is the reference as resolved against the loader base.
	Ref      string
	Kind     Kind
	Data     []byte
	MimeType string
}

// Reader returns a reader over the resource data.
func (r *Resource) Reader() *bytes.Reader {
	return bytes.NewReader(r.Data)
}

// Loader resolves and caches resources. It is safe for concurrent use.
type Loader struct {
	// Base is the file or URL relative references are resolved against.
	Base string

	mu    sync.RWMutex
	cache map[string]*Resource

	searchPaths []string
	client      *http.Client
	logger      *log.Logger
}

// NewLoader returns a loader resolving relative references against base.
func NewLoader(base string) *Loader {
	return &Loader{
		Base:   base,
		cache:  make(map[string]*Resource),
		client: &http.Client{},
		logger: log.Default(),
	}
}

// SetLogger replaces the logger used for cache and lookup messages.
func (l *Loader) SetLogger(logger *log.Logger) {
	if logger != nil {
		l.logger = logger
	}
}

// SetHTTPClient replaces the client used for remote references.
func (l *Loader) SetHTTPClient(c *http.Client) {
	l.client = c
}

// AddSearchPath adds a directory searched by file name when a local
// reference does not exist.
func (l *Loader) AddSearchPath(dir string) {
	l.searchPaths = append(l.searchPaths, dir)
}

// Load returns the resource ref points to, from the cache when it was
// loaded before.
func (l *Loader) Load(ctx context.Context, ref string) (*Resource, error) {
	l.mu.RLock()
	r, ok := l.cache[ref]
	l.mu.RUnlock()
	if ok {
		return r, nil
	}

	var err error
	switch {
	case strings.HasPrefix(ref, "data:"):
		r, err = parseDataURL(ref)
	default:
		var resolved string
		resolved, err = l.resolve(ref)
		if err != nil {
			return nil, err
		}
		if isRemote(resolved) {
			r, err = l.loadRemote(ctx, resolved)
		} else {
			r, err = l.loadLocal(resolved)
		}
	}
	if err != nil {
		return nil, err
	}
	l.logger.Debug("loaded resource", "ref", r.Ref, "kind", r.Kind, "bytes", len(r.Data))

	l.mu.Lock()
	l.cache[ref] = r
	l.mu.Unlock()
	return r, nil
}

// LoadKind is like Load but fails unless the resource is of kind k.
func (l *Loader) LoadKind(ctx context.Context, ref string, k Kind) (*Resource, error) {
	r, err := l.Load(ctx, ref)
	if err != nil {
		return nil, err
	}
	if r.Kind != k {
		return nil, fmt.Errorf("%s: %s is not %s", ref, r.Kind, k)
	}
	return r, nil
}

func isRemote(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// parseDataURL decodes data URLs such as
//
//	data:image/svg+xml;base64,PHN2Zy8+
//	data:application/geo+json,%7B%7D
func parseDataURL(u string) (*Resource, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(u, "data:"), ",")
	if !ok {
		return nil, errors.New("invalid data URL")
	}

	mime := "text/plain"
	isBase64 := false
	if meta != "" {
		parts := strings.Split(meta, ";")
		if parts[0] != "" {
			mime = parts[0]
		}
		for _, p := range parts[1:] {
			if strings.EqualFold(strings.TrimSpace(p), "base64") {
				isBase64 = true
			}
		}
	}

	var data []byte
	if isBase64 {
		d, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 data URL: %w", err)
		}
		data = d
	} else if d, err := url.PathUnescape(payload); err == nil {
		data = []byte(d)
	} else {
		data = []byte(payload)
	}

	return &Resource{Ref: "data:" + meta, Data: data, MimeType: mime, Kind: kindOf(mime, "")}, nil
}

func (l *Loader) resolve(ref string) (string, error) {
	if isRemote(ref) || filepath.IsAbs(ref) {
		return ref, nil
	}
	if !isRemote(l.Base) {
		base := l.Base
		if fi, err := os.Stat(base); err != nil || !fi.IsDir() {
			base = filepath.Dir(base)
		}
		return filepath.Join(base, ref), nil
	}

	base, err := url.Parse(l.Base)
	if err != nil {
		return "", err
	}
	rel, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(rel).String(), nil
}

func (l *Loader) loadRemote(ctx context.Context, u string) (*Resource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: %s", u, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	mime := resp.Header.Get("Content-Type")
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	if mime == "" || mime == "application/octet-stream" || mime == "text/plain" {
		mime = mimeOf(u)
	}
	return &Resource{Ref: u, Data: data, MimeType: mime, Kind: kindOf(mime, u)}, nil
}

func (l *Loader) loadLocal(path string) (*Resource, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return l.loadFromSearchPaths(path)
	}
	if err != nil {
		return nil, err
	}
	mime := mimeOf(path)
	return &Resource{Ref: path, Data: data, MimeType: mime, Kind: kindOf(mime, path)}, nil
}

func (l *Loader) loadFromSearchPaths(path string) (*Resource, error) {
	name := filepath.Base(path)
	for _, dir := range l.searchPaths {
		p := filepath.Join(dir, name)
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		l.logger.Debug("resource found in search path", "ref", path, "path", p)
		mime := mimeOf(p)
		return &Resource{Ref: p, Data: data, MimeType: mime, Kind: kindOf(mime, p)}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
}

func mimeOf(path string) string {
	if u, err := url.Parse(path); err == nil && u.Scheme != "" {
		path = u.Path
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".tiff", ".tif":
		return "image/tiff"
	case ".bmp":
		return "image/bmp"
	case ".svg":
		return "image/svg+xml"
	case ".ttf":
		return "font/ttf"
	case ".otf":
		return "font/otf"
	case ".geojson":
		return "application/geo+json"
	case ".json":
		return "application/json"
	}
	return "application/octet-stream"
}

func kindOf(mime, path string) Kind {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return KindImage
	case strings.HasPrefix(mime, "font/"):
		return KindFont
	case mime == "application/geo+json", mime == "application/json":
		return KindData
	}
	if path != "" && mimeOf(path) != "application/octet-stream" {
		return kindOf(mimeOf(path), "")
	}
	return KindOther
}
