package res

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLocalRelativeToBase(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "roads.geojson"), []byte(`{"type":"FeatureCollection","features":[]}`), 0o644))

	l := NewLoader(filepath.Join(dir, "map.toml"))
	r, err := l.Load(context.Background(), "roads.geojson")
	require.NoError(t, err)
	assert.Equal(t, KindData, r.Kind)
	assert.Equal(t, "application/geo+json", r.MimeType)
	assert.Equal(t, filepath.Join(dir, "roads.geojson"), r.Ref)

	// a directory base works too
	r, err = NewLoader(dir).Load(context.Background(), "roads.geojson")
	require.NoError(t, err)
	assert.Equal(t, KindData, r.Kind)
}

func TestLoadSearchPaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pin.svg"), []byte("<svg/>"), 0o644))

	l := NewLoader(filepath.Join(t.TempDir(), "map.toml"))
	_, err := l.Load(context.Background(), "icons/pin.svg")
	require.ErrorIs(t, err, ErrNotFound)

	l.AddSearchPath(dir)
	r, err := l.LoadKind(context.Background(), "icons/pin.svg", KindImage)
	require.NoError(t, err)
	assert.Equal(t, "image/svg+xml", r.MimeType)

	_, err = l.LoadKind(context.Background(), "icons/pin.svg", KindFont)
	assert.Error(t, err)
}

func TestLoadDataURL(t *testing.T) {
	l := NewLoader("")
	r, err := l.Load(context.Background(), "data:image/svg+xml;base64,PHN2Zy8+")
	require.NoError(t, err)
	assert.Equal(t, KindImage, r.Kind)
	assert.Equal(t, "<svg/>", string(r.Data))

	r, err = l.Load(context.Background(), "data:application/geo+json,%7B%22type%22%3A%22Point%22%7D")
	require.NoError(t, err)
	assert.Equal(t, KindData, r.Kind)
	assert.Equal(t, `{"type":"Point"}`, string(r.Data))

	_, err = l.Load(context.Background(), "data:nocomma")
	assert.Error(t, err)
	_, err = l.Load(context.Background(), "data:;base64,!!!")
	assert.Error(t, err)
}

func TestLoadRemoteCached(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(`{"type":"FeatureCollection","features":[]}`))
	}))
	defer srv.Close()

	l := NewLoader(srv.URL + "/maps/world.toml")
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = l.Load(context.Background(), "data/countries.geojson")
		}()
	}
	wg.Wait()

	r, err := l.Load(context.Background(), "data/countries.geojson")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/maps/data/countries.geojson", r.Ref)
	assert.Equal(t, KindData, r.Kind, "extension wins over a generic content type")
	assert.LessOrEqual(t, hits.Load(), int32(4))

	before := hits.Load()
	_, err = l.Load(context.Background(), "data/countries.geojson")
	require.NoError(t, err)
	assert.Equal(t, before, hits.Load())

	_, err = l.Load(context.Background(), srv.URL+"/missing.png")
	assert.ErrorContains(t, err, "404")
}

func TestLoadRemoteCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLoader("").Load(ctx, srv.URL+"/a.png")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestKindOf(t *testing.T) {
	tests := map[string]Kind{
		"a.png":      KindImage,
		"a.TTF":      KindFont,
		"a.geojson":  KindData,
		"a.txt":      KindOther,
		"http://x/y": KindOther,
	}
	for path, want := range tests {
		assert.Equal(t, want, kindOf(mimeOf(path), path), path)
	}
	assert.Equal(t, "image", KindImage.String())
	assert.Equal(t, "unknown", KindUnknown.String())
}
