package assets

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func pngBytes(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding fixture: %v", err)
	}
	return buf.Bytes()
}

func newTestLoader(defaultPhoto string) *Loader {
	return NewLoader(zerolog.Nop(), time.Second, defaultPhoto)
}

func TestLoadSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(pngBytes(t, color.White))
	}))
	defer srv.Close()

	r := newTestLoader("").Load(context.Background(), srv.URL)
	if !r.OK || r.Image == nil {
		t.Fatal("expected asset to resolve")
	}
}

func TestLoadFailuresResolveAbsent(t *testing.T) {
	notFound := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer notFound.Close()
	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not an image"))
	}))
	defer garbage.Close()

	l := newTestLoader("")
	for _, url := range []string{notFound.URL, garbage.URL, "http://127.0.0.1:1/nope", ""} {
		if r := l.Load(context.Background(), url); r.OK {
			t.Errorf("Load(%q): expected absent result", url)
		}
	}
}

func TestLoadTimeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write(pngBytes(t, color.White))
	}))
	defer slow.Close()

	l := NewLoader(zerolog.Nop(), 20*time.Millisecond, "")
	if r := l.Load(context.Background(), slow.URL); r.OK {
		t.Fatal("expected timeout to resolve absent")
	}
}

func TestLoadPhotoFallsBackToDefault(t *testing.T) {
	// Primary returns a decode error; the placeholder must be served instead
	// of a broken image.
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("corrupt"))
	}))
	defer broken.Close()
	placeholder := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(pngBytes(t, color.Black))
	}))
	defer placeholder.Close()

	l := newTestLoader(placeholder.URL)
	r := l.LoadPhoto(context.Background(), broken.URL)
	if !r.OK {
		t.Fatal("expected placeholder photo to resolve")
	}
}

func TestLoadPhotoBothStagesFail(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer broken.Close()

	l := newTestLoader(broken.URL + "/default")
	if r := l.LoadPhoto(context.Background(), broken.URL+"/photo"); r.OK {
		t.Fatal("expected absent result when both stages fail")
	}
}

func TestLoadAllIsolatesFailures(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(pngBytes(t, color.White))
	}))
	defer good.Close()

	b := newTestLoader("").LoadAll(context.Background(), URLs{
		Header:    good.URL,
		Watermark: "http://127.0.0.1:1/down",
		Separator: good.URL,
	})
	if !b.Header.OK || !b.Separator.OK {
		t.Error("healthy assets must resolve despite a failing sibling")
	}
	if b.Watermark.OK {
		t.Error("failing asset must resolve absent")
	}
	if b.Photo.OK {
		t.Error("unset photo must be absent")
	}
}
