// Package assets loads the external bitmap assets embedded in the printed
// document: clinic header, watermark, separator band and patient photo.
//
// Loads always resolve to a definite outcome. A failed fetch or decode
// yields an absent Result and a log entry; it never aborts the surrounding
// document. Each load is independent, so one failing asset cannot block or
// delay the others beyond its own wait.
package assets

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTimeout bounds a single asset fetch.
const DefaultTimeout = 5 * time.Second

// Result is the definite outcome of one asset load. When OK is false the
// composer renders the asset's space blank.
type Result struct {
	Image image.Image
	OK    bool
}

// URLs names the stationery and photo assets of one document.
type URLs struct {
	Header    string
	Watermark string
	Separator string
	Photo     string // patient photo, primary URL
}

// Bundle holds the resolved assets for one document render.
type Bundle struct {
	Header    Result
	Watermark Result
	Separator Result
	Photo     Result
}

// Loader fetches and decodes remote images with cross-origin requests
// enabled and a per-load timeout.
type Loader struct {
	client       *http.Client
	log          zerolog.Logger
	timeout      time.Duration
	defaultPhoto string
}

// NewLoader creates a Loader. defaultPhoto is the placeholder image tried
// when a patient's primary photo fails; it may be empty.
func NewLoader(log zerolog.Logger, timeout time.Duration, defaultPhoto string) *Loader {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Loader{
		client:       &http.Client{},
		log:          log,
		timeout:      timeout,
		defaultPhoto: defaultPhoto,
	}
}

// Load fetches and decodes a single image. Any failure resolves to an
// absent Result rather than an error.
func (l *Loader) Load(ctx context.Context, url string) Result {
	if url == "" {
		return Result{}
	}
	img, err := l.fetch(ctx, url)
	if err != nil {
		l.log.Warn().Str("url", url).Err(err).Msg("asset load failed, rendering without it")
		return Result{}
	}
	return Result{Image: img, OK: true}
}

// LoadPhoto fetches the patient photo with a two-stage fallback: the primary
// URL first, then the configured default placeholder. When both fail the
// Result is absent and the backends draw their own "no image" treatment.
func (l *Loader) LoadPhoto(ctx context.Context, url string) Result {
	if r := l.Load(ctx, url); r.OK {
		return r
	}
	if l.defaultPhoto == "" || l.defaultPhoto == url {
		return Result{}
	}
	return l.Load(ctx, l.defaultPhoto)
}

// LoadAll resolves every asset of a document. Loads run sequentially; the
// document is composed top to bottom and each block waits only for its own
// assets.
func (l *Loader) LoadAll(ctx context.Context, u URLs) Bundle {
	return Bundle{
		Header:    l.Load(ctx, u.Header),
		Watermark: l.Load(ctx, u.Watermark),
		Separator: l.Load(ctx, u.Separator),
		Photo:     l.LoadPhoto(ctx, u.Photo),
	}
}

func (l *Loader) fetch(ctx context.Context, url string) (image.Image, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("assets: building request: %w", err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("assets: fetching: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("assets: fetching: status %d", resp.StatusCode)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("assets: decoding: %w", err)
	}
	return img, nil
}
