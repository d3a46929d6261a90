package rxdoc

// Settings holds the presentation configuration shared by both rendering
// backends. Zero values are filled in by NewSettings.
type Settings struct {
	Currency      string  // currency glyph prefixed to money figures
	FooterCaption string  // caption printed at the bottom of every copy
	PageW         float64 // page width in millimeters
	PageH         float64 // page height in millimeters
	Margin        float64 // uniform page margin in millimeters
	FontFamily    string  // core font family for the vector backend
	FontFile      string  // optional TTF path for the raster backend
}

// Option is a functional option for configuring render Settings.
type Option func(*Settings)

// WithCurrency sets the currency glyph used for money figures.
func WithCurrency(glyph string) Option {
	return func(s *Settings) {
		s.Currency = glyph
	}
}

// WithFooterCaption sets the caption printed at the bottom of every copy.
func WithFooterCaption(caption string) Option {
	return func(s *Settings) {
		s.FooterCaption = caption
	}
}

// WithPageSize sets a custom page size in millimeters.
func WithPageSize(w, h float64) Option {
	return func(s *Settings) {
		s.PageW = w
		s.PageH = h
	}
}

// WithFontFamily sets the core font family for the vector backend.
// Use one of the built-in families: Helvetica, Courier, Times.
func WithFontFamily(family string) Option {
	return func(s *Settings) {
		s.FontFamily = family
	}
}

// WithFontFile sets a TTF font file used by the raster backend. When unset
// the raster backend falls back to a built-in bitmap face.
func WithFontFile(path string) Option {
	return func(s *Settings) {
		s.FontFile = path
	}
}

// NewSettings returns render Settings with defaults applied: portrait A4,
// 8mm margins, Helvetica, rupee currency glyph.
func NewSettings(opts ...Option) Settings {
	s := Settings{
		Currency:      "₹",
		FooterCaption: "Wishing you a speedy recovery",
		PageW:         210,
		PageH:         297,
		Margin:        8,
		FontFamily:    "Helvetica",
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
