// Package raster is the raster-capture document assembler. It executes the
// layout composer's instructions onto an in-memory bitmap at doubled pixel
// density, then embeds the capture in a single-page PDF or hands it to the
// print dispatcher. Unlike the vector backend it produces exactly one
// unlabeled copy.
package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/jung-kurt/gofpdf"
	"golang.org/x/image/font/basicfont"

	"github.com/clinova/rxdoc"
	"github.com/clinova/rxdoc/layout"
)

// Density is the capture pixel density multiplier.
const Density = 2

// pxPerMM converts layout millimeters to 96dpi pixels before density.
const pxPerMM = 96.0 / 25.4

// ptToMM converts font points to millimeters.
const ptToMM = 25.4 / 72.0

// Capture renders the document once, unlabeled, onto an opaque white bitmap
// at Density× resolution. The letterhead flag on the document is honored:
// stationery instructions are skipped while their space is preserved.
func Capture(doc *layout.Document) (img image.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = rxdoc.NewRenderError("Capture", fmt.Errorf("panic: %v", r))
		}
	}()

	if doc == nil || doc.Visit == nil {
		return nil, rxdoc.NewRenderError("Capture", rxdoc.ErrNilVisit)
	}
	ops, cerr := layout.Compose(doc, rxdoc.CopyNone)
	if cerr != nil {
		return nil, rxdoc.NewRenderError("Capture", cerr)
	}

	k := pxPerMM * Density
	c := &canvas{
		dc:       gg.NewContext(int(doc.Settings.PageW*k), int(doc.Settings.PageH*k)),
		k:        k,
		fontFile: doc.Settings.FontFile,
	}

	// Explicit opaque background so the watermark never bleeds through the
	// final raster.
	c.dc.SetRGB(1, 1, 1)
	c.dc.Clear()

	for _, op := range ops {
		if op.Stationery && doc.HideStationery {
			continue
		}
		switch op.Kind {
		case layout.OpText:
			c.drawText(op)
		case layout.OpImage:
			c.drawImage(op)
		case layout.OpLine:
			c.drawLine(op)
		case layout.OpRect:
			c.drawRect(op)
		case layout.OpWatermark:
			// Raster captures carry no copy label.
		}
	}

	return c.dc.Image(), nil
}

// CapturePDF captures the document and embeds the bitmap in a single-page
// PDF, scaled to fill the page width and clipped to the page height if the
// aspect ratio would overflow. Nothing is written to w on failure.
func CapturePDF(w io.Writer, doc *layout.Document) error {
	img, err := Capture(doc)
	if err != nil {
		return err
	}

	s := doc.Settings
	contentW := s.PageW - 2*s.Margin
	maxH := s.PageH - 2*s.Margin

	b := img.Bounds()
	drawH := contentW * float64(b.Dy()) / float64(b.Dx())
	if drawH > maxH {
		// Clip the overflow instead of distorting the aspect ratio.
		keep := int(float64(b.Dy()) * maxH / drawH)
		img = imaging.Crop(img, image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+keep))
		drawH = maxH
	}

	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		return rxdoc.NewRenderError("CapturePDF", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("capture", opts, &pngBuf)
	pdf.ImageOptions("capture", s.Margin, s.Margin, contentW, drawH, false, opts, 0, "")
	if pdf.Err() {
		return rxdoc.NewRenderError("CapturePDF", pdf.Error())
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return rxdoc.NewRenderError("CapturePDF", err)
	}
	if _, err := io.Copy(w, &out); err != nil {
		return rxdoc.NewRenderError("CapturePDF", err)
	}
	return nil
}

// CapturePNG captures the document and writes the raw bitmap.
func CapturePNG(w io.Writer, doc *layout.Document) error {
	img, err := Capture(doc)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return rxdoc.NewRenderError("CapturePNG", err)
	}
	return nil
}

// canvas realizes layout ops as gg drawing calls, converting millimeters to
// device pixels.
type canvas struct {
	dc       *gg.Context
	k        float64
	fontFile string
}

func (c *canvas) px(mm float64) float64 {
	return mm * c.k
}

func (c *canvas) setFont(spec layout.FontSpec) {
	if c.fontFile != "" {
		if err := c.dc.LoadFontFace(c.fontFile, spec.Size*ptToMM*c.k); err == nil {
			return
		}
	}
	c.dc.SetFontFace(basicfont.Face7x13)
}

func (c *canvas) setColor(col rxdoc.RGB, opacity float64) {
	a := 255
	if opacity > 0 && opacity < 1 {
		a = int(opacity * 255)
	}
	c.dc.SetRGBA255(col.R, col.G, col.B, a)
}

func (c *canvas) drawText(op layout.Op) {
	c.setFont(op.Font)
	c.setColor(op.Color, 0)

	y := c.px(op.Y) + c.px(op.H)/2
	switch op.Align {
	case "C":
		c.dc.DrawStringAnchored(op.Text, c.px(op.X)+c.px(op.W)/2, y, 0.5, 0.35)
	case "R":
		c.dc.DrawStringAnchored(op.Text, c.px(op.X)+c.px(op.W), y, 1, 0.35)
	default:
		c.dc.DrawStringAnchored(op.Text, c.px(op.X), y, 0, 0.35)
	}
}

func (c *canvas) drawImage(op layout.Op) {
	if op.Image == nil {
		return
	}
	w := int(c.px(op.W))
	h := int(c.px(op.H))
	if w < 1 || h < 1 {
		return
	}
	scaled := imaging.Resize(op.Image, w, h, imaging.Lanczos)

	var src image.Image = scaled
	if op.Opacity > 0 && op.Opacity < 1 {
		faded := image.NewRGBA(scaled.Bounds())
		mask := image.NewUniform(color.Alpha{A: uint8(op.Opacity * 255)})
		draw.DrawMask(faded, faded.Bounds(), scaled, image.Point{}, mask, image.Point{}, draw.Over)
		src = faded
	}

	c.dc.DrawImage(src, int(c.px(op.X)), int(c.px(op.Y)))
	if op.Border {
		c.setColor(layout.SeparatorGray, 0)
		c.dc.SetLineWidth(1)
		c.dc.DrawRectangle(c.px(op.X), c.px(op.Y), c.px(op.W), c.px(op.H))
		c.dc.Stroke()
	}
}

func (c *canvas) drawLine(op layout.Op) {
	c.setColor(op.Color, 0)
	c.dc.SetLineWidth(op.LineWidth * c.k * 0.5)
	c.dc.DrawLine(c.px(op.X), c.px(op.Y), c.px(op.X+op.W), c.px(op.Y))
	c.dc.Stroke()
}

func (c *canvas) drawRect(op layout.Op) {
	if op.Fill != nil {
		c.setColor(*op.Fill, 0)
		c.dc.DrawRectangle(c.px(op.X), c.px(op.Y), c.px(op.W), c.px(op.H))
		c.dc.Fill()
	}
	if op.Border || op.Fill == nil {
		c.setColor(rxdoc.RGB{R: 60, G: 60, B: 60}, 0)
		c.dc.SetLineWidth(1)
		c.dc.DrawRectangle(c.px(op.X), c.px(op.Y), c.px(op.W), c.px(op.H))
		c.dc.Stroke()
	}
}
