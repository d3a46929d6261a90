// Package vector is the vector-drawing document assembler. It executes the
// layout composer's instructions as PDF drawing commands and produces the
// two-copy (patient/office) downloadable document.
package vector

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/jung-kurt/gofpdf"
	"github.com/rs/zerolog"

	"github.com/clinova/rxdoc"
	"github.com/clinova/rxdoc/layout"
)

// copies is the fixed page set of the vector document: the office copy
// always follows the patient copy.
var copies = []rxdoc.CopyLabel{rxdoc.CopyPatient, rxdoc.CopyOffice}

// Generator assembles the two-page vector document for a visit.
type Generator struct {
	log zerolog.Logger
}

// New creates a Generator.
func New(log zerolog.Logger) *Generator {
	return &Generator{log: log}
}

// Generate writes the complete two-page document to w. Both pages share the
// document's single column schema. Any failure, including a drawing panic or
// a canceled context, is returned as a RenderError and nothing is written to
// w: the partial document is discarded.
func (g *Generator) Generate(ctx context.Context, w io.Writer, doc *layout.Document) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = rxdoc.NewRenderError("Generate", fmt.Errorf("panic: %v", r))
		}
	}()

	if doc == nil || doc.Visit == nil {
		return rxdoc.NewRenderError("Generate", rxdoc.ErrNilVisit)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for pageIdx, label := range copies {
		if cerr := ctx.Err(); cerr != nil {
			return rxdoc.NewRenderError("Generate", cerr)
		}
		ops, cerr := layout.Compose(doc, label)
		if cerr != nil {
			return rxdoc.NewRenderError("Generate", cerr)
		}
		pdf.AddPage()
		ex := executor{pdf: pdf, tr: tr, family: doc.Settings.FontFamily, page: pageIdx}
		ex.run(ops, doc.HideStationery)
		g.drawBarcode(pdf, doc, pageIdx)
	}

	if pdf.Err() {
		return rxdoc.NewRenderError("Generate", pdf.Error())
	}

	var buf bytes.Buffer
	if oerr := pdf.Output(&buf); oerr != nil {
		return rxdoc.NewRenderError("Generate", oerr)
	}
	if _, werr := io.Copy(w, &buf); werr != nil {
		return rxdoc.NewRenderError("Generate", werr)
	}
	return nil
}

// FileName is the download name for the generated document.
func (g *Generator) FileName(doc *layout.Document) string {
	return doc.FileName()
}

// drawBarcode stamps a Code 128 of the visit reference into the footer.
// Encoding failures are treated like asset failures: logged, space left
// blank, never fatal.
func (g *Generator) drawBarcode(pdf *gofpdf.Fpdf, doc *layout.Document, page int) {
	bc, err := code128.Encode(doc.OPDRef())
	if err != nil {
		g.log.Warn().Err(err).Msg("barcode encode failed, omitting")
		return
	}
	scaled, err := barcode.Scale(bc, 240, 48)
	if err != nil {
		g.log.Warn().Err(err).Msg("barcode scale failed, omitting")
		return
	}

	// The barcode image is 16-bit grayscale, which gofpdf's PNG parser
	// rejects; redraw it at 8-bit depth before embedding.
	rgba := image.NewRGBA(scaled.Bounds())
	draw.Draw(rgba, rgba.Bounds(), scaled, scaled.Bounds().Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, rgba); err != nil {
		g.log.Warn().Err(err).Msg("barcode encode failed, omitting")
		return
	}
	name := fmt.Sprintf("barcode-%d", page)
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(name, opts, &buf)
	pdf.ImageOptions(name, doc.Settings.Margin, doc.Settings.PageH-18, 40, 8, false, opts, 0, "")
}

// executor realizes layout ops as gofpdf drawing calls.
type executor struct {
	pdf    *gofpdf.Fpdf
	tr     func(string) string
	family string
	page   int
	images int
}

func (e *executor) run(ops []layout.Op, hideStationery bool) {
	for _, op := range ops {
		if op.RasterOnly {
			continue
		}
		if op.Stationery && hideStationery {
			continue
		}
		switch op.Kind {
		case layout.OpText:
			e.drawText(op)
		case layout.OpImage:
			e.drawImage(op)
		case layout.OpLine:
			e.drawLine(op)
		case layout.OpRect:
			e.drawRect(op)
		case layout.OpWatermark:
			e.drawWatermark(op)
		}
	}
}

func (e *executor) drawText(op layout.Op) {
	e.pdf.SetFont(e.family, op.Font.Style, op.Font.Size)
	e.pdf.SetTextColor(op.Color.R, op.Color.G, op.Color.B)
	e.pdf.SetXY(op.X, op.Y)
	e.pdf.CellFormat(op.W, op.H, e.tr(op.Text), "", 0, op.Align, false, 0, "")
	e.pdf.SetTextColor(0, 0, 0)
}

func (e *executor) drawImage(op layout.Op) {
	if op.Image == nil {
		return
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, op.Image); err != nil {
		// Undecodable asset: leave its space blank, same as a failed load.
		return
	}
	e.images++
	name := fmt.Sprintf("img-%d-%d", e.page, e.images)
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	e.pdf.RegisterImageOptionsReader(name, opts, &buf)

	if op.Opacity > 0 && op.Opacity < 1 {
		e.pdf.SetAlpha(op.Opacity, "Normal")
		defer e.pdf.SetAlpha(1.0, "Normal")
	}
	e.pdf.ImageOptions(name, op.X, op.Y, op.W, op.H, false, opts, 0, "")
	if op.Border {
		e.pdf.Rect(op.X, op.Y, op.W, op.H, "D")
	}
}

func (e *executor) drawLine(op layout.Op) {
	e.pdf.SetDrawColor(op.Color.R, op.Color.G, op.Color.B)
	if op.LineWidth > 0 {
		e.pdf.SetLineWidth(op.LineWidth)
	}
	e.pdf.Line(op.X, op.Y, op.X+op.W, op.Y)
	e.pdf.SetDrawColor(0, 0, 0)
	e.pdf.SetLineWidth(0.2)
}

func (e *executor) drawRect(op layout.Op) {
	style := "D"
	if op.Fill != nil {
		e.pdf.SetFillColor(op.Fill.R, op.Fill.G, op.Fill.B)
		style = "F"
		if op.Border {
			style = "FD"
		}
	}
	e.pdf.SetDrawColor(60, 60, 60)
	e.pdf.SetLineWidth(0.15)
	e.pdf.Rect(op.X, op.Y, op.W, op.H, style)
	e.pdf.SetDrawColor(0, 0, 0)
	e.pdf.SetLineWidth(0.2)
}

// drawWatermark renders the rotated translucent copy label centered on the
// page.
func (e *executor) drawWatermark(op layout.Op) {
	e.pdf.SetFont(e.family, op.Font.Style, op.Font.Size)
	e.pdf.SetTextColor(op.Color.R, op.Color.G, op.Color.B)
	e.pdf.SetAlpha(op.Opacity, "Normal")

	textW := e.pdf.GetStringWidth(op.Text)
	e.pdf.TransformBegin()
	e.pdf.TransformRotate(op.Angle, op.X, op.Y)
	e.pdf.Text(op.X-textW/2, op.Y+op.Font.Size/3*0.3528, e.tr(op.Text))
	e.pdf.TransformEnd()

	e.pdf.SetAlpha(1.0, "Normal")
	e.pdf.SetTextColor(0, 0, 0)
}
