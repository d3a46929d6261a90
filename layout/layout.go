// Package layout is the document composer: it maps one resolved visit record
// onto an ordered list of absolute-positioned draw instructions. The vector
// and raster backends only execute these instructions; every decision about
// what is shown, where, and in which color is made here so the two output
// paths cannot diverge.
package layout

import (
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/clinova/rxdoc"
	"github.com/clinova/rxdoc/assets"
	"github.com/clinova/rxdoc/format"
)

// OpKind identifies a draw instruction.
type OpKind int

const (
	OpText OpKind = iota
	OpImage
	OpLine
	OpRect
	OpWatermark // rotated translucent text, centered in its box
)

// FontSpec is the font variant for a text op. The family comes from the
// document settings.
type FontSpec struct {
	Style string // "", "B", "I"
	Size  float64
}

// Op is one absolute-positioned draw instruction in millimeters.
type Op struct {
	Kind      OpKind
	X, Y      float64
	W, H      float64
	Text      string
	Font      FontSpec
	Align     string // "L", "C", "R"
	Color     rxdoc.RGB
	Fill      *rxdoc.RGB
	Border    bool
	Image     image.Image
	Opacity   float64 // 0 means fully opaque
	LineWidth float64
	Angle     float64 // degrees, watermark rotation

	// Stationery marks ops that duplicate pre-printed letterhead stock
	// (header band, watermark image, separator band). Letterhead printing
	// skips them at execution time; their space is preserved because all
	// positions are absolute.
	Stationery bool

	// RasterOnly marks ops drawn only by the raster backend, such as the
	// "no image" photo placeholder. The vector backend leaves that space
	// empty instead.
	RasterOnly bool
}

// Accent colors are a presentation contract shared by both backends.
var (
	TemperamentColor   = rxdoc.RGB{R: 128, G: 0, B: 128}
	PulseColor         = rxdoc.RGB{R: 178, G: 34, B: 34}
	HistoryColor       = rxdoc.RGB{R: 0, G: 102, B: 153}
	ComplaintsColor    = rxdoc.RGB{R: 204, G: 85, B: 0}
	ImprovementColor   = rxdoc.RGB{R: 0, G: 128, B: 0}
	InvestigationColor = rxdoc.RGB{R: 72, G: 61, B: 139}
	DiagnosisColor     = rxdoc.RGB{R: 153, G: 0, B: 51}

	TableHeaderFill = rxdoc.RGB{R: 63, G: 81, B: 181}
	AccentRuleColor = rxdoc.RGB{R: 0, G: 102, B: 153}
	OrangeRuleColor = rxdoc.RGB{R: 255, G: 140, B: 0}
	SeparatorGray   = rxdoc.RGB{R: 170, G: 170, B: 170}

	PatientCopyColor = rxdoc.RGB{R: 0, G: 102, B: 153}
	OfficeCopyColor  = rxdoc.RGB{R: 153, G: 0, B: 51}
)

var (
	black = rxdoc.RGB{}
	white = rxdoc.RGB{R: 255, G: 255, B: 255}
)

// Document bundles everything one render needs: the visit, the product
// lookup, the column schema resolved once for the whole document, the loaded
// assets and the presentation settings.
type Document struct {
	Visit    *rxdoc.VisitRecord
	Products map[uuid.UUID]rxdoc.Product
	Schema   rxdoc.ColumnSchema
	Assets   assets.Bundle
	Settings rxdoc.Settings

	// HideStationery is the letterhead-mode flag. The print dispatcher sets
	// it around a capture and is responsible for clearing it on every exit
	// path.
	HideStationery bool
}

// NewDocument resolves the column schema and builds the product lookup for
// one render invocation. Nothing is cached across invocations.
func NewDocument(visit *rxdoc.VisitRecord, products []rxdoc.Product, bundle assets.Bundle, settings rxdoc.Settings) (*Document, error) {
	if visit == nil {
		return nil, rxdoc.ErrNilVisit
	}
	lookup := make(map[uuid.UUID]rxdoc.Product, len(products))
	for _, p := range products {
		lookup[p.ID] = p
	}
	return &Document{
		Visit:    visit,
		Products: lookup,
		Schema:   rxdoc.ResolveColumns(visit.Lines),
		Assets:   bundle,
		Settings: settings,
	}, nil
}

// Product resolves a line's linked product, or nil when the line has none or
// the identifier is unknown.
func (d *Document) Product(id *uuid.UUID) *rxdoc.Product {
	if id == nil {
		return nil
	}
	p, ok := d.Products[*id]
	if !ok {
		return nil
	}
	return &p
}

// OPDRef is the printed visit reference: the OPD number when present, else
// the visit identifier.
func (d *Document) OPDRef() string {
	if s := strings.TrimSpace(d.Visit.OPDNo); s != "" {
		return s
	}
	return d.Visit.ID.String()
}

// FileName is the download name for this document.
func (d *Document) FileName() string {
	return format.FileName(d.Visit.Patient, d.OPDRef())
}

// Compose maps the document onto its draw instructions for one copy. The
// block order is contractual: it encodes the physical paper layout, including
// the intentionally duplicated identity block and second photo placement.
func Compose(d *Document, label rxdoc.CopyLabel) ([]Op, error) {
	if d == nil || d.Visit == nil {
		return nil, rxdoc.ErrNilVisit
	}

	c := &composer{doc: d, s: d.Settings}
	v := d.Visit

	// Block 1: header asset band.
	c.image(d.Assets.Header, c.s.Margin, c.s.Margin, c.contentW(), 26, true)

	// Block 2: centered watermark image, under all following content,
	// offset upward from true center.
	c.watermarkImage(d.Assets.Watermark)

	// Block 3: patient header grid with photo.
	y := c.patientGrid(38)

	// Block 4: separator rule.
	c.rule(y+1, SeparatorGray)

	// Block 5: clinical block with per-field accent colors.
	y = c.clinicalBlock(y + 3)

	// Block 6: separator rule.
	c.rule(y+1, SeparatorGray)

	// Block 7: diagnosis emphasis line.
	c.text(c.s.Margin, y+3, c.contentW(), 5,
		"PROVISIONAL DIAGNOSIS: "+format.Text(v.ProvisionalDiagnosis),
		FontSpec{Style: "B", Size: 10.5}, "L", DiagnosisColor)
	y += 9

	// Block 8: primary line-item table.
	y = c.table(y+1, false)

	// Block 9: separator rule, separator asset band, accent rule.
	c.rule(y+2, SeparatorGray)
	c.image(d.Assets.Separator, c.s.Margin, y+3.5, c.contentW(), 5, true)
	c.rule(y+9.5, AccentRuleColor)
	y += 11

	// Block 10: second identity summary block with second photo placement.
	// The duplication against block 3 is deliberate: two independent
	// human-readable summaries per physical page.
	y = c.identitySummary(y + 1)

	// Block 11: orange separator rule.
	c.rule(y+1, OrangeRuleColor)

	// Block 12: secondary line-item table with leading units column.
	y = c.table(y+3, true)

	// Block 13: summary totals, right aligned.
	c.summaryRow(y + 2)

	// Block 14: footer caption and, when labeled, the copy watermark.
	c.text(c.s.Margin, c.s.PageH-12, c.contentW(), 5,
		c.s.FooterCaption, FontSpec{Style: "I", Size: 8.5}, "C", SeparatorGray)
	if label != rxdoc.CopyNone {
		c.copyWatermark(label)
	}

	return c.ops, nil
}

// composer accumulates ops while tracking document settings.
type composer struct {
	doc *Document
	s   rxdoc.Settings
	ops []Op
}

func (c *composer) contentW() float64 {
	return c.s.PageW - 2*c.s.Margin
}

func (c *composer) push(op Op) {
	c.ops = append(c.ops, op)
}

func (c *composer) text(x, y, w, h float64, text string, font FontSpec, align string, color rxdoc.RGB) {
	c.push(Op{Kind: OpText, X: x, Y: y, W: w, H: h, Text: text, Font: font, Align: align, Color: color})
}

func (c *composer) image(a assets.Result, x, y, w, h float64, stationery bool) {
	if !a.OK {
		return
	}
	c.push(Op{Kind: OpImage, X: x, Y: y, W: w, H: h, Image: a.Image, Stationery: stationery})
}

func (c *composer) rule(y float64, color rxdoc.RGB) {
	c.push(Op{Kind: OpLine, X: c.s.Margin, Y: y, W: c.contentW(), LineWidth: 0.4, Color: color})
}

func (c *composer) watermarkImage(a assets.Result) {
	if !a.OK {
		return
	}
	const side = 110.0
	c.push(Op{
		Kind:       OpImage,
		X:          (c.s.PageW - side) / 2,
		Y:          c.s.PageH/2 - side/2 - 18, // offset upward from true center
		W:          side,
		H:          side,
		Image:      a.Image,
		Opacity:    0.12,
		Stationery: true,
	})
}

// patientGrid emits block 3: a 4x4 logical grid of labeled identity fields
// with the photo box right-aligned spanning the rows. Returns the y below
// the block.
func (c *composer) patientGrid(y float64) float64 {
	v := c.doc.Visit
	p := v.Patient

	rows := [][2]string{
		{"OPD NO", format.Text(c.doc.OPDRef())},
		{"NAME", format.Text(p.FullName())},
		{"AGE", format.Text(p.Age)},
		{"DATE", format.Date(v.Date)},
		{"S/O", format.Text(p.FatherName)},
		{"GENDER", format.Text(p.Gender)},
		{"PHONE", format.Text(p.Phone)},
		{"ADDRESS", format.Text(p.Address)},
		{"VISIT NO", strconv.Itoa(v.SequenceNo)},
		{"WEIGHT", format.Text(v.Weight)},
		{"", ""},
		{"HEIGHT", format.Text(v.Height)},
	}

	const rowH = 5.0
	colX := []float64{c.s.Margin, c.s.Margin + 56, c.s.Margin + 116}
	colW := []float64{54, 58, 44}

	for i, cell := range rows {
		if cell[0] == "" {
			continue
		}
		row, col := i/3, i%3
		c.text(colX[col], y+float64(row)*rowH, colW[col], rowH,
			cell[0]+": "+cell[1], FontSpec{Size: 8.5}, "L", black)
	}

	c.photoBox(c.s.PageW-c.s.Margin-26, y, 26, 30)

	return y + 4*rowH + 2
}

// photoBox places the patient photo, or the raster-only "no image" treatment
// when both photo stages failed.
func (c *composer) photoBox(x, y, w, h float64) {
	if c.doc.Assets.Photo.OK {
		c.push(Op{Kind: OpImage, X: x, Y: y, W: w, H: h, Image: c.doc.Assets.Photo.Image, Border: true})
		return
	}
	c.push(Op{Kind: OpRect, X: x, Y: y, W: w, H: h, Border: true, RasterOnly: true})
	c.push(Op{Kind: OpText, X: x, Y: y + h/2 - 2, W: w, H: 4, Text: "NO IMAGE",
		Font: FontSpec{Size: 6.5}, Align: "C", Color: SeparatorGray, RasterOnly: true})
}

// clinicalBlock emits block 5: the five-row left column and two-row right
// column of clinical narrative fields, each in its accent color.
func (c *composer) clinicalBlock(y float64) float64 {
	v := c.doc.Visit

	pulse := format.Text(v.PulseDiagnosis1)
	if strings.TrimSpace(v.PulseDiagnosis2) != "" {
		pulse += " / " + format.Text(v.PulseDiagnosis2)
	}

	left := []struct {
		label, value string
		color        rxdoc.RGB
	}{
		{"TEMPERAMENT", format.Text(v.Temperament), TemperamentColor},
		{"PULSE DIAGNOSIS", pulse, PulseColor},
		{"HISTORY/REPORTS", format.Text(v.History), HistoryColor},
		{"MAJOR COMPLAINTS", format.Text(v.Complaints), ComplaintsColor},
		{"IMPROVEMENTS", format.Text(v.Improvements), ImprovementColor},
	}
	right := []struct {
		label, value string
		color        rxdoc.RGB
	}{
		{"INVESTIGATIONS", format.Text(v.Investigations), InvestigationColor},
		{"PROVISIONAL DIAGNOSIS", format.Text(v.ProvisionalDiagnosis), DiagnosisColor},
	}

	const rowH = 5.5
	for i, f := range left {
		c.text(c.s.Margin, y+float64(i)*rowH, 112, rowH,
			f.label+": "+f.value, FontSpec{Size: 8.5}, "L", f.color)
	}
	rx := c.s.Margin + 116
	for i, f := range right {
		c.text(rx, y+float64(i)*rowH, c.s.PageW-c.s.Margin-rx, rowH,
			f.label+": "+f.value, FontSpec{Size: 8.5}, "L", f.color)
	}

	return y + float64(len(left))*rowH + 1
}

// identitySummary emits block 10: the 6+3+3+3+2 column sub-rows duplicating
// a subset of the header data, plus the second photo placement.
func (c *composer) identitySummary(y float64) float64 {
	v := c.doc.Visit
	p := v.Patient
	cur := c.s.Currency

	rows := [][]string{
		{
			"OPD NO: " + format.Text(c.doc.OPDRef()),
			"NAME: " + format.Text(p.FullName()),
			"AGE: " + format.Text(p.Age),
			"GENDER: " + format.Text(p.Gender),
			"DATE: " + format.Date(v.Date),
			"VISIT NO: " + strconv.Itoa(v.SequenceNo),
		},
		{
			"S/O: " + format.Text(p.FatherName),
			"PHONE: " + format.Text(p.Phone),
			"WEIGHT: " + format.Text(v.Weight),
		},
		{
			"HEIGHT: " + format.Text(v.Height),
			"D.O.B: " + format.Date(p.DateOfBirth),
			"NEXT VISIT: " + format.Date(v.NextVisit),
		},
		{
			"AMOUNT: " + format.Amount(cur, v.Amount),
			"DISCOUNT: " + format.Amount(cur, v.Discount),
			"FINAL: " + format.Amount(cur, format.FinalAmount(v.Amount, v.Discount)),
		},
		{
			"ADDRESS: " + format.Text(p.Address),
			"DIAGNOSIS: " + format.Text(v.ProvisionalDiagnosis),
		},
	}

	const rowH = 4.5
	gridW := c.contentW() - 30 // keep clear of the photo box
	for r, cells := range rows {
		cw := gridW / float64(len(cells))
		for i, cell := range cells {
			c.text(c.s.Margin+float64(i)*cw, y+float64(r)*rowH, cw-1, rowH,
				cell, FontSpec{Size: 7}, "L", black)
		}
	}

	c.photoBox(c.s.PageW-c.s.Margin-24, y, 24, float64(len(rows))*rowH)

	return y + float64(len(rows))*rowH + 1
}

// summaryRow emits block 13: the right-aligned totals line.
func (c *composer) summaryRow(y float64) {
	v := c.doc.Visit

	totalUnits := 0
	for _, ln := range v.Lines {
		totalUnits += format.UnitsRemaining(c.doc.Product(ln.ProductID), ln)
	}
	days := format.DaysUntilNextVisit(v.Date, v.NextVisit)
	final := format.FinalAmount(v.Amount, v.Discount)

	summary := fmt.Sprintf("UNITS REMAINING: %d   |   MEDICINES: %d   |   NEXT VISIT IN: %d DAYS   |   FINAL AMOUNT: %s",
		totalUnits, len(v.Lines), days, format.Amount(c.s.Currency, final))
	c.text(c.s.Margin, y, c.contentW(), 5, summary, FontSpec{Style: "B", Size: 8.5}, "R", black)
}

// copyWatermark emits block 14's large centered copy-label text in the
// label-specific color. Vector backend only; raster captures carry no label.
func (c *composer) copyWatermark(label rxdoc.CopyLabel) {
	color := PatientCopyColor
	if label == rxdoc.CopyOffice {
		color = OfficeCopyColor
	}
	c.push(Op{
		Kind:    OpWatermark,
		X:       c.s.PageW / 2,
		Y:       c.s.PageH / 2,
		Text:    string(label),
		Font:    FontSpec{Style: "B", Size: 52},
		Color:   color,
		Opacity: 0.14,
		Angle:   45,
	})
}
