package layout

import (
	"image"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinova/rxdoc"
	"github.com/clinova/rxdoc/assets"
)

func testVisit() *rxdoc.VisitRecord {
	pid := uuid.New()
	return &rxdoc.VisitRecord{
		ID:         uuid.New(),
		OPDNo:      "OPD-1042",
		Date:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		NextVisit:  time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		SequenceNo: 3,
		Weight:     "72kg",
		Height:     "170cm",

		Temperament:          "damvi",
		PulseDiagnosis1:      "balghami",
		PulseDiagnosis2:      "safravi",
		History:              "chronic gastritis",
		Complaints:           "acidity",
		Improvements:         "sleep better",
		Investigations:       "cbc",
		ProvisionalDiagnosis: "hyperacidity",

		Amount:   1000,
		Discount: 150,

		Patient: rxdoc.Patient{
			ID:        uuid.New(),
			FirstName: "Asha",
			LastName:  "Verma",
			Gender:    "Female",
			Age:       "34",
		},
		Lines: []rxdoc.PrescriptionLine{
			{ProductID: &pid, Comp1: "a1", Comp4: "X", Timing: "bd", Quantity: 2},
			{TreatmentPlan: "Custom Mix", Comp1: "b1", Quantity: 1},
		},
	}
}

func testDocument(t *testing.T, visit *rxdoc.VisitRecord) *Document {
	t.Helper()
	var products []rxdoc.Product
	for _, ln := range visit.Lines {
		if ln.ProductID != nil {
			products = append(products, rxdoc.Product{ID: *ln.ProductID, Name: "Arq Ajeeb", StockUnits: 40})
		}
	}
	doc, err := NewDocument(visit, products, assets.Bundle{}, rxdoc.NewSettings())
	if err != nil {
		t.Fatalf("NewDocument: %v", err)
	}
	return doc
}

func textOps(ops []Op) []Op {
	var out []Op
	for _, op := range ops {
		if op.Kind == OpText {
			out = append(out, op)
		}
	}
	return out
}

func findText(ops []Op, substr string) (Op, bool) {
	for _, op := range textOps(ops) {
		if strings.Contains(op.Text, substr) {
			return op, true
		}
	}
	return Op{}, false
}

func countText(ops []Op, exact string) int {
	n := 0
	for _, op := range textOps(ops) {
		if op.Text == exact {
			n++
		}
	}
	return n
}

func TestComposeNilVisit(t *testing.T) {
	if _, err := Compose(nil, rxdoc.CopyPatient); err != rxdoc.ErrNilVisit {
		t.Fatalf("expected ErrNilVisit, got %v", err)
	}
}

func TestNewDocumentResolvesSchemaOnce(t *testing.T) {
	doc := testDocument(t, testVisit())
	if !doc.Schema.HasComp4 {
		t.Error("expected HasComp4 from line 1")
	}
	if doc.Schema.HasComp5 {
		t.Error("expected HasComp5 false")
	}
}

func TestComposeAccentColors(t *testing.T) {
	doc := testDocument(t, testVisit())
	ops, err := Compose(doc, rxdoc.CopyPatient)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	wantColors := map[string]rxdoc.RGB{
		"TEMPERAMENT":      TemperamentColor,
		"PULSE DIAGNOSIS":  PulseColor,
		"HISTORY/REPORTS":  HistoryColor,
		"MAJOR COMPLAINTS": ComplaintsColor,
		"IMPROVEMENTS":     ImprovementColor,
		"INVESTIGATIONS":   InvestigationColor,
	}
	for label, want := range wantColors {
		op, ok := findText(ops, label+":")
		if !ok {
			t.Errorf("missing clinical field %q", label)
			continue
		}
		if op.Color != want {
			t.Errorf("%s color = %+v, want %+v", label, op.Color, want)
		}
	}
}

func TestComposeSchemaIsDocumentWide(t *testing.T) {
	// One line has comp4, none have comp5: both tables carry exactly one
	// C-4 header and no C-5 header, and a line's populated comp5 never
	// renders when the schema says the column is absent.
	visit := testVisit()
	doc := testDocument(t, visit)
	ops, err := Compose(doc, rxdoc.CopyPatient)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	if got := countText(ops, "C-4"); got != 2 {
		t.Errorf("C-4 headers = %d, want 2 (one per table)", got)
	}
	if got := countText(ops, "C-5"); got != 0 {
		t.Errorf("C-5 headers = %d, want 0", got)
	}

	// Force the document-wide decision off and populate a line's comp5.
	visit.Lines[0].Comp5 = "ghost"
	doc.Schema = rxdoc.ColumnSchema{}
	row := doc.lineRow(0, visit.Lines[0], false)
	for _, cell := range row {
		if cell == "GHOST" {
			t.Error("comp5 value rendered although schema omits the column")
		}
	}
}

func TestLineRowWidthMatchesColumns(t *testing.T) {
	doc := testDocument(t, testVisit())
	for _, withUnits := range []bool{false, true} {
		cols := lineColumns(doc.Schema, withUnits)
		row := doc.lineRow(0, doc.Visit.Lines[0], withUnits)
		if len(row) != len(cols) {
			t.Errorf("withUnits=%v: row has %d cells, columns %d", withUnits, len(row), len(cols))
		}
	}
}

func TestColumnWidthsFillTable(t *testing.T) {
	cols := lineColumns(rxdoc.ColumnSchema{HasComp4: true}, true)
	widths := columnWidths(cols, 194)
	total := 0.0
	for _, w := range widths {
		total += w
	}
	if total < 193.9 || total > 194.1 {
		t.Errorf("widths sum to %.2f, want 194", total)
	}
}

func TestComposeNoMedications(t *testing.T) {
	visit := testVisit()
	visit.Lines = nil
	doc := testDocument(t, visit)
	ops, err := Compose(doc, rxdoc.CopyPatient)
	if err != nil {
		t.Fatalf("Compose with zero lines: %v", err)
	}
	if got := countText(ops, NoMedicationsText); got != 2 {
		t.Errorf("no-medications indicator appears %d times, want 2 (both tables)", got)
	}
}

func TestComposeIdentityDuplication(t *testing.T) {
	doc := testDocument(t, testVisit())
	ops, _ := Compose(doc, rxdoc.CopyPatient)

	// The identity data appears in both the header grid and the summary
	// block; the duplication is contractual.
	n := 0
	for _, op := range textOps(ops) {
		if strings.HasPrefix(op.Text, "OPD NO:") {
			n++
		}
	}
	if n < 2 {
		t.Errorf("OPD NO appears %d times, want at least 2", n)
	}
}

func TestComposeSummaryRow(t *testing.T) {
	doc := testDocument(t, testVisit())
	ops, _ := Compose(doc, rxdoc.CopyPatient)

	op, ok := findText(ops, "FINAL AMOUNT:")
	if !ok {
		t.Fatal("missing summary row")
	}
	if !strings.Contains(op.Text, "₹850.00") {
		t.Errorf("summary = %q, want final amount ₹850.00", op.Text)
	}
	if !strings.Contains(op.Text, "NEXT VISIT IN: 14 DAYS") {
		t.Errorf("summary = %q, want 14 days", op.Text)
	}
	if !strings.Contains(op.Text, "MEDICINES: 2") {
		t.Errorf("summary = %q, want 2 medicines", op.Text)
	}
	if op.Align != "R" {
		t.Errorf("summary align = %q, want R", op.Align)
	}
}

func TestComposeCopyLabels(t *testing.T) {
	doc := testDocument(t, testVisit())

	patient, _ := Compose(doc, rxdoc.CopyPatient)
	office, _ := Compose(doc, rxdoc.CopyOffice)
	unlabeled, _ := Compose(doc, rxdoc.CopyNone)

	if len(patient) != len(office) {
		t.Fatalf("copies differ beyond the label: %d vs %d ops", len(patient), len(office))
	}
	if len(unlabeled) != len(patient)-1 {
		t.Fatalf("unlabeled copy should only drop the watermark op")
	}

	check := func(ops []Op, text string, color rxdoc.RGB) {
		t.Helper()
		for _, op := range ops {
			if op.Kind == OpWatermark {
				if op.Text != text {
					t.Errorf("watermark = %q, want %q", op.Text, text)
				}
				if op.Color != color {
					t.Errorf("watermark color = %+v, want %+v", op.Color, color)
				}
				return
			}
		}
		t.Errorf("no watermark op for %q", text)
	}
	check(patient, "PATIENT COPY", PatientCopyColor)
	check(office, "OFFICE COPY", OfficeCopyColor)
}

func TestComposeStationeryTagged(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	bundle := assets.Bundle{
		Header:    assets.Result{Image: img, OK: true},
		Watermark: assets.Result{Image: img, OK: true},
		Separator: assets.Result{Image: img, OK: true},
	}
	doc, err := NewDocument(testVisit(), nil, bundle, rxdoc.NewSettings())
	if err != nil {
		t.Fatalf("NewDocument: %v", err)
	}
	ops, _ := Compose(doc, rxdoc.CopyNone)

	n := 0
	for _, op := range ops {
		if op.Stationery {
			n++
		}
	}
	if n != 3 {
		t.Errorf("stationery ops = %d, want 3 (header, watermark, separator)", n)
	}
}

func TestComposeMissingPhotoRasterOnly(t *testing.T) {
	doc := testDocument(t, testVisit())
	ops, _ := Compose(doc, rxdoc.CopyNone)

	// Without a photo the composer emits the raster-only placeholder; the
	// vector path draws nothing in that space.
	found := false
	for _, op := range ops {
		if op.RasterOnly && op.Kind == OpText && op.Text == "NO IMAGE" {
			found = true
		}
		if op.Kind == OpImage && !op.Stationery {
			t.Error("unexpected photo image op without a loaded photo")
		}
	}
	if !found {
		t.Error("missing raster-only no-image placeholder")
	}
}

func TestDocumentFileName(t *testing.T) {
	doc := testDocument(t, testVisit())
	if got := doc.FileName(); got != "Asha Verma OPD-1042.pdf" {
		t.Errorf("FileName = %q", got)
	}
}

func TestOPDRefFallsBackToID(t *testing.T) {
	visit := testVisit()
	visit.OPDNo = "  "
	doc := testDocument(t, visit)
	if got := doc.OPDRef(); got != visit.ID.String() {
		t.Errorf("OPDRef = %q, want visit id", got)
	}
}
