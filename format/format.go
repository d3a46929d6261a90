// Package format is the single source of truth for display fallbacks and
// value formatting on the printed prescription. Both rendering backends call
// into this package rather than deriving display values locally, so the two
// output paths can never visually diverge.
package format

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/clinova/rxdoc"
)

// Placeholder is printed for missing patient and clinical text fields.
const Placeholder = "N/A"

// dateLayout is the day-month-year convention used on the document.
const dateLayout = "02-01-2006"

// Text upper-cases a clinical or identity field for print, substituting the
// placeholder when the field is blank.
func Text(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return Placeholder
	}
	return strings.ToUpper(s)
}

// Cell upper-cases a table cell value. Blank cells stay empty; tables never
// show the placeholder.
func Cell(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Date formats a date in day-month-year order. A zero time renders as an
// empty string, not as the placeholder.
func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// Amount renders a money figure with the given currency glyph and two
// decimal places.
func Amount(glyph string, v float64) string {
	return fmt.Sprintf("%s%.2f", glyph, v)
}

// FinalAmount is the billed figure after discount. A discount larger than
// the amount yields a negative result; it is not clamped.
func FinalAmount(amount, discount float64) float64 {
	return amount - discount
}

// UnitsRemaining is the display-only stock figure for one line: current
// stock minus the quantity dispensed. When the line's product cannot be
// resolved the stock is treated as zero, so the result is -quantity rather
// than an error.
func UnitsRemaining(product *rxdoc.Product, line rxdoc.PrescriptionLine) int {
	stock := 0
	if product != nil {
		stock = product.StockUnits
	}
	return stock - line.Quantity
}

// MedicineName resolves the printed medicine name for a line: the linked
// product's name, else the line's free-text treatment plan, else empty.
func MedicineName(product *rxdoc.Product, line rxdoc.PrescriptionLine) string {
	if product != nil && strings.TrimSpace(product.Name) != "" {
		return strings.TrimSpace(product.Name)
	}
	return strings.TrimSpace(line.TreatmentPlan)
}

// DaysUntilNextVisit is the number of days between the visit date and the
// scheduled next visit, rounded up. Either date being absent yields zero.
func DaysUntilNextVisit(visit, next time.Time) int {
	if visit.IsZero() || next.IsZero() {
		return 0
	}
	d := next.Sub(visit)
	return int(math.Ceil(d.Hours() / 24))
}

// FileName builds the download name for a generated document:
// "{first} {last} {opd}.pdf", falling back to "Patient" when both name parts
// are blank. When the OPD number is blank the visit identifier is used.
func FileName(p rxdoc.Patient, opdOrID string) string {
	name := p.FullName()
	if name == "" {
		name = "Patient"
	}
	base := strings.TrimSpace(name + " " + strings.TrimSpace(opdOrID))
	return base + ".pdf"
}
