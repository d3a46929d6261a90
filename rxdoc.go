// Package rxdoc models the clinical records consumed by the prescription
// document renderer: a visit with its patient and ordered prescription lines,
// plus the derived column schema that both rendering backends share.
//
// The renderer is read-only: visits, patients and products are loaded fresh
// for every render and nothing is ever written back.
package rxdoc

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Patient holds the identity fields printed on the document header.
// Any field may be blank; display fallbacks live in the format package.
type Patient struct {
	ID          uuid.UUID
	FirstName   string
	LastName    string
	FatherName  string
	Address     string
	Phone       string
	DateOfBirth time.Time
	Gender      string
	Age         string
	PhotoURL    string
}

// FullName joins the non-blank name parts.
func (p Patient) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
}

// PrescriptionLine is one medicine or procedure entry within a visit.
// Line order is significant: the stored position determines the printed row
// number and medicine numbering, and lines are never re-sorted.
type PrescriptionLine struct {
	ProductID     *uuid.UUID // nil when no product is linked
	TreatmentPlan string     // free-text medicine name fallback
	Comp1         string
	Comp2         string
	Comp3         string
	Comp4         string
	Comp5         string
	Timing        string
	Dosage        string
	Additions     string
	Procedure     string
	Presentation  string
	DroppersToday string
	Quantity      int // units dispensed for this line
}

// Product is the external product collaborator, looked up by identifier.
// Only the display name and the current stock figure are consumed.
type Product struct {
	ID         uuid.UUID
	Name       string
	StockUnits int
}

// VisitRecord is the aggregate root for one rendered document.
type VisitRecord struct {
	ID         uuid.UUID
	OPDNo      string
	Date       time.Time
	SequenceNo int
	NextVisit  time.Time

	Weight      string
	Height      string
	Temperament string

	PulseDiagnosis1      string
	PulseDiagnosis2      string
	History              string
	Complaints           string
	Improvements         string
	Investigations       string
	ProvisionalDiagnosis string

	Amount   float64
	Discount float64

	Patient Patient
	Lines   []PrescriptionLine
}

// ColumnSchema is the document-wide decision of which optional prescription
// columns are present. It is computed once per document and reused for every
// row of both tables and by both rendering backends; deciding per line would
// produce ragged tables.
type ColumnSchema struct {
	HasComp4 bool
	HasComp5 bool
}

// ResolveColumns scans all lines of a visit and reports which optional
// component columns appear anywhere in the list. A slot counts as present
// only when it is non-blank after trimming. Empty input yields both flags
// false.
func ResolveColumns(lines []PrescriptionLine) ColumnSchema {
	var s ColumnSchema
	for _, ln := range lines {
		if strings.TrimSpace(ln.Comp4) != "" {
			s.HasComp4 = true
		}
		if strings.TrimSpace(ln.Comp5) != "" {
			s.HasComp5 = true
		}
		if s.HasComp4 && s.HasComp5 {
			break
		}
	}
	return s
}

// CopyLabel designates which physical copy of the document a page is.
// The vector backend emits one page per label; the raster backend emits a
// single unlabeled capture.
type CopyLabel string

const (
	CopyNone    CopyLabel = ""
	CopyPatient CopyLabel = "PATIENT COPY"
	CopyOffice  CopyLabel = "OFFICE COPY"
)

// RGB is an RGB color value in the 0-255 range.
type RGB struct {
	R, G, B int
}
