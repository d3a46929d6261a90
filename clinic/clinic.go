// Package clinic provides read-only access to the external clinical record
// collaborators: visit lookup and product lookup. The renderer consumes
// these interfaces and never writes back.
package clinic

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/clinova/rxdoc"
)

// VisitSource looks up one visit with its embedded patient and prescription
// lines.
type VisitSource interface {
	Visit(ctx context.Context, id uuid.UUID) (*rxdoc.VisitRecord, error)
}

// ProductSource lists the products used to resolve medicine names and stock
// units.
type ProductSource interface {
	Products(ctx context.Context) ([]rxdoc.Product, error)
}

// Store is the combined collaborator surface the renderer depends on.
type Store interface {
	VisitSource
	ProductSource
}

// dateLayout is the fixture date format.
const dateLayout = "2006-01-02"

type visitDTO struct {
	ID                   uuid.UUID  `json:"id"`
	OPDNo                string     `json:"opdNo"`
	Date                 string     `json:"date"`
	SequenceNo           int        `json:"sequenceNo"`
	NextVisit            string     `json:"nextVisit"`
	Weight               string     `json:"weight"`
	Height               string     `json:"height"`
	Temperament          string     `json:"temperament"`
	PulseDiagnosis1      string     `json:"pulseDiagnosis1"`
	PulseDiagnosis2      string     `json:"pulseDiagnosis2"`
	History              string     `json:"history"`
	Complaints           string     `json:"complaints"`
	Improvements         string     `json:"improvements"`
	Investigations       string     `json:"investigations"`
	ProvisionalDiagnosis string     `json:"provisionalDiagnosis"`
	Amount               float64    `json:"amount"`
	Discount             float64    `json:"discount"`
	Patient              patientDTO `json:"patient"`
	Lines                []lineDTO  `json:"lines"`
}

type patientDTO struct {
	ID          uuid.UUID `json:"id"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	FatherName  string    `json:"fatherName"`
	Address     string    `json:"address"`
	Phone       string    `json:"phone"`
	DateOfBirth string    `json:"dateOfBirth"`
	Gender      string    `json:"gender"`
	Age         string    `json:"age"`
	PhotoURL    string    `json:"photoUrl"`
}

type lineDTO struct {
	ProductID     *uuid.UUID `json:"productId"`
	TreatmentPlan string     `json:"treatmentPlan"`
	Comp1         string     `json:"comp1"`
	Comp2         string     `json:"comp2"`
	Comp3         string     `json:"comp3"`
	Comp4         string     `json:"comp4"`
	Comp5         string     `json:"comp5"`
	Timing        string     `json:"timing"`
	Dosage        string     `json:"dosage"`
	Additions     string     `json:"additions"`
	Procedure     string     `json:"procedure"`
	Presentation  string     `json:"presentation"`
	DroppersToday string     `json:"droppersToday"`
	Quantity      int        `json:"quantity"`
}

type productDTO struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	StockUnits int       `json:"stockUnits"`
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (d visitDTO) toDomain() *rxdoc.VisitRecord {
	v := &rxdoc.VisitRecord{
		ID:                   d.ID,
		OPDNo:                d.OPDNo,
		Date:                 parseDate(d.Date),
		SequenceNo:           d.SequenceNo,
		NextVisit:            parseDate(d.NextVisit),
		Weight:               d.Weight,
		Height:               d.Height,
		Temperament:          d.Temperament,
		PulseDiagnosis1:      d.PulseDiagnosis1,
		PulseDiagnosis2:      d.PulseDiagnosis2,
		History:              d.History,
		Complaints:           d.Complaints,
		Improvements:         d.Improvements,
		Investigations:       d.Investigations,
		ProvisionalDiagnosis: d.ProvisionalDiagnosis,
		Amount:               d.Amount,
		Discount:             d.Discount,
		Patient: rxdoc.Patient{
			ID:          d.Patient.ID,
			FirstName:   d.Patient.FirstName,
			LastName:    d.Patient.LastName,
			FatherName:  d.Patient.FatherName,
			Address:     d.Patient.Address,
			Phone:       d.Patient.Phone,
			DateOfBirth: parseDate(d.Patient.DateOfBirth),
			Gender:      d.Patient.Gender,
			Age:         d.Patient.Age,
			PhotoURL:    d.Patient.PhotoURL,
		},
	}
	for _, ln := range d.Lines {
		v.Lines = append(v.Lines, rxdoc.PrescriptionLine(ln))
	}
	return v
}

// FileStore serves visits and products from JSON fixture files. It backs
// the CLI and demo deployments where no database is configured.
type FileStore struct {
	visits   map[uuid.UUID]visitDTO
	products []rxdoc.Product
}

// NewFileStore loads the fixture files. productsPath may be empty.
func NewFileStore(visitsPath, productsPath string) (*FileStore, error) {
	raw, err := os.ReadFile(visitsPath)
	if err != nil {
		return nil, fmt.Errorf("clinic: reading visits: %w", err)
	}
	var visits []visitDTO
	if err := json.Unmarshal(raw, &visits); err != nil {
		return nil, fmt.Errorf("clinic: parsing visits: %w", err)
	}

	fs := &FileStore{visits: make(map[uuid.UUID]visitDTO, len(visits))}
	for _, v := range visits {
		fs.visits[v.ID] = v
	}

	if productsPath != "" {
		raw, err := os.ReadFile(productsPath)
		if err != nil {
			return nil, fmt.Errorf("clinic: reading products: %w", err)
		}
		var products []productDTO
		if err := json.Unmarshal(raw, &products); err != nil {
			return nil, fmt.Errorf("clinic: parsing products: %w", err)
		}
		for _, p := range products {
			fs.products = append(fs.products, rxdoc.Product(p))
		}
	}
	return fs, nil
}

// Visit implements VisitSource.
func (fs *FileStore) Visit(_ context.Context, id uuid.UUID) (*rxdoc.VisitRecord, error) {
	dto, ok := fs.visits[id]
	if !ok {
		return nil, rxdoc.ErrVisitNotFound
	}
	return dto.toDomain(), nil
}

// Products implements ProductSource.
func (fs *FileStore) Products(_ context.Context) ([]rxdoc.Product, error) {
	return fs.products, nil
}
