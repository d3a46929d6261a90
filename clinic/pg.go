package clinic

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinova/rxdoc"
)

// PGStore serves visits and products from the clinic's Postgres database.
// All access is read-only; rendering never mutates stock.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore connects a pool to the given DSN.
func NewPGStore(ctx context.Context, dsn string) (*PGStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("clinic: connecting: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("clinic: pinging: %w", err)
	}
	return &PGStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PGStore) Close() {
	s.pool.Close()
}

const visitQuery = `
SELECT v.id, v.opd_no, v.visit_date, v.sequence_no, v.next_visit,
       v.weight, v.height, v.temperament,
       v.pulse_diagnosis1, v.pulse_diagnosis2, v.history, v.complaints,
       v.improvements, v.investigations, v.provisional_diagnosis,
       v.amount, v.discount,
       p.id, p.first_name, p.last_name, p.father_name, p.address, p.phone,
       p.date_of_birth, p.gender, p.age, p.photo_url
FROM visits v
JOIN patients p ON p.id = v.patient_id
WHERE v.id = $1`

const linesQuery = `
SELECT product_id, treatment_plan, comp1, comp2, comp3, comp4, comp5,
       timing, dosage, additions, procedure, presentation, droppers_today,
       quantity
FROM prescription_lines
WHERE visit_id = $1
ORDER BY position`

const productsQuery = `SELECT id, name, stock_units FROM products`

// Visit implements VisitSource. Prescription lines come back in stored
// order; they are never re-sorted.
func (s *PGStore) Visit(ctx context.Context, id uuid.UUID) (*rxdoc.VisitRecord, error) {
	var v rxdoc.VisitRecord
	err := s.pool.QueryRow(ctx, visitQuery, id).Scan(
		&v.ID, &v.OPDNo, &v.Date, &v.SequenceNo, &v.NextVisit,
		&v.Weight, &v.Height, &v.Temperament,
		&v.PulseDiagnosis1, &v.PulseDiagnosis2, &v.History, &v.Complaints,
		&v.Improvements, &v.Investigations, &v.ProvisionalDiagnosis,
		&v.Amount, &v.Discount,
		&v.Patient.ID, &v.Patient.FirstName, &v.Patient.LastName,
		&v.Patient.FatherName, &v.Patient.Address, &v.Patient.Phone,
		&v.Patient.DateOfBirth, &v.Patient.Gender, &v.Patient.Age,
		&v.Patient.PhotoURL,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, rxdoc.ErrVisitNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("clinic: loading visit: %w", err)
	}

	rows, err := s.pool.Query(ctx, linesQuery, id)
	if err != nil {
		return nil, fmt.Errorf("clinic: loading lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ln rxdoc.PrescriptionLine
		if err := rows.Scan(
			&ln.ProductID, &ln.TreatmentPlan,
			&ln.Comp1, &ln.Comp2, &ln.Comp3, &ln.Comp4, &ln.Comp5,
			&ln.Timing, &ln.Dosage, &ln.Additions, &ln.Procedure,
			&ln.Presentation, &ln.DroppersToday, &ln.Quantity,
		); err != nil {
			return nil, fmt.Errorf("clinic: scanning line: %w", err)
		}
		v.Lines = append(v.Lines, ln)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("clinic: reading lines: %w", err)
	}
	return &v, nil
}

// Products implements ProductSource.
func (s *PGStore) Products(ctx context.Context) ([]rxdoc.Product, error) {
	rows, err := s.pool.Query(ctx, productsQuery)
	if err != nil {
		return nil, fmt.Errorf("clinic: loading products: %w", err)
	}
	defer rows.Close()

	var out []rxdoc.Product
	for rows.Next() {
		var p rxdoc.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.StockUnits); err != nil {
			return nil, fmt.Errorf("clinic: scanning product: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("clinic: reading products: %w", err)
	}
	return out, nil
}
