package vector_test

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinova/rxdoc"
	"github.com/clinova/rxdoc/assets"
	"github.com/clinova/rxdoc/layout"
	"github.com/clinova/rxdoc/vector"
)

func ExampleGenerator_Generate() {
	visit := &rxdoc.VisitRecord{
		ID:        uuid.MustParse("6fa1c6f3-27a0-4a3e-9d2e-0f4f9a6f2b01"),
		OPDNo:     "OPD-1042",
		Date:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		NextVisit: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		Amount:    1000,
		Discount:  150,
		Patient:   rxdoc.Patient{FirstName: "Asha", LastName: "Verma"},
		Lines: []rxdoc.PrescriptionLine{
			{TreatmentPlan: "Arq Ajeeb", Comp1: "a1", Timing: "bd", Quantity: 2},
		},
	}

	doc, err := layout.NewDocument(visit, nil, assets.Bundle{}, rxdoc.NewSettings())
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	var buf bytes.Buffer
	if err := vector.New(zerolog.Nop()).Generate(context.Background(), &buf, doc); err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println("file:", doc.FileName())
	fmt.Println("pdf:", bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
	// Output:
	// file: Asha Verma OPD-1042.pdf
	// pdf: true
}
