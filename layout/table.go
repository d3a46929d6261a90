package layout

import (
	"strconv"

	"github.com/clinova/rxdoc"
	"github.com/clinova/rxdoc/format"
)

// NoMedicationsText is printed across both tables when a visit carries no
// prescription lines.
const NoMedicationsText = "NO MEDICATIONS ADVISED"

// columnDef defines one line-item table column. A zero width marks the
// column as auto: it absorbs the space left after fixed columns.
type columnDef struct {
	header string
	width  float64
	align  string
}

// lineColumns builds the column set for a line-item table. The optional
// component columns follow the document-wide schema, never a per-line
// decision, and the secondary table carries a leading units column.
func lineColumns(schema rxdoc.ColumnSchema, withUnits bool) []columnDef {
	cols := make([]columnDef, 0, 15)
	if withUnits {
		cols = append(cols, columnDef{header: "UNITS LEFT", width: 13, align: "R"})
	}
	cols = append(cols,
		columnDef{header: "#", width: 7, align: "C"},
		columnDef{header: "MEDICINE", align: "L"}, // auto width
		columnDef{header: "C-1", width: 13, align: "C"},
		columnDef{header: "C-2", width: 13, align: "C"},
		columnDef{header: "C-3", width: 13, align: "C"},
	)
	if schema.HasComp4 {
		cols = append(cols, columnDef{header: "C-4", width: 13, align: "C"})
	}
	if schema.HasComp5 {
		cols = append(cols, columnDef{header: "C-5", width: 13, align: "C"})
	}
	cols = append(cols,
		columnDef{header: "TIMING", width: 14, align: "C"},
		columnDef{header: "DOSE", width: 12, align: "C"},
		columnDef{header: "ADD", width: 11, align: "C"},
		columnDef{header: "PROC", width: 12, align: "C"},
		columnDef{header: "PRES", width: 12, align: "C"},
		columnDef{header: "DROPS", width: 11, align: "C"},
		columnDef{header: "QTY", width: 9, align: "R"},
	)
	return cols
}

// columnWidths distributes the table width: fixed columns keep their width
// and the remainder is split across auto columns.
func columnWidths(cols []columnDef, totalW float64) []float64 {
	widths := make([]float64, len(cols))
	fixed := 0.0
	auto := 0
	for i, col := range cols {
		if col.width > 0 {
			widths[i] = col.width
			fixed += col.width
		} else {
			auto++
		}
	}
	if auto > 0 {
		remaining := totalW - fixed
		if remaining < 0 {
			remaining = 0
		}
		for i, col := range cols {
			if col.width == 0 {
				widths[i] = remaining / float64(auto)
			}
		}
	}
	return widths
}

// lineRow builds the printed cells for one prescription line in stored
// order. All cell values flow through the format package.
func (d *Document) lineRow(idx int, ln rxdoc.PrescriptionLine, withUnits bool) []string {
	product := d.Product(ln.ProductID)

	row := make([]string, 0, 15)
	if withUnits {
		row = append(row, strconv.Itoa(format.UnitsRemaining(product, ln)))
	}
	row = append(row,
		strconv.Itoa(idx+1),
		format.Cell(format.MedicineName(product, ln)),
		format.Cell(ln.Comp1),
		format.Cell(ln.Comp2),
		format.Cell(ln.Comp3),
	)
	if d.Schema.HasComp4 {
		row = append(row, format.Cell(ln.Comp4))
	}
	if d.Schema.HasComp5 {
		row = append(row, format.Cell(ln.Comp5))
	}
	row = append(row,
		format.Cell(ln.Timing),
		format.Cell(ln.Dosage),
		format.Cell(ln.Additions),
		format.Cell(ln.Procedure),
		format.Cell(ln.Presentation),
		format.Cell(ln.DroppersToday),
		strconv.Itoa(ln.Quantity),
	)
	return row
}

// table emits one line-item table at y and returns the y below it.
func (c *composer) table(y float64, withUnits bool) float64 {
	const (
		headerH = 6.0
		rowH    = 5.5
	)

	cols := lineColumns(c.doc.Schema, withUnits)
	widths := columnWidths(cols, c.contentW())

	// Header row: filled cells with white text.
	x := c.s.Margin
	fill := TableHeaderFill
	for i, col := range cols {
		c.push(Op{Kind: OpRect, X: x, Y: y, W: widths[i], H: headerH, Fill: &fill, Border: true})
		c.push(Op{Kind: OpText, X: x, Y: y + 1.2, W: widths[i], H: headerH - 2,
			Text: col.header, Font: FontSpec{Style: "B", Size: 6.5}, Align: "C", Color: white})
		x += widths[i]
	}
	y += headerH

	if len(c.doc.Visit.Lines) == 0 {
		c.push(Op{Kind: OpRect, X: c.s.Margin, Y: y, W: c.contentW(), H: rowH, Border: true})
		c.push(Op{Kind: OpText, X: c.s.Margin, Y: y + 1.2, W: c.contentW(), H: rowH - 2,
			Text: NoMedicationsText, Font: FontSpec{Style: "I", Size: 7}, Align: "C", Color: SeparatorGray})
		return y + rowH
	}

	for idx, ln := range c.doc.Visit.Lines {
		row := c.doc.lineRow(idx, ln, withUnits)
		x = c.s.Margin
		for i, cell := range row {
			c.push(Op{Kind: OpRect, X: x, Y: y, W: widths[i], H: rowH, Border: true})
			c.push(Op{Kind: OpText, X: x + 0.8, Y: y + 1.1, W: widths[i] - 1.6, H: rowH - 2,
				Text: cell, Font: FontSpec{Size: 6.5}, Align: cols[i].align, Color: black})
			x += widths[i]
		}
		y += rowH
	}

	return y
}
