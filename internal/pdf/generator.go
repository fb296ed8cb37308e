package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/nurpe/budget-service/internal/model"
)

type Generator struct {
	fontName string
}

func NewGenerator() *Generator {
	return &Generator{fontName: "Helvetica"}
}

// Generate renders a UPA cost sheet: header, one table per category and the
// grand total.
func (g *Generator) Generate(doc model.UPADocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont(g.fontName, "B", 14)
	pdf.CellFormat(0, 10, tr("Unit Price Analysis"), "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, tr(doc.UPA.Title), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	upa := doc.UPA
	details := [][2]string{
		{"Organization", doc.Organization.Name},
		{"Code", safeValue(upa.Code)},
		{"Unit", upa.Unit},
		{"Updated", formatDate(upa.UpdatedAt)},
	}
	if upa.HasAnnualMaintenance {
		details = append(details, [2]string{"Maintenance", maintenanceLabel(upa)})
	}
	for _, detail := range details {
		pdf.SetFont(g.fontName, "B", 10)
		pdf.CellFormat(35, 6, tr(detail[0]), "", 0, "L", false, 0, "")
		pdf.SetFont(g.fontName, "", 10)
		pdf.CellFormat(0, 6, tr(detail[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	colWidths := []float64{75, 20, 25, 30, 30}
	for _, kind := range model.ComponentKinds {
		lines := upa.LinesOf(kind)

		pdf.SetFont(g.fontName, "B", 12)
		pdf.CellFormat(0, 8, categoryLabel(kind), "", 1, "L", false, 0, "")

		headers := []string{nameHeader(kind), "Unit", "Quantity", "Unit price", "Total"}
		drawTableRow(pdf, g.fontName, headers, colWidths, true)

		subtotal := decimal.Zero
		for _, line := range lines {
			drawTableRow(pdf, g.fontName, []string{
				tr(line.Name),
				tr(line.Unit),
				line.Quantity.String(),
				formatAmount(line.UnitPrice),
				formatAmount(line.TotalPrice),
			}, colWidths, false)
			subtotal = subtotal.Add(line.TotalPrice)
		}
		if len(lines) == 0 {
			pdf.SetFont(g.fontName, "", 10)
			pdf.CellFormat(0, 8, "No lines", "1", 1, "C", false, 0, "")
		}

		pdf.SetFont(g.fontName, "", 10)
		pdf.CellFormat(0, 6, fmt.Sprintf("Subtotal: %s", formatAmount(subtotal)), "", 1, "R", false, 0, "")
		pdf.Ln(2)
	}

	pdf.Ln(2)
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("Total per %s: %s", tr(upa.Unit), formatAmount(upa.TotalPrice)), "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawTableRow(pdf *gofpdf.Fpdf, fontName string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 10)
	for i, col := range cols {
		align := "L"
		if i > 1 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 8, col, "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func categoryLabel(kind model.ComponentKind) string {
	switch kind {
	case model.ComponentKindMaterial:
		return "Materials"
	case model.ComponentKindLabor:
		return "Labor"
	case model.ComponentKindEquipment:
		return "Equipment"
	default:
		return string(kind)
	}
}

func nameHeader(kind model.ComponentKind) string {
	if kind == model.ComponentKindLabor {
		return "Role"
	}
	return "Description"
}

func maintenanceLabel(upa model.UnitPriceAnalysis) string {
	years := "-"
	if upa.MaintenanceYears != nil {
		years = fmt.Sprintf("%d", *upa.MaintenanceYears)
	}
	rate := "-"
	if upa.AnnualMaintenanceRate.Valid {
		rate = upa.AnnualMaintenanceRate.Decimal.String()
	}
	return fmt.Sprintf("%s years at %s per year", years, rate)
}

func safeValue(value *string) string {
	if value == nil || strings.TrimSpace(*value) == "" {
		return "-"
	}
	return *value
}

func formatAmount(value decimal.Decimal) string {
	return value.StringFixed(2)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02.01.2006")
}
