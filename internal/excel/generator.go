package excel

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/nurpe/budget-service/internal/model"
)

const sheetNameLimit = 31

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate renders a summary sheet for the budget followed by one
// breakdown sheet per priced UPA.
func (g *Generator) Generate(doc model.BudgetDocument) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	summarySheet := "Summary"
	if err := file.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	bold, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := g.writeSummary(file, summarySheet, bold, doc); err != nil {
		return nil, err
	}

	usedNames := map[string]struct{}{summarySheet: {}}
	for _, upa := range doc.UPAs {
		sheetName := buildSheetName(upa.Title, upa.ID, usedNames)
		usedNames[sheetName] = struct{}{}

		if _, err := file.NewSheet(sheetName); err != nil {
			return nil, err
		}
		if err := g.writeUPA(file, sheetName, bold, upa); err != nil {
			return nil, err
		}
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, sheet string, bold int, doc model.BudgetDocument) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Budget")
	set("B1", doc.Budget.Title)
	set("A2", "Organization")
	set("B2", doc.Organization.Name)
	set("A3", "Template")
	set("B3", yesNo(doc.Budget.IsTemplate))
	set("A4", "Projects")
	set("B4", projectNames(doc.Projects))
	set("A5", "Updated")
	set("B5", formatDate(doc.Budget.UpdatedAt))
	set("A6", "Total")
	set("B6", formatMoney(doc.Budget.Total))
	_ = file.SetCellStyle(sheet, "A1", "A6", bold)

	tableRow := 8
	headers := []string{"Type", "Description", "Unit", "Quantity", "Unit price", "Total"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableRow)
		set(cell, header)
	}
	first, _ := excelize.CoordinatesToCellName(1, tableRow)
	last, _ := excelize.CoordinatesToCellName(len(headers), tableRow)
	_ = file.SetCellStyle(sheet, first, last, bold)

	row := tableRow + 1
	for _, item := range doc.Budget.Items {
		writeLine(set, row, "Item", item.Name, item.Unit, item.Quantity, item.UnitPrice, item.TotalPrice)
		row++
	}
	for _, upa := range doc.Budget.UPAs {
		writeLine(set, row, "UPA", upa.Title, upa.Unit, upa.Quantity, upa.UnitPrice, upa.TotalPrice)
		row++
	}
	set(fmt.Sprintf("E%d", row), "Total")
	set(fmt.Sprintf("F%d", row), formatMoney(doc.Budget.Total))
	_ = file.SetCellStyle(sheet, fmt.Sprintf("E%d", row), fmt.Sprintf("F%d", row), bold)

	_ = file.SetColWidth(sheet, "A", "A", 14)
	_ = file.SetColWidth(sheet, "B", "B", 45)
	_ = file.SetColWidth(sheet, "C", "C", 10)
	_ = file.SetColWidth(sheet, "D", "F", 16)
	return nil
}

func (g *Generator) writeUPA(file *excelize.File, sheet string, bold int, upa model.UnitPriceAnalysis) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "UPA")
	set("B1", upa.Title)
	set("A2", "Code")
	set("B2", formatString(upa.Code))
	set("A3", "Unit")
	set("B3", upa.Unit)
	set("A4", "Total")
	set("B4", formatMoney(upa.TotalPrice))
	_ = file.SetCellStyle(sheet, "A1", "A4", bold)

	row := 6
	for _, kind := range model.ComponentKinds {
		lines := upa.LinesOf(kind)
		if len(lines) == 0 {
			continue
		}

		set(fmt.Sprintf("A%d", row), categoryLabel(kind))
		_ = file.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), bold)
		row++
		for i, header := range []string{"", nameHeader(kind), "Unit", "Quantity", "Unit price", "Total"} {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			set(cell, header)
		}
		row++

		subtotal := decimal.Zero
		for _, line := range lines {
			writeLine(set, row, "", line.Name, line.Unit, line.Quantity, line.UnitPrice, line.TotalPrice)
			subtotal = subtotal.Add(line.TotalPrice)
			row++
		}
		set(fmt.Sprintf("E%d", row), "Subtotal")
		set(fmt.Sprintf("F%d", row), formatMoney(subtotal))
		row += 2
	}

	_ = file.SetColWidth(sheet, "A", "A", 14)
	_ = file.SetColWidth(sheet, "B", "B", 40)
	_ = file.SetColWidth(sheet, "C", "C", 10)
	_ = file.SetColWidth(sheet, "D", "F", 16)
	return nil
}

func writeLine(set func(string, interface{}), row int, kind, name, unit string, quantity, unitPrice, total decimal.Decimal) {
	set(fmt.Sprintf("A%d", row), kind)
	set(fmt.Sprintf("B%d", row), name)
	set(fmt.Sprintf("C%d", row), unit)
	set(fmt.Sprintf("D%d", row), quantity.String())
	set(fmt.Sprintf("E%d", row), formatMoney(unitPrice))
	set(fmt.Sprintf("F%d", row), formatMoney(total))
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
	return "Name"
}

func buildSheetName(title string, id uuid.UUID, used map[string]struct{}) string {
	base := strings.TrimSpace(title)
	if base == "" {
		base = id.String()
	}
	base = sanitizeSheetName(base)

	if len(base) > sheetNameLimit {
		base = base[:sheetNameLimit]
	}

	nameCandidate := base
	counter := 2
	for {
		if _, exists := used[nameCandidate]; !exists {
			return nameCandidate
		}
		suffix := fmt.Sprintf("-%d", counter)
		trimmed := base
		if len(trimmed)+len(suffix) > sheetNameLimit {
			trimmed = trimmed[:sheetNameLimit-len(suffix)]
		}
		nameCandidate = trimmed + suffix
		counter++
	}
}

func sanitizeSheetName(value string) string {
	replacer := strings.NewReplacer(
		"[", "-",
		"]", "-",
		":", "-",
		"*", "-",
		"?", "-",
		"/", "-",
		"\\", "-",
	)
	value = strings.TrimSpace(replacer.Replace(value))
	if value == "" {
		return "UPA"
	}
	return value
}

func projectNames(projects []model.Project) string {
	if len(projects) == 0 {
		return ""
	}
	names := make([]string, 0, len(projects))
	for _, project := range projects {
		names = append(names, project.Name)
	}
	return strings.Join(names, ", ")
}

func formatMoney(value decimal.Decimal) string {
	return value.StringFixed(2)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
