package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nurpe/budget-service/internal/model"
	"github.com/nurpe/budget-service/internal/repository"
)

type ExcelGenerator interface {
	Generate(doc model.BudgetDocument) ([]byte, error)
}

type PDFGenerator interface {
	Generate(doc model.UPADocument) ([]byte, error)
}

type ExportService struct {
	store *repository.Store
	excel ExcelGenerator
	pdf   PDFGenerator
}

type ExportResult struct {
	FileName string
	Content  []byte
}

func NewExportService(store *repository.Store, excel ExcelGenerator, pdf PDFGenerator) *ExportService {
	return &ExportService{store: store, excel: excel, pdf: pdf}
}

// BudgetWorkbook renders the budget, its linked projects and the breakdown
// of every UPA it prices.
func (s *ExportService) BudgetWorkbook(ctx context.Context, p model.Principal, budgetID uuid.UUID) (*ExportResult, error) {
	budget, err := s.store.Budgets.Get(ctx, budgetID)
	if err != nil {
		return nil, notFound(err, "budget")
	}
	if err := checkBudgetReadable(ctx, s.store, p, budget); err != nil {
		return nil, err
	}

	org, err := s.store.Organizations.Get(ctx, budget.OrganizationID)
	if err != nil {
		return nil, notFound(err, "organization")
	}
	projectIDs, err := s.store.Budgets.ProjectIDs(ctx, budget.ID)
	if err != nil {
		return nil, err
	}
	projects, err := s.store.Projects.ListByIDs(ctx, projectIDs)
	if err != nil {
		return nil, err
	}

	upaIDs := make([]uuid.UUID, 0, len(budget.UPAs))
	seen := make(map[uuid.UUID]struct{}, len(budget.UPAs))
	for _, line := range budget.UPAs {
		if _, ok := seen[line.UPAID]; ok {
			continue
		}
		seen[line.UPAID] = struct{}{}
		upaIDs = append(upaIDs, line.UPAID)
	}
	upas, err := s.store.UPAs.GetMany(ctx, upaIDs)
	if err != nil {
		return nil, err
	}

	content, err := s.excel.Generate(model.BudgetDocument{
		Budget:       *budget,
		Organization: *org,
		Projects:     projects,
		UPAs:         upas,
	})
	if err != nil {
		return nil, fmt.Errorf("render budget workbook: %w", err)
	}

	return &ExportResult{
		FileName: buildFileName("budget", budget.Title, budget.ID, "xlsx"),
		Content:  content,
	}, nil
}

// UPACostSheet renders one UPA as a PDF cost sheet.
func (s *ExportService) UPACostSheet(ctx context.Context, p model.Principal, upaID uuid.UUID) (*ExportResult, error) {
	upa, err := loadVisibleUPA(ctx, s.store, p, upaID)
	if err != nil {
		return nil, err
	}
	org, err := s.store.Organizations.Get(ctx, upa.OrganizationID)
	if err != nil {
		return nil, notFound(err, "organization")
	}

	content, err := s.pdf.Generate(model.UPADocument{UPA: *upa, Organization: *org})
	if err != nil {
		return nil, fmt.Errorf("render UPA cost sheet: %w", err)
	}

	return &ExportResult{
		FileName: buildFileName("upa", upa.Title, upa.ID, "pdf"),
		Content:  content,
	}, nil
}

func buildFileName(prefix, title string, id uuid.UUID, ext string) string {
	name := sanitizeFileName(title)
	if name == "" {
		name = id.String()
	}
	return fmt.Sprintf("%s-%s.%s", prefix, name, ext)
}

func sanitizeFileName(input string) string {
	result := make([]rune, 0, len(input))
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z':
			result = append(result, r)
		case r >= 'A' && r <= 'Z':
			result = append(result, r)
		case r >= '0' && r <= '9':
			result = append(result, r)
		case r == '-', r == '_':
			result = append(result, r)
		default:
			result = append(result, '-')
		}
	}
	return strings.Trim(string(result), "-")
}
