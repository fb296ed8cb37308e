package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nurpe/budget-service/internal/model"
	"github.com/nurpe/budget-service/internal/repository"
)

type BudgetService struct {
	store *repository.Store
	log   zerolog.Logger
}

func NewBudgetService(store *repository.Store, log zerolog.Logger) *BudgetService {
	return &BudgetService{store: store, log: log}
}

type CreateBudgetInput struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description *string `json:"description"`
	IsTemplate  bool    `json:"is_template"`
}

type UpdateBudgetInput struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description"`
	IsTemplate  *bool   `json:"is_template"`
}

type BudgetFilter struct {
	IsTemplate *bool
}

type AddBudgetItemInput struct {
	ItemID   uuid.UUID       `json:"item_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

type AddBudgetUPAInput struct {
	UPAID    uuid.UUID       `json:"upa_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

type ApplyBudgetInput struct {
	ProjectID  uuid.UUID `json:"project_id"`
	CreateCopy bool      `json:"create_copy"`
}

// ApplyResult reports the association and the budget it points at, which
// is a fresh clone when the caller asked for a copy.
type ApplyResult struct {
	Association *model.BudgetProject `json:"association"`
	Budget      *model.Budget        `json:"budget"`
	Created     bool                 `json:"created"`
}

func (s *BudgetService) Create(ctx context.Context, p model.Principal, input CreateBudgetInput) (*model.Budget, error) {
	input.Title = strings.TrimSpace(input.Title)
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	orgID, err := activeOrganization(p)
	if err != nil {
		return nil, err
	}
	if err := requireEditor(p, orgID); err != nil {
		return nil, err
	}
	if _, err := requireOrganizationType(ctx, s.store, orgID, model.OrganizationTypeContractor); err != nil {
		return nil, err
	}

	budget := &model.Budget{
		OrganizationID: orgID,
		Title:          input.Title,
		Description:    optionalText(input.Description),
		IsTemplate:     input.IsTemplate,
		Items:          []model.BudgetItem{},
		UPAs:           []model.BudgetUPA{},
	}
	if err := s.store.Budgets.Create(ctx, budget); err != nil {
		return nil, err
	}
	return budget, nil
}

// Get is open to ADMINs and MEMBERs of the owner, and to VIEWERs when the
// budget is linked to a project shared with them.
func (s *BudgetService) Get(ctx context.Context, p model.Principal, id uuid.UUID) (*model.Budget, error) {
	budget, err := s.store.Budgets.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "budget")
	}
	if err := checkBudgetReadable(ctx, s.store, p, budget); err != nil {
		return nil, err
	}
	return budget, nil
}

func checkBudgetReadable(ctx context.Context, store *repository.Store, p model.Principal, budget *model.Budget) error {
	if err := requireMember(p, budget.OrganizationID); err != nil {
		return err
	}
	if p.CanEdit(budget.OrganizationID) {
		return nil
	}
	projectIDs, err := store.Budgets.ProjectIDs(ctx, budget.ID)
	if err != nil {
		return err
	}
	for _, projectID := range projectIDs {
		shared, err := store.Projects.HasViewer(ctx, projectID, p.UserID)
		if err != nil {
			return err
		}
		if shared {
			return nil
		}
	}
	return fmt.Errorf("%w: budget is not shared with you", ErrPermissionDenied)
}

func (s *BudgetService) List(ctx context.Context, p model.Principal, filter BudgetFilter) ([]model.Budget, error) {
	orgID, err := activeOrganization(p)
	if err != nil {
		return nil, err
	}
	if err := requireEditor(p, orgID); err != nil {
		return nil, err
	}
	return s.store.Budgets.List(ctx, repository.BudgetFilter{
		OrganizationID: orgID,
		IsTemplate:     filter.IsTemplate,
	})
}

func (s *BudgetService) Update(ctx context.Context, p model.Principal, id uuid.UUID, input UpdateBudgetInput) (*model.Budget, error) {
	input.Title = trimPatch(input.Title)
	if err := requireFilled("title", input.Title); err != nil {
		return nil, err
	}
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	var updated *model.Budget
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		budget, err := s.loadEditable(ctx, tx, p, id)
		if err != nil {
			return err
		}

		fields := map[string]interface{}{}
		if input.Title != nil {
			fields["title"] = *input.Title
		}
		if input.Description != nil {
			fields["description"] = optionalText(input.Description)
		}
		if input.IsTemplate != nil && *input.IsTemplate != budget.IsTemplate {
			if *input.IsTemplate {
				linked, err := tx.Budgets.ProjectIDs(ctx, id)
				if err != nil {
					return err
				}
				if len(linked) > 0 {
					return fmt.Errorf("%w: a budget linked to projects cannot become a template", ErrConflict)
				}
			}
			fields["is_template"] = *input.IsTemplate
		}

		if err := tx.Budgets.Update(ctx, id, fields); err != nil {
			return err
		}
		updated, err = tx.Budgets.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the budget, its lines and its project links.
func (s *BudgetService) Delete(ctx context.Context, p model.Principal, id uuid.UUID) error {
	return s.store.InTx(ctx, func(tx *repository.Store) error {
		if _, err := s.loadEditable(ctx, tx, p, id); err != nil {
			return err
		}
		return tx.Budgets.Delete(ctx, id)
	})
}

// AddItem adds a store item line priced at the item's current price.
func (s *BudgetService) AddItem(ctx context.Context, p model.Principal, budgetID uuid.UUID, input AddBudgetItemInput) (*model.Budget, error) {
	if input.ItemID == uuid.Nil {
		return nil, fmt.Errorf("%w: item_id is required", ErrInvalidInput)
	}
	input.Quantity = input.Quantity.Round(moneyScale)
	if err := requirePositive("quantity", input.Quantity); err != nil {
		return nil, err
	}

	var updated *model.Budget
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		if _, err := s.loadEditable(ctx, tx, p, budgetID); err != nil {
			return err
		}
		item, err := tx.Items.Get(ctx, input.ItemID)
		if err != nil {
			return notFound(err, "item")
		}

		quantity := input.Quantity
		line := model.BudgetItem{
			BudgetID:   budgetID,
			ItemID:     item.ID,
			Name:       item.Name,
			Unit:       item.Unit,
			Quantity:   quantity,
			UnitPrice:  item.Price,
			TotalPrice: LineTotal(quantity, item.Price),
		}
		if err := tx.Budgets.CreateItems(ctx, []model.BudgetItem{line}); err != nil {
			return err
		}
		updated, err = tx.Budgets.Get(ctx, budgetID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// AddUPA adds a UPA line priced at the UPA's current total.
func (s *BudgetService) AddUPA(ctx context.Context, p model.Principal, budgetID uuid.UUID, input AddBudgetUPAInput) (*model.Budget, error) {
	if input.UPAID == uuid.Nil {
		return nil, fmt.Errorf("%w: upa_id is required", ErrInvalidInput)
	}
	input.Quantity = input.Quantity.Round(moneyScale)
	if err := requirePositive("quantity", input.Quantity); err != nil {
		return nil, err
	}

	var updated *model.Budget
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		budget, err := s.loadEditable(ctx, tx, p, budgetID)
		if err != nil {
			return err
		}
		upa, err := tx.UPAs.Get(ctx, input.UPAID)
		if err != nil {
			return notFound(err, "UPA")
		}
		if upa.OrganizationID != budget.OrganizationID && !upa.IsPublic {
			return fmt.Errorf("%w: UPA", ErrNotFound)
		}

		quantity := input.Quantity
		line := model.BudgetUPA{
			BudgetID:   budgetID,
			UPAID:      upa.ID,
			Title:      upa.Title,
			Unit:       upa.Unit,
			Quantity:   quantity,
			UnitPrice:  upa.TotalPrice,
			TotalPrice: LineTotal(quantity, upa.TotalPrice),
		}
		if err := tx.Budgets.CreateUPAs(ctx, []model.BudgetUPA{line}); err != nil {
			return err
		}
		updated, err = tx.Budgets.Get(ctx, budgetID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *BudgetService) RemoveLine(ctx context.Context, p model.Principal, budgetID, lineID uuid.UUID) (*model.Budget, error) {
	var updated *model.Budget
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		if _, err := s.loadEditable(ctx, tx, p, budgetID); err != nil {
			return err
		}
		removed, err := tx.Budgets.DeleteLine(ctx, budgetID, lineID)
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("%w: budget line", ErrNotFound)
		}
		updated, err = tx.Budgets.Get(ctx, budgetID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ApplyToProject links a budget to a project. An existing link is returned
// as is. With CreateCopy the budget is cloned with all of its lines and the
// clone is linked instead, leaving the source untouched. Templates are only
// ever applied through copies.
func (s *BudgetService) ApplyToProject(ctx context.Context, p model.Principal, budgetID uuid.UUID, input ApplyBudgetInput) (*ApplyResult, error) {
	if input.ProjectID == uuid.Nil {
		return nil, fmt.Errorf("%w: project_id is required", ErrInvalidInput)
	}

	var result *ApplyResult
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		budget, err := s.loadEditable(ctx, tx, p, budgetID)
		if err != nil {
			return err
		}
		project, err := tx.Projects.Get(ctx, input.ProjectID)
		if err != nil {
			return notFound(err, "project")
		}
		if err := requireEditor(p, project.OrganizationID); err != nil {
			return err
		}

		existing, err := tx.Budgets.FindAssociation(ctx, budget.ID, project.ID)
		switch {
		case err == nil:
			result = &ApplyResult{Association: existing, Budget: budget, Created: false}
			return nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		target := budget
		if input.CreateCopy {
			target, err = cloneBudget(ctx, tx, budget)
			if err != nil {
				return err
			}
		} else if budget.IsTemplate {
			return fmt.Errorf("%w: templates can only be applied as a copy", ErrInvalidInput)
		}

		link := &model.BudgetProject{BudgetID: target.ID, ProjectID: project.ID}
		if err := tx.Budgets.CreateAssociation(ctx, link); err != nil {
			return err
		}
		result = &ApplyResult{Association: link, Budget: target, Created: true}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Created {
		s.log.Info().
			Str("budget_id", budgetID.String()).
			Str("linked_budget_id", result.Budget.ID.String()).
			Str("project_id", input.ProjectID.String()).
			Bool("copy", input.CreateCopy).
			Msg("budget applied to project")
	}
	return result, nil
}

func (s *BudgetService) Detach(ctx context.Context, p model.Principal, budgetID, projectID uuid.UUID) error {
	return s.store.InTx(ctx, func(tx *repository.Store) error {
		if _, err := s.loadEditable(ctx, tx, p, budgetID); err != nil {
			return err
		}
		removed, err := tx.Budgets.DeleteAssociation(ctx, budgetID, projectID)
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("%w: budget is not linked to the project", ErrNotFound)
		}
		return nil
	})
}

func (s *BudgetService) loadEditable(ctx context.Context, tx *repository.Store, p model.Principal, id uuid.UUID) (*model.Budget, error) {
	budget, err := tx.Budgets.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "budget")
	}
	if err := requireEditor(p, budget.OrganizationID); err != nil {
		return nil, err
	}
	return budget, nil
}

// cloneBudget deep-copies the header and every line into a new non-template
// budget that remembers its source.
func cloneBudget(ctx context.Context, tx *repository.Store, source *model.Budget) (*model.Budget, error) {
	sourceID := source.ID
	clone := &model.Budget{
		OrganizationID: source.OrganizationID,
		Title:          source.Title,
		Description:    source.Description,
		IsTemplate:     false,
		SourceBudgetID: &sourceID,
	}
	if err := tx.Budgets.Create(ctx, clone); err != nil {
		return nil, err
	}

	items := make([]model.BudgetItem, 0, len(source.Items))
	for _, item := range source.Items {
		item.ID = uuid.Nil
		item.BudgetID = clone.ID
		item.CreatedAt = time.Time{}
		items = append(items, item)
	}
	if err := tx.Budgets.CreateItems(ctx, items); err != nil {
		return nil, err
	}

	upas := make([]model.BudgetUPA, 0, len(source.UPAs))
	for _, line := range source.UPAs {
		line.ID = uuid.Nil
		line.BudgetID = clone.ID
		line.CreatedAt = time.Time{}
		upas = append(upas, line)
	}
	if err := tx.Budgets.CreateUPAs(ctx, upas); err != nil {
		return nil, err
	}

	return tx.Budgets.Get(ctx, clone.ID)
}
