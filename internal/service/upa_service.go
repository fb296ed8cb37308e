package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nurpe/budget-service/internal/model"
	"github.com/nurpe/budget-service/internal/repository"
)

// UPAService owns unit price analyses and keeps their totals equal to the
// sum of their lines.
type UPAService struct {
	store *repository.Store
}

func NewUPAService(store *repository.Store) *UPAService {
	return &UPAService{store: store}
}

// UPALineInput is one submitted line. Any caller supplied total is ignored:
// the line total is always quantity × unit price.
type UPALineInput struct {
	ComponentID *uuid.UUID      `json:"component_id"`
	Name        string          `json:"name" validate:"required,max=200"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit" validate:"required,max=32"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type CreateUPAInput struct {
	Title                 string           `json:"title" validate:"required,max=200"`
	Code                  *string          `json:"code" validate:"omitempty,max=64"`
	Unit                  string           `json:"unit" validate:"required,max=32"`
	HasAnnualMaintenance  bool             `json:"has_annual_maintenance"`
	MaintenanceYears      *int             `json:"maintenance_years"`
	AnnualMaintenanceRate *decimal.Decimal `json:"annual_maintenance_rate"`
	IsPublic              bool             `json:"is_public"`
	Materials             []UPALineInput   `json:"materials" validate:"-"`
	Labor                 []UPALineInput   `json:"labor" validate:"-"`
	Equipment             []UPALineInput   `json:"equipment" validate:"-"`
}

// UpdateUPAInput is a partial update. A non-nil category replaces every
// line of that category; an empty one clears it; nil leaves it untouched.
type UpdateUPAInput struct {
	Title                 *string          `json:"title" validate:"omitempty,min=1,max=200"`
	Code                  *string          `json:"code" validate:"omitempty,max=64"`
	Unit                  *string          `json:"unit" validate:"omitempty,min=1,max=32"`
	HasAnnualMaintenance  *bool            `json:"has_annual_maintenance"`
	MaintenanceYears      *int             `json:"maintenance_years"`
	AnnualMaintenanceRate *decimal.Decimal `json:"annual_maintenance_rate"`
	IsPublic              *bool            `json:"is_public"`
	Materials             *[]UPALineInput  `json:"materials" validate:"-"`
	Labor                 *[]UPALineInput  `json:"labor" validate:"-"`
	Equipment             *[]UPALineInput  `json:"equipment" validate:"-"`
}

type UPAFilter struct {
	IsPublic *bool
	Search   string
}

func (in CreateUPAInput) lines() map[model.ComponentKind][]UPALineInput {
	return map[model.ComponentKind][]UPALineInput{
		model.ComponentKindMaterial:  in.Materials,
		model.ComponentKindLabor:     in.Labor,
		model.ComponentKindEquipment: in.Equipment,
	}
}

func (in UpdateUPAInput) lines() map[model.ComponentKind]*[]UPALineInput {
	return map[model.ComponentKind]*[]UPALineInput{
		model.ComponentKindMaterial:  in.Materials,
		model.ComponentKindLabor:     in.Labor,
		model.ComponentKindEquipment: in.Equipment,
	}
}

// Create stores the header and all lines atomically.
func (s *UPAService) Create(ctx context.Context, p model.Principal, input CreateUPAInput) (*model.UnitPriceAnalysis, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Unit = strings.TrimSpace(input.Unit)
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	years, rate, err := maintenanceTerms(input.HasAnnualMaintenance, input.MaintenanceYears, input.AnnualMaintenanceRate)
	if err != nil {
		return nil, err
	}

	orgID, err := activeOrganization(p)
	if err != nil {
		return nil, err
	}
	if err := requireEditor(p, orgID); err != nil {
		return nil, err
	}

	var created *model.UnitPriceAnalysis
	err = s.store.InTx(ctx, func(tx *repository.Store) error {
		if _, err := requireOrganizationType(ctx, tx, orgID, model.OrganizationTypeContractor); err != nil {
			return err
		}

		var lines []model.UPALine
		for _, kind := range model.ComponentKinds {
			built, err := buildLines(ctx, tx, orgID, kind, input.lines()[kind])
			if err != nil {
				return err
			}
			lines = append(lines, built...)
		}

		upa := &model.UnitPriceAnalysis{
			OrganizationID:        orgID,
			Title:                 input.Title,
			Code:                  optionalText(input.Code),
			Unit:                  input.Unit,
			TotalPrice:            RecomputeTotal(lines),
			HasAnnualMaintenance:  input.HasAnnualMaintenance,
			MaintenanceYears:      years,
			AnnualMaintenanceRate: rate,
			IsPublic:              input.IsPublic,
		}
		if err := tx.UPAs.Create(ctx, upa, lines); err != nil {
			return err
		}

		created, err = tx.UPAs.Get(ctx, upa.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *UPAService) Get(ctx context.Context, p model.Principal, id uuid.UUID) (*model.UnitPriceAnalysis, error) {
	return loadVisibleUPA(ctx, s.store, p, id)
}

// List returns headers only. IsPublic set to true lists the public UPAs of
// every organization.
func (s *UPAService) List(ctx context.Context, p model.Principal, filter UPAFilter) ([]model.UnitPriceAnalysis, error) {
	repoFilter := repository.UPAFilter{IsPublic: filter.IsPublic, Search: filter.Search}
	if filter.IsPublic == nil || !*filter.IsPublic {
		orgID, err := activeOrganization(p)
		if err != nil {
			return nil, err
		}
		repoFilter.OrganizationID = orgID
	}
	return s.store.UPAs.List(ctx, repoFilter)
}

// Update patches the header, replaces the supplied line categories and
// recomputes the total from every remaining line.
func (s *UPAService) Update(ctx context.Context, p model.Principal, id uuid.UUID, input UpdateUPAInput) (*model.UnitPriceAnalysis, error) {
	input.Title = trimPatch(input.Title)
	input.Unit = trimPatch(input.Unit)
	if err := requireFilled("title", input.Title); err != nil {
		return nil, err
	}
	if err := requireFilled("unit", input.Unit); err != nil {
		return nil, err
	}
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	var updated *model.UnitPriceAnalysis
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		upa, err := tx.UPAs.Get(ctx, id)
		if err != nil {
			return notFound(err, "UPA")
		}
		if err := requireEditor(p, upa.OrganizationID); err != nil {
			return err
		}
		if err := tx.UPAs.Touch(ctx, []uuid.UUID{id}); err != nil {
			return err
		}

		fields, err := headerFields(upa, input)
		if err != nil {
			return err
		}

		for _, kind := range model.ComponentKinds {
			replacement := input.lines()[kind]
			if replacement == nil {
				continue
			}
			lines, err := buildLines(ctx, tx, upa.OrganizationID, kind, *replacement)
			if err != nil {
				return err
			}
			if err := tx.UPAs.DeleteLines(ctx, id, kind); err != nil {
				return err
			}
			for i := range lines {
				lines[i].UPAID = id
			}
			if err := tx.UPAs.CreateLines(ctx, lines); err != nil {
				return err
			}
		}

		if err := tx.UPAs.UpdateHeader(ctx, id, fields); err != nil {
			return err
		}
		if err := recalculateUPA(ctx, tx, id); err != nil {
			return err
		}

		updated, err = tx.UPAs.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the UPA and its lines unless a budget still prices it.
func (s *UPAService) Delete(ctx context.Context, p model.Principal, id uuid.UUID) error {
	return s.store.InTx(ctx, func(tx *repository.Store) error {
		upa, err := tx.UPAs.Get(ctx, id)
		if err != nil {
			return notFound(err, "UPA")
		}
		if err := requireEditor(p, upa.OrganizationID); err != nil {
			return err
		}
		refs, err := tx.Budgets.CountUPAReferences(ctx, id)
		if err != nil {
			return err
		}
		if refs > 0 {
			return fmt.Errorf("%w: UPA is used by %d budget lines", ErrResourceInUse, refs)
		}
		return tx.UPAs.Delete(ctx, id)
	})
}

func loadVisibleUPA(ctx context.Context, store *repository.Store, p model.Principal, id uuid.UUID) (*model.UnitPriceAnalysis, error) {
	upa, err := store.UPAs.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "UPA")
	}
	if !canRead(p, upa.OrganizationID, upa.IsPublic) {
		return nil, fmt.Errorf("%w: UPA", ErrNotFound)
	}
	return upa, nil
}

// buildLines validates one category and prices every line server-side.
func buildLines(ctx context.Context, tx *repository.Store, orgID uuid.UUID, kind model.ComponentKind, inputs []UPALineInput) ([]model.UPALine, error) {
	lines := make([]model.UPALine, 0, len(inputs))
	for i, in := range inputs {
		in.Name = strings.TrimSpace(in.Name)
		in.Unit = strings.TrimSpace(in.Unit)
		if err := validateStruct(in); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", kind, i+1, err)
		}
		in.Quantity = in.Quantity.Round(moneyScale)
		in.UnitPrice = in.UnitPrice.Round(moneyScale)
		if err := requirePositive("quantity", in.Quantity); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", kind, i+1, err)
		}
		if err := requireNonNegative("unit_price", in.UnitPrice); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", kind, i+1, err)
		}
		if in.ComponentID != nil {
			if err := checkLineComponent(ctx, tx, orgID, kind, *in.ComponentID); err != nil {
				return nil, fmt.Errorf("%s line %d: %w", kind, i+1, err)
			}
		}

		quantity, unitPrice := in.Quantity, in.UnitPrice
		lines = append(lines, model.UPALine{
			Kind:        kind,
			Position:    i,
			Name:        in.Name,
			Quantity:    quantity,
			Unit:        in.Unit,
			UnitPrice:   unitPrice,
			TotalPrice:  LineTotal(quantity, unitPrice),
			ComponentID: in.ComponentID,
		})
	}
	return lines, nil
}

// checkLineComponent accepts back-references to same-kind components the
// organization owns or that are public.
func checkLineComponent(ctx context.Context, tx *repository.Store, orgID uuid.UUID, kind model.ComponentKind, componentID uuid.UUID) error {
	component, err := tx.Components.Get(ctx, componentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: component_id does not exist", ErrInvalidInput)
	}
	if err != nil {
		return err
	}
	if component.Kind != kind {
		return fmt.Errorf("%w: component_id refers to a %s, not a %s", ErrInvalidInput, component.Kind, kind)
	}
	if component.OrganizationID != orgID && !component.IsPublic {
		return fmt.Errorf("%w: component_id is not available to this organization", ErrInvalidInput)
	}
	return nil
}

func headerFields(upa *model.UnitPriceAnalysis, input UpdateUPAInput) (map[string]interface{}, error) {
	fields := map[string]interface{}{}
	if input.Title != nil {
		fields["title"] = *input.Title
	}
	if input.Code != nil {
		fields["code"] = optionalText(input.Code)
	}
	if input.Unit != nil {
		fields["unit"] = *input.Unit
	}
	if input.IsPublic != nil {
		fields["is_public"] = *input.IsPublic
	}

	touchesMaintenance := input.HasAnnualMaintenance != nil || input.MaintenanceYears != nil || input.AnnualMaintenanceRate != nil
	if !touchesMaintenance {
		return fields, nil
	}

	has := upa.HasAnnualMaintenance
	if input.HasAnnualMaintenance != nil {
		has = *input.HasAnnualMaintenance
	}
	years := upa.MaintenanceYears
	if input.MaintenanceYears != nil {
		years = input.MaintenanceYears
	}
	var rate *decimal.Decimal
	if upa.AnnualMaintenanceRate.Valid {
		current := upa.AnnualMaintenanceRate.Decimal
		rate = &current
	}
	if input.AnnualMaintenanceRate != nil {
		rate = input.AnnualMaintenanceRate
	}

	years, nullRate, err := maintenanceTerms(has, years, rate)
	if err != nil {
		return nil, err
	}
	fields["has_annual_maintenance"] = has
	fields["maintenance_years"] = years
	fields["annual_maintenance_rate"] = nullRate
	return fields, nil
}

// maintenanceTerms validates the maintenance block. Without annual
// maintenance both terms are cleared.
func maintenanceTerms(has bool, years *int, rate *decimal.Decimal) (*int, decimal.NullDecimal, error) {
	if !has {
		return nil, decimal.NullDecimal{}, nil
	}
	if years == nil || *years <= 0 {
		return nil, decimal.NullDecimal{}, fmt.Errorf("%w: maintenance_years must be greater than 0", ErrInvalidInput)
	}
	if rate == nil {
		return nil, decimal.NullDecimal{}, fmt.Errorf("%w: annual_maintenance_rate is required", ErrInvalidInput)
	}
	if err := requireNonNegative("annual_maintenance_rate", *rate); err != nil {
		return nil, decimal.NullDecimal{}, err
	}
	return years, decimal.NewNullDecimal(rate.Round(moneyScale)), nil
}
