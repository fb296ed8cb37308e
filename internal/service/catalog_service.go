package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nurpe/budget-service/internal/model"
	"github.com/nurpe/budget-service/internal/repository"
)

// CatalogService manages the organization's materials, labor and equipment.
type CatalogService struct {
	store *repository.Store
	log   zerolog.Logger
}

func NewCatalogService(store *repository.Store, log zerolog.Logger) *CatalogService {
	return &CatalogService{store: store, log: log}
}

type ComponentInput struct {
	Code        *string          `json:"code" validate:"omitempty,max=64"`
	Name        string           `json:"name" validate:"required,max=200"`
	Description *string          `json:"description"`
	Unit        string           `json:"unit" validate:"required,max=32"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
	IsPublic    bool             `json:"is_public"`
}

type ComponentPatch struct {
	Code        *string          `json:"code" validate:"omitempty,max=64"`
	Name        *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string          `json:"description"`
	Unit        *string          `json:"unit" validate:"omitempty,min=1,max=32"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
	IsPublic    *bool            `json:"is_public"`
}

type ComponentFilter struct {
	// IsPublic set to true lists public entries of every organization.
	IsPublic *bool
	Search   string
}

type ComponentUpdateResult struct {
	Component   model.CatalogComponent
	Propagation PropagationResult
}

func (s *CatalogService) Create(ctx context.Context, p model.Principal, kind model.ComponentKind, input ComponentInput) (*model.CatalogComponent, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown component kind", ErrInvalidInput)
	}
	input.Name = strings.TrimSpace(input.Name)
	input.Unit = strings.TrimSpace(input.Unit)
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	price, err := requirePrice("unit_price", input.UnitPrice)
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
	if _, err := requireOrganizationType(ctx, s.store, orgID, model.OrganizationTypeContractor); err != nil {
		return nil, err
	}

	component := &model.CatalogComponent{
		Kind:           kind,
		OrganizationID: orgID,
		Code:           optionalText(input.Code),
		Name:           input.Name,
		Description:    optionalText(input.Description),
		Unit:           input.Unit,
		UnitPrice:      price,
		IsPublic:       input.IsPublic,
	}
	if err := s.store.Components.Create(ctx, component); err != nil {
		return nil, err
	}
	return component, nil
}

// List returns the entries with their usage counts.
func (s *CatalogService) List(ctx context.Context, p model.Principal, kind model.ComponentKind, filter ComponentFilter) ([]model.CatalogComponent, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown component kind", ErrInvalidInput)
	}

	repoFilter := repository.ComponentFilter{
		Kind:     kind,
		IsPublic: filter.IsPublic,
		Search:   filter.Search,
	}
	if filter.IsPublic == nil || !*filter.IsPublic {
		orgID, err := activeOrganization(p)
		if err != nil {
			return nil, err
		}
		repoFilter.OrganizationID = orgID
	}

	components, err := s.store.Components.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(components))
	for _, c := range components {
		ids = append(ids, c.ID)
	}
	counts, err := s.store.Components.UsageCounts(ctx, kind, ids)
	if err != nil {
		return nil, err
	}
	for i := range components {
		components[i].SetUsage(counts[components[i].ID])
	}
	return components, nil
}

func (s *CatalogService) Get(ctx context.Context, p model.Principal, kind model.ComponentKind, id uuid.UUID) (*model.CatalogComponent, error) {
	component, err := loadComponent(ctx, s.store, kind, id)
	if err != nil {
		return nil, err
	}
	if !canRead(p, component.OrganizationID, component.IsPublic) {
		return nil, fmt.Errorf("%w: component", ErrNotFound)
	}
	count, err := s.store.Components.UsageCount(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	component.SetUsage(count)
	return component, nil
}

// Update applies a partial update. A changed unit price is propagated to
// every UPA priced from the component in the same transaction.
func (s *CatalogService) Update(ctx context.Context, p model.Principal, kind model.ComponentKind, id uuid.UUID, patch ComponentPatch) (*ComponentUpdateResult, error) {
	return s.update(ctx, p, kind, id, patch, false)
}

// ChangePrice sets a new unit price and propagates it to every UPA line
// priced from the component, even when the catalog already holds that
// price. Nothing is written unless every line and UPA total is updated.
func (s *CatalogService) ChangePrice(ctx context.Context, p model.Principal, kind model.ComponentKind, id uuid.UUID, newUnitPrice decimal.Decimal) (*ComponentUpdateResult, error) {
	return s.update(ctx, p, kind, id, ComponentPatch{UnitPrice: &newUnitPrice}, true)
}

func (s *CatalogService) update(ctx context.Context, p model.Principal, kind model.ComponentKind, id uuid.UUID, patch ComponentPatch, forcePropagation bool) (*ComponentUpdateResult, error) {
	patch.Name = trimPatch(patch.Name)
	patch.Unit = trimPatch(patch.Unit)
	if err := requireFilled("name", patch.Name); err != nil {
		return nil, err
	}
	if err := requireFilled("unit", patch.Unit); err != nil {
		return nil, err
	}
	if err := validateStruct(patch); err != nil {
		return nil, err
	}
	var newPrice *decimal.Decimal
	if patch.UnitPrice != nil {
		price, err := requirePrice("unit_price", patch.UnitPrice)
		if err != nil {
			return nil, err
		}
		newPrice = &price
	}

	result := &ComponentUpdateResult{Propagation: PropagationResult{UpdatedUPAs: []uuid.UUID{}}}
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		component, err := loadComponent(ctx, tx, kind, id)
		if err != nil {
			return err
		}
		if err := requireEditor(p, component.OrganizationID); err != nil {
			return err
		}

		fields := map[string]interface{}{}
		if patch.Code != nil {
			fields["code"] = optionalText(patch.Code)
		}
		if patch.Name != nil {
			fields["name"] = *patch.Name
		}
		if patch.Description != nil {
			fields["description"] = optionalText(patch.Description)
		}
		if patch.Unit != nil {
			fields["unit"] = *patch.Unit
		}
		if patch.IsPublic != nil {
			fields["is_public"] = *patch.IsPublic
		}
		priceChanged := newPrice != nil && !newPrice.Equal(component.UnitPrice)
		if priceChanged {
			fields["unit_price"] = *newPrice
		}
		propagate := newPrice != nil && (priceChanged || forcePropagation)
		if len(fields) > 0 {
			if err := tx.Components.Update(ctx, id, fields); err != nil {
				return err
			}
		}

		if propagate {
			result.Propagation, err = propagatePrice(ctx, tx, kind, id, *newPrice)
			if err != nil {
				return err
			}
		}
		return s.reload(ctx, tx, kind, id, &result.Component)
	})
	if err != nil {
		return nil, err
	}
	s.logPropagation(result)
	return result, nil
}

// Delete refuses to remove a component still referenced by UPA lines.
func (s *CatalogService) Delete(ctx context.Context, p model.Principal, kind model.ComponentKind, id uuid.UUID) error {
	return s.store.InTx(ctx, func(tx *repository.Store) error {
		component, err := loadComponent(ctx, tx, kind, id)
		if err != nil {
			return err
		}
		if err := requireEditor(p, component.OrganizationID); err != nil {
			return err
		}
		count, err := tx.Components.UsageCount(ctx, kind, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: component is used by %d UPA lines", ErrResourceInUse, count)
		}
		return tx.Components.Delete(ctx, id)
	})
}

func (s *CatalogService) reload(ctx context.Context, tx *repository.Store, kind model.ComponentKind, id uuid.UUID, into *model.CatalogComponent) error {
	component, err := loadComponent(ctx, tx, kind, id)
	if err != nil {
		return err
	}
	count, err := tx.Components.UsageCount(ctx, kind, id)
	if err != nil {
		return err
	}
	component.SetUsage(count)
	*into = *component
	return nil
}

func (s *CatalogService) logPropagation(result *ComponentUpdateResult) {
	if result.Propagation.UpdatedLines == 0 {
		return
	}
	s.log.Info().
		Str("component_id", result.Component.ID.String()).
		Str("kind", string(result.Component.Kind)).
		Str("unit_price", result.Component.UnitPrice.String()).
		Int("lines", result.Propagation.UpdatedLines).
		Int("upas", len(result.Propagation.UpdatedUPAs)).
		Msg("catalog price propagated")
}

// loadComponent treats a kind mismatch as a missing component.
func loadComponent(ctx context.Context, store *repository.Store, kind model.ComponentKind, id uuid.UUID) (*model.CatalogComponent, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown component kind", ErrInvalidInput)
	}
	component, err := store.Components.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "component")
	}
	if component.Kind != kind {
		return nil, fmt.Errorf("%w: component", ErrNotFound)
	}
	return component, nil
}
