package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nurpe/budget-service/internal/model"
	"github.com/nurpe/budget-service/internal/repository"
)

// ItemService manages the products STORE organizations publish.
type ItemService struct {
	store *repository.Store
}

func NewItemService(store *repository.Store) *ItemService {
	return &ItemService{store: store}
}

type CreateItemInput struct {
	Name        string           `json:"name" validate:"required,max=200"`
	Description *string          `json:"description"`
	Unit        string           `json:"unit" validate:"required,max=32"`
	Price       *decimal.Decimal `json:"price"`
}

type UpdateItemInput struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string          `json:"description"`
	Unit        *string          `json:"unit" validate:"omitempty,min=1,max=32"`
	Price       *decimal.Decimal `json:"price"`
}

type ItemFilter struct {
	OrganizationID uuid.UUID
	Search         string
}

func (s *ItemService) Create(ctx context.Context, p model.Principal, input CreateItemInput) (*model.Item, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Unit = strings.TrimSpace(input.Unit)
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	price, err := requirePrice("price", input.Price)
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
	if _, err := requireOrganizationType(ctx, s.store, orgID, model.OrganizationTypeStore); err != nil {
		return nil, err
	}

	item := &model.Item{
		OrganizationID: orgID,
		Name:           input.Name,
		Description:    optionalText(input.Description),
		Unit:           input.Unit,
		Price:          price,
	}
	if err := s.store.Items.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *ItemService) Get(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	item, err := s.store.Items.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "item")
	}
	return item, nil
}

// List is open to every authenticated caller.
func (s *ItemService) List(ctx context.Context, filter ItemFilter) ([]model.Item, error) {
	return s.store.Items.List(ctx, repository.ItemFilter{
		OrganizationID: filter.OrganizationID,
		Search:         strings.TrimSpace(filter.Search),
	})
}

func (s *ItemService) Update(ctx context.Context, p model.Principal, id uuid.UUID, input UpdateItemInput) (*model.Item, error) {
	input.Name = trimPatch(input.Name)
	input.Unit = trimPatch(input.Unit)
	if err := requireFilled("name", input.Name); err != nil {
		return nil, err
	}
	if err := requireFilled("unit", input.Unit); err != nil {
		return nil, err
	}
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	var updated *model.Item
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		item, err := tx.Items.Get(ctx, id)
		if err != nil {
			return notFound(err, "item")
		}
		if err := requireEditor(p, item.OrganizationID); err != nil {
			return err
		}

		fields := map[string]interface{}{}
		if input.Name != nil {
			fields["name"] = *input.Name
		}
		if input.Description != nil {
			fields["description"] = optionalText(input.Description)
		}
		if input.Unit != nil {
			fields["unit"] = *input.Unit
		}
		if input.Price != nil {
			price, err := requirePrice("price", input.Price)
			if err != nil {
				return err
			}
			fields["price"] = price
		}

		if err := tx.Items.Update(ctx, id, fields); err != nil {
			return err
		}
		updated, err = tx.Items.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *ItemService) Delete(ctx context.Context, p model.Principal, id uuid.UUID) error {
	return s.store.InTx(ctx, func(tx *repository.Store) error {
		item, err := tx.Items.Get(ctx, id)
		if err != nil {
			return notFound(err, "item")
		}
		if err := requireEditor(p, item.OrganizationID); err != nil {
			return err
		}
		refs, err := tx.Budgets.CountItemReferences(ctx, id)
		if err != nil {
			return err
		}
		if refs > 0 {
			return fmt.Errorf("%w: item is used by %d budget lines", ErrResourceInUse, refs)
		}
		return tx.Items.Delete(ctx, id)
	})
}
