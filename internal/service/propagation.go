package service

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nurpe/budget-service/internal/model"
	"github.com/nurpe/budget-service/internal/repository"
)

type PropagationResult struct {
	UpdatedLines int         `json:"updated_lines"`
	UpdatedUPAs  []uuid.UUID `json:"updated_upas"`
}

// propagatePrice pushes a new catalog price into every UPA line of the same
// kind priced from the component, then recomputes the owning UPAs. It must
// run inside the caller's transaction. Lines are re-read after their UPAs are
// locked, until no unlocked UPA shows up.
func propagatePrice(ctx context.Context, tx *repository.Store, kind model.ComponentKind, componentID uuid.UUID, price decimal.Decimal) (PropagationResult, error) {
	result := PropagationResult{UpdatedUPAs: []uuid.UUID{}}

	locked := make(map[uuid.UUID]struct{})
	var lines []model.UPALine
	for {
		var err error
		lines, err = tx.UPAs.LinesByComponent(ctx, kind, componentID)
		if err != nil {
			return result, err
		}
		pending := make([]uuid.UUID, 0)
		for _, id := range owningUPAs(lines) {
			if _, ok := locked[id]; !ok {
				pending = append(pending, id)
			}
		}
		if len(pending) == 0 {
			break
		}
		if err := tx.UPAs.Touch(ctx, pending); err != nil {
			return result, err
		}
		for _, id := range pending {
			locked[id] = struct{}{}
		}
	}
	if len(lines) == 0 {
		return result, nil
	}

	for _, line := range lines {
		total := LineTotal(line.Quantity, price)
		if err := tx.UPAs.UpdateLinePrice(ctx, line.ID, price, total); err != nil {
			return result, err
		}
	}

	upaIDs := owningUPAs(lines)
	for _, upaID := range upaIDs {
		if err := recalculateUPA(ctx, tx, upaID); err != nil {
			return result, err
		}
	}

	result.UpdatedLines = len(lines)
	result.UpdatedUPAs = upaIDs
	return result, nil
}

// recalculateUPA reloads every line of the UPA and stores the fresh total.
func recalculateUPA(ctx context.Context, tx *repository.Store, upaID uuid.UUID) error {
	lines, err := tx.UPAs.Lines(ctx, upaID)
	if err != nil {
		return err
	}
	return tx.UPAs.SetTotal(ctx, upaID, RecomputeTotal(lines))
}

// owningUPAs returns the distinct UPA ids of the lines in a stable order so
// concurrent propagations lock rows in the same sequence.
func owningUPAs(lines []model.UPALine) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(lines))
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.UPAID]; ok {
			continue
		}
		seen[line.UPAID] = struct{}{}
		ids = append(ids, line.UPAID)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
	return ids
}
