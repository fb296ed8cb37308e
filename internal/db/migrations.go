package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/nurpe/budget-service/internal/model"
)

// postgresStatements add the constraints AutoMigrate cannot express.
var postgresStatements = []string{
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_component_unit_price') THEN
			ALTER TABLE catalog_components ADD CONSTRAINT chk_component_unit_price CHECK (unit_price >= 0);
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_upa_line_quantity') THEN
			ALTER TABLE upa_lines ADD CONSTRAINT chk_upa_line_quantity CHECK (quantity > 0);
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_upa_line_unit_price') THEN
			ALTER TABLE upa_lines ADD CONSTRAINT chk_upa_line_unit_price CHECK (unit_price >= 0);
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_item_price') THEN
			ALTER TABLE items ADD CONSTRAINT chk_item_price CHECK (price >= 0);
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_budget_item_quantity') THEN
			ALTER TABLE budget_items ADD CONSTRAINT chk_budget_item_quantity CHECK (quantity > 0);
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_budget_upa_quantity') THEN
			ALTER TABLE budget_upas ADD CONSTRAINT chk_budget_upa_quantity CHECK (quantity > 0);
		END IF;
	END
	$$;`,
	`CREATE INDEX IF NOT EXISTS idx_upa_lines_kind_component ON upa_lines (kind, component_id) WHERE component_id IS NOT NULL;`,
	`CREATE INDEX IF NOT EXISTS idx_components_public ON catalog_components (kind) WHERE is_public;`,
	`CREATE INDEX IF NOT EXISTS idx_upas_public ON unit_price_analyses (id) WHERE is_public;`,
}

// Migrate brings the schema up to date for any supported dialect.
func Migrate(database *gorm.DB) error {
	if err := database.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if database.Dialector.Name() != "postgres" {
		return nil
	}
	for i, stmt := range postgresStatements {
		if err := database.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
