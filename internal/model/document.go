package model

// BudgetDocument is everything the budget workbook export needs.
type BudgetDocument struct {
	Budget       Budget
	Organization Organization
	Projects     []Project
	UPAs         []UnitPriceAnalysis
}

type UPADocument struct {
	UPA          UnitPriceAnalysis
	Organization Organization
}

// All lists every persisted model in dependency order.
func All() []interface{} {
	return []interface{}{
		&Organization{},
		&OrganizationMember{},
		&CatalogComponent{},
		&UnitPriceAnalysis{},
		&UPALine{},
		&Project{},
		&ProjectViewer{},
		&Item{},
		&Budget{},
		&BudgetItem{},
		&BudgetUPA{},
		&BudgetProject{},
	}
}
