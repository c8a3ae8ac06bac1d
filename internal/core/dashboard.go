package core

// Allocation is the 50/30/20 reference split of income.
type Allocation struct {
	Needs   Money
	Wants   Money
	Savings Money
}

// Dashboard is the view model behind the single-page dashboard.
type Dashboard struct {
	Period               Period
	TotalIncome          Money
	TotalExpense         Money
	Balance              Money
	IncomeByPerson       map[Person]Money
	ExpenseByResponsible map[Responsible]Money
	Categories           []CategoryAmount
	ExpenseShare         Percentage // expense as percent of income
	AvailableShare       Percentage // balance as percent of income
	Allocation           Allocation
}

// Rule503020 splits income into needs, wants and savings.
func Rule503020(income Money) Allocation {
	return Allocation{
		Needs:   income.Percent(50),
		Wants:   income.Percent(30),
		Savings: income.Percent(20),
	}
}

// BuildDashboard derives the dashboard figures from a month analysis.
func BuildDashboard(a Analysis) Dashboard {
	return Dashboard{
		Period:               a.Period,
		TotalIncome:          a.TotalIncome,
		TotalExpense:         a.TotalExpense,
		Balance:              a.Balance,
		IncomeByPerson:       GroupByPerson(a.Incomes),
		ExpenseByResponsible: GroupByResponsible(a.Expenses),
		Categories:           CategoryBreakdown(a.ByCategory, a.TotalExpense),
		ExpenseShare:         PercentageOfTotal(a.TotalExpense, a.TotalIncome),
		AvailableShare:       PercentageOfTotal(a.Balance, a.TotalIncome),
		Allocation:           Rule503020(a.TotalIncome),
	}
}
