package http

import (
	"time"

	"presupuesto/internal/core"
)

// JSON shapes of the API. Keys are the Spanish names the dashboard reads.
type (
	incomeJSON struct {
		ID        int64       `json:"id"`
		Concept   string      `json:"concepto"`
		Amount    core.Money  `json:"monto"`
		Person    core.Person `json:"persona"`
		Date      time.Time   `json:"fecha"`
		CreatedAt time.Time   `json:"createdAt"`
		UpdatedAt time.Time   `json:"updatedAt"`
	}

	expenseJSON struct {
		ID          int64            `json:"id"`
		Concept     string           `json:"concepto"`
		Amount      core.Money       `json:"monto"`
		Category    core.Category    `json:"categoria"`
		Responsible core.Responsible `json:"responsable"`
		Date        time.Time        `json:"fecha"`
		CreatedAt   time.Time        `json:"createdAt"`
		UpdatedAt   time.Time        `json:"updatedAt"`
	}

	monthSummaryJSON struct {
		Month        int                          `json:"mes"`
		Year         int                          `json:"anio"`
		TotalIncome  core.Money                   `json:"totalIngresos"`
		TotalExpense core.Money                   `json:"totalGastos"`
		Balance      core.Money                   `json:"balance"`
		ByCategory   map[core.Category]core.Money `json:"gastosPorCategoria"`
	}

	analysisJSON struct {
		monthSummaryJSON
		Incomes  []incomeJSON  `json:"ingresos"`
		Expenses []expenseJSON `json:"gastos"`
	}

	comparisonJSON struct {
		First  monthSummaryJSON `json:"mes1"`
		Second monthSummaryJSON `json:"mes2"`
	}

	exportIncomeJSON struct {
		Concept string      `json:"concepto"`
		Amount  core.Money  `json:"monto"`
		Person  core.Person `json:"persona"`
	}

	exportExpenseJSON struct {
		Concept     string           `json:"concepto"`
		Amount      core.Money       `json:"monto"`
		Category    core.Category    `json:"categoria"`
		Responsible core.Responsible `json:"responsable"`
	}

	exportJSON struct {
		Period       string              `json:"periodo"`
		TotalIncome  core.Money          `json:"totalIngresos"`
		TotalExpense core.Money          `json:"totalGastos"`
		Balance      core.Money          `json:"balance"`
		Incomes      []exportIncomeJSON  `json:"ingresos"`
		Expenses     []exportExpenseJSON `json:"gastos"`
	}

	categoryShareJSON struct {
		Category   core.Category   `json:"categoria"`
		Amount     core.Money      `json:"monto"`
		Percentage core.Percentage `json:"porcentaje"`
	}

	allocationJSON struct {
		Needs   core.Money `json:"necesidades"`
		Wants   core.Money `json:"deseos"`
		Savings core.Money `json:"ahorros"`
	}

	dashboardJSON struct {
		Month                int                             `json:"mes"`
		Year                 int                             `json:"anio"`
		TotalIncome          core.Money                      `json:"totalIngresos"`
		TotalExpense         core.Money                      `json:"totalGastos"`
		Balance              core.Money                      `json:"balance"`
		IncomeByPerson       map[core.Person]core.Money      `json:"ingresosPorPersona"`
		ExpenseByResponsible map[core.Responsible]core.Money `json:"gastosPorResponsable"`
		Categories           []categoryShareJSON             `json:"categorias"`
		ExpenseShare         core.Percentage                 `json:"porcentajeGastos"`
		AvailableShare       core.Percentage                 `json:"porcentajeDisponible"`
		Allocation           allocationJSON                  `json:"regla503020"`
	}
)

func newIncomeJSON(in core.Income, loc *time.Location) incomeJSON {
	return incomeJSON{
		ID:        in.ID,
		Concept:   in.Concept,
		Amount:    in.Amount,
		Person:    in.Person,
		Date:      in.Date.In(loc),
		CreatedAt: in.CreatedAt.In(loc),
		UpdatedAt: in.UpdatedAt.In(loc),
	}
}

func newExpenseJSON(e core.Expense, loc *time.Location) expenseJSON {
	return expenseJSON{
		ID:          e.ID,
		Concept:     e.Concept,
		Amount:      e.Amount,
		Category:    e.Category,
		Responsible: e.Responsible,
		Date:        e.Date.In(loc),
		CreatedAt:   e.CreatedAt.In(loc),
		UpdatedAt:   e.UpdatedAt.In(loc),
	}
}

// Lists always encode as arrays, never null.
func newIncomeList(list []core.Income, loc *time.Location) []incomeJSON {
	out := make([]incomeJSON, 0, len(list))
	for _, in := range list {
		out = append(out, newIncomeJSON(in, loc))
	}
	return out
}

func newExpenseList(list []core.Expense, loc *time.Location) []expenseJSON {
	out := make([]expenseJSON, 0, len(list))
	for _, e := range list {
		out = append(out, newExpenseJSON(e, loc))
	}
	return out
}

func newMonthSummaryJSON(a core.Analysis) monthSummaryJSON {
	byCategory := a.ByCategory
	if byCategory == nil {
		byCategory = map[core.Category]core.Money{}
	}
	return monthSummaryJSON{
		Month:        int(a.Period.Month),
		Year:         a.Period.Year,
		TotalIncome:  a.TotalIncome,
		TotalExpense: a.TotalExpense,
		Balance:      a.Balance,
		ByCategory:   byCategory,
	}
}

func newAnalysisJSON(a core.Analysis, loc *time.Location) analysisJSON {
	return analysisJSON{
		monthSummaryJSON: newMonthSummaryJSON(a),
		Incomes:          newIncomeList(a.Incomes, loc),
		Expenses:         newExpenseList(a.Expenses, loc),
	}
}

func newComparisonJSON(c core.Comparison) comparisonJSON {
	return comparisonJSON{
		First:  newMonthSummaryJSON(c.First),
		Second: newMonthSummaryJSON(c.Second),
	}
}

func newExportJSON(a core.Analysis) exportJSON {
	out := exportJSON{
		Period:       a.Period.String(),
		TotalIncome:  a.TotalIncome,
		TotalExpense: a.TotalExpense,
		Balance:      a.Balance,
		Incomes:      make([]exportIncomeJSON, 0, len(a.Incomes)),
		Expenses:     make([]exportExpenseJSON, 0, len(a.Expenses)),
	}
	for _, in := range a.Incomes {
		out.Incomes = append(out.Incomes, exportIncomeJSON{Concept: in.Concept, Amount: in.Amount, Person: in.Person})
	}
	for _, e := range a.Expenses {
		out.Expenses = append(out.Expenses, exportExpenseJSON{
			Concept:     e.Concept,
			Amount:      e.Amount,
			Category:    e.Category,
			Responsible: e.Responsible,
		})
	}
	return out
}

func newDashboardJSON(d core.Dashboard) dashboardJSON {
	categories := make([]categoryShareJSON, 0, len(d.Categories))
	for _, c := range d.Categories {
		categories = append(categories, categoryShareJSON{Category: c.Category, Amount: c.Amount, Percentage: c.Percentage})
	}
	return dashboardJSON{
		Month:                int(d.Period.Month),
		Year:                 d.Period.Year,
		TotalIncome:          d.TotalIncome,
		TotalExpense:         d.TotalExpense,
		Balance:              d.Balance,
		IncomeByPerson:       d.IncomeByPerson,
		ExpenseByResponsible: d.ExpenseByResponsible,
		Categories:           categories,
		ExpenseShare:         d.ExpenseShare,
		AvailableShare:       d.AvailableShare,
		Allocation: allocationJSON{
			Needs:   d.Allocation.Needs,
			Wants:   d.Allocation.Wants,
			Savings: d.Allocation.Savings,
		},
	}
}
