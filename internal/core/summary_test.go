package core

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func cents(units int64) Money { return Money{Cents: units * 100} }

func TestTotalAmountIsOrderIndependent(t *testing.T) {
	require.Equal(t, Money{}, TotalAmount([]Income(nil)))

	a := []Expense{{Amount: cents(3)}, {Amount: cents(5)}, {Amount: Money{Cents: 1}}}
	b := []Expense{a[2], a[0], a[1]}
	require.Equal(t, TotalAmount(a), TotalAmount(b))
	require.Equal(t, Money{Cents: 801}, TotalAmount(a))
}

func TestBalanceIdentity(t *testing.T) {
	require.Equal(t, Money{}, Balance(nil, nil))
	require.Equal(t, cents(-10), Balance(nil, []Expense{{Amount: cents(10)}}))
	require.Equal(t, cents(10), Balance([]Income{{Amount: cents(10)}}, nil))
}

func TestGroupByCategoryPartitionsTotal(t *testing.T) {
	expenses := []Expense{
		{Amount: cents(300), Category: CategoryGroceries},
		{Amount: cents(200), Category: CategoryTransport},
		{Amount: cents(50), Category: CategoryGroceries},
	}
	groups := GroupByCategory(expenses)
	require.Len(t, groups, 2)
	_, hasHousing := groups[CategoryHousing]
	require.False(t, hasHousing, "absent categories stay absent")

	var sum Money
	for _, m := range groups {
		sum = sum.Add(m)
	}
	require.Equal(t, TotalAmount(expenses), sum)
	require.Empty(t, GroupByCategory(nil))
}

func TestGroupByPersonIncludesEveryPerson(t *testing.T) {
	groups := GroupByPerson([]Income{{Amount: cents(10), Person: PersonExtra}})
	require.Equal(t, map[Person]Money{PersonP1: {}, PersonP2: {}, PersonExtra: cents(10)}, groups)

	resp := GroupByResponsible([]Expense{{Amount: cents(4), Responsible: ResponsibleP2}})
	require.Equal(t, map[Responsible]Money{ResponsibleP1: {}, ResponsibleP2: cents(4)}, resp)
}

func TestPercentageOfTotal(t *testing.T) {
	require.True(t, math.IsNaN(float64(PercentageOfTotal(cents(1), Money{}))))
	require.InDelta(t, 25.0, float64(PercentageOfTotal(cents(1), cents(4))), 1e-9)

	b, err := json.Marshal(struct {
		P Percentage `json:"p"`
		Q Percentage `json:"q"`
	}{PercentageOfTotal(cents(1), Money{}), PercentageOfTotal(cents(1), cents(3))})
	require.NoError(t, err)
	require.JSONEq(t, `{"p": null, "q": 33.3}`, string(b))
}

func TestMonthlyAnalysisScenario(t *testing.T) {
	p, err := NewPeriod(2025, 3)
	require.NoError(t, err)

	incomes := []Income{
		{Amount: cents(1000), Person: PersonP1, Date: day(2025, 3, 1)},
		{Amount: cents(500), Person: PersonP2, Date: day(2025, 3, 31)},
		{Amount: cents(999), Person: PersonP2, Date: day(2025, 4, 1)},
	}
	expenses := []Expense{
		{Amount: cents(300), Category: CategoryGroceries, Date: day(2025, 3, 15)},
		{Amount: cents(200), Category: CategoryTransport, Date: day(2025, 3, 2)},
		{Amount: cents(77), Category: CategoryHealth, Date: day(2025, 2, 28)},
	}

	a := MonthlyAnalysis(p, time.UTC, incomes, expenses)
	require.Equal(t, cents(1500), a.TotalIncome)
	require.Equal(t, cents(500), a.TotalExpense)
	require.Equal(t, cents(1000), a.Balance)
	require.Equal(t, map[Category]Money{CategoryGroceries: cents(300), CategoryTransport: cents(200)}, a.ByCategory)
	require.Len(t, a.Incomes, 2)
	require.Len(t, a.Expenses, 2)
}

func TestCompareMonthsIsIndependent(t *testing.T) {
	jan, _ := NewPeriod(2025, 1)
	feb, _ := NewPeriod(2025, 2)
	incomes := []Income{{Amount: cents(1000), Date: day(2025, 1, 5)}, {Amount: cents(1200), Date: day(2025, 2, 5)}}
	expenses := []Expense{{Amount: cents(800), Date: day(2025, 1, 6)}, {Amount: cents(900), Date: day(2025, 2, 6)}}

	c := CompareMonths(
		MonthlyAnalysis(jan, time.UTC, incomes, expenses),
		MonthlyAnalysis(feb, time.UTC, incomes, expenses),
	)
	require.Equal(t, cents(200), c.First.Balance)
	require.Equal(t, cents(300), c.Second.Balance)
}

func TestCategoryBreakdownSorted(t *testing.T) {
	rows := CategoryBreakdown(map[Category]Money{
		CategoryOther:     cents(100),
		CategoryHousing:   cents(500),
		CategoryGroceries: cents(100),
	}, cents(700))
	require.Equal(t, []Category{CategoryHousing, CategoryGroceries, CategoryOther},
		[]Category{rows[0].Category, rows[1].Category, rows[2].Category})
	require.InDelta(t, 71.43, float64(rows[0].Percentage), 0.01)
}

func TestBuildDashboard(t *testing.T) {
	p, _ := NewPeriod(2025, 5)
	a := MonthlyAnalysis(p, time.UTC,
		[]Income{{Amount: cents(2000), Person: PersonP1, Date: day(2025, 5, 1)}},
		[]Expense{{Amount: cents(500), Category: CategoryHousing, Responsible: ResponsibleP2, Date: day(2025, 5, 2)}},
	)
	d := BuildDashboard(a)
	require.Equal(t, cents(1500), d.Balance)
	require.InDelta(t, 25.0, float64(d.ExpenseShare), 1e-9)
	require.InDelta(t, 75.0, float64(d.AvailableShare), 1e-9)
	require.Equal(t, Allocation{Needs: cents(1000), Wants: cents(600), Savings: cents(400)}, d.Allocation)
	require.Equal(t, cents(500), d.ExpenseByResponsible[ResponsibleP2])

	empty := BuildDashboard(MonthlyAnalysis(p, time.UTC, nil, nil))
	require.False(t, empty.ExpenseShare.Defined())
	require.False(t, empty.AvailableShare.Defined())
	require.Empty(t, empty.Categories)
}
