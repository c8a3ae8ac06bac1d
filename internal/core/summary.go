package core

import (
	"math"
	"sort"
	"strconv"
	"time"
)

// CategoryAmount is an expense total for one category with its share of the
// month's total expense.
type CategoryAmount struct {
	Category   Category
	Amount     Money
	Percentage Percentage
}

// Analysis is the aggregate of one month.
type Analysis struct {
	Period       Period
	TotalIncome  Money
	TotalExpense Money
	Balance      Money
	ByCategory   map[Category]Money
	Incomes      []Income
	Expenses     []Expense
}

// Comparison holds two independently computed months.
type Comparison struct {
	First  Analysis
	Second Analysis
}

// Percentage is a ratio expressed in percent. NaN means undefined and is
// encoded as JSON null.
type Percentage float64

func (p Percentage) Defined() bool { return !math.IsNaN(float64(p)) }

// MarshalJSON rounds to one decimal, the precision the dashboard displays.
func (p Percentage) MarshalJSON() ([]byte, error) {
	f := float64(p)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(math.Round(f*10)/10, 'f', -1, 64)), nil
}

// TotalAmount sums the amounts of entries. Empty input sums to zero.
func TotalAmount[E Entry](entries []E) Money {
	var total Money
	for _, e := range entries {
		total = total.Add(e.EntryAmount())
	}
	return total
}

// Balance is total income minus total expense and may be negative.
func Balance(incomes []Income, expenses []Expense) Money {
	return TotalAmount(incomes).Sub(TotalAmount(expenses))
}

// GroupByCategory sums expenses per category. Categories without expenses are
// absent from the result.
func GroupByCategory(expenses []Expense) map[Category]Money {
	out := make(map[Category]Money)
	for _, e := range expenses {
		out[e.Category] = out[e.Category].Add(e.Amount)
	}
	return out
}

// GroupByPerson sums incomes per person. Every Person is present.
func GroupByPerson(incomes []Income) map[Person]Money {
	out := make(map[Person]Money, len(Persons()))
	for _, p := range Persons() {
		out[p] = Money{}
	}
	for _, i := range incomes {
		out[i.Person] = out[i.Person].Add(i.Amount)
	}
	return out
}

// GroupByResponsible sums expenses per responsible. Every Responsible is present.
func GroupByResponsible(expenses []Expense) map[Responsible]Money {
	out := make(map[Responsible]Money, len(Responsibles()))
	for _, r := range Responsibles() {
		out[r] = Money{}
	}
	for _, e := range expenses {
		out[e.Responsible] = out[e.Responsible].Add(e.Amount)
	}
	return out
}

// PercentageOfTotal returns part/whole*100, or NaN when whole is zero.
func PercentageOfTotal(part, whole Money) Percentage {
	if whole.IsZero() {
		return Percentage(math.NaN())
	}
	return Percentage(float64(part.Cents) / float64(whole.Cents) * 100)
}

// FilterPeriod keeps the entries dated inside p.
func FilterPeriod[E Entry](entries []E, p Period, loc *time.Location) []E {
	out := make([]E, 0, len(entries))
	for _, e := range entries {
		if p.Contains(e.EntryDate(), loc) {
			out = append(out, e)
		}
	}
	return out
}

// MonthlyAnalysis aggregates the entries of p. Entries outside the month are
// ignored, so callers may pass a wider set.
func MonthlyAnalysis(p Period, loc *time.Location, incomes []Income, expenses []Expense) Analysis {
	incomes = FilterPeriod(incomes, p, loc)
	expenses = FilterPeriod(expenses, p, loc)
	totalIncome := TotalAmount(incomes)
	totalExpense := TotalAmount(expenses)
	return Analysis{
		Period:       p,
		TotalIncome:  totalIncome,
		TotalExpense: totalExpense,
		Balance:      totalIncome.Sub(totalExpense),
		ByCategory:   GroupByCategory(expenses),
		Incomes:      incomes,
		Expenses:     expenses,
	}
}

// CompareMonths pairs two analyses. Each side is computed on its own data.
func CompareMonths(a, b Analysis) Comparison {
	return Comparison{First: a, Second: b}
}

// CategoryBreakdown returns the non-empty categories sorted by amount
// descending, ties in display order.
func CategoryBreakdown(byCategory map[Category]Money, total Money) []CategoryAmount {
	order := make(map[Category]int, len(Categories()))
	for i, c := range Categories() {
		order[c] = i
	}
	list := make([]CategoryAmount, 0, len(byCategory))
	for c, amt := range byCategory {
		list = append(list, CategoryAmount{Category: c, Amount: amt, Percentage: PercentageOfTotal(amt, total)})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Amount.Cents != list[j].Amount.Cents {
			return list[i].Amount.Cents > list[j].Amount.Cents
		}
		return order[list[i].Category] < order[list[j].Category]
	})
	return list
}
