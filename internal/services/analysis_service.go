package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"presupuesto/internal/core"
	"presupuesto/internal/storage"
)

// AnalysisService loads one month from the store and aggregates it. Month
// boundaries are computed in loc.
type AnalysisService struct {
	store storage.Store
	loc   *time.Location
	now   func() time.Time
}

func NewAnalysisService(store storage.Store, loc *time.Location) *AnalysisService {
	if loc == nil {
		loc = time.Local
	}
	return &AnalysisService{store: store, loc: loc, now: time.Now}
}

// Location is the zone month boundaries are computed in.
func (s *AnalysisService) Location() *time.Location { return s.loc }

// CurrentPeriod is the month containing now in the service location.
func (s *AnalysisService) CurrentPeriod() core.Period {
	return core.PeriodOf(s.now().In(s.loc))
}

// Monthly aggregates the incomes and expenses dated inside p.
func (s *AnalysisService) Monthly(ctx context.Context, p core.Period) (core.Analysis, error) {
	start, end := p.Bounds(s.loc)
	rng := storage.Between(start, end)

	var (
		incomes  []core.Income
		expenses []core.Expense
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		incomes, err = s.store.ListIncomes(gctx, rng)
		if err != nil {
			return fmt.Errorf("list incomes for %s: %w", p, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		expenses, err = s.store.ListExpenses(gctx, rng)
		if err != nil {
			return fmt.Errorf("list expenses for %s: %w", p, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.Analysis{}, err
	}

	return core.MonthlyAnalysis(p, s.loc, incomes, expenses), nil
}

// Compare computes both months independently and concurrently.
func (s *AnalysisService) Compare(ctx context.Context, first, second core.Period) (core.Comparison, error) {
	var a, b core.Analysis
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		a, err = s.Monthly(gctx, first)
		return err
	})
	g.Go(func() error {
		var err error
		b, err = s.Monthly(gctx, second)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Comparison{}, err
	}
	return core.CompareMonths(a, b), nil
}

// Dashboard builds the dashboard view model for p.
func (s *AnalysisService) Dashboard(ctx context.Context, p core.Period) (core.Dashboard, error) {
	a, err := s.Monthly(ctx, p)
	if err != nil {
		return core.Dashboard{}, err
	}
	return core.BuildDashboard(a), nil
}
