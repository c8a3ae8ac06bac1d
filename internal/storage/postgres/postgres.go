// Package postgres is the gorm-backed Store for deployments on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"presupuesto/internal/core"
	"presupuesto/internal/storage"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type ingresoRow struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	Concepto   string    `gorm:"size:200;not null"`
	MontoCents int64     `gorm:"not null"`
	Persona    string    `gorm:"size:16;not null"`
	Fecha      time.Time `gorm:"not null;index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (ingresoRow) TableName() string { return "ingresos" }

type gastoRow struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	Concepto    string    `gorm:"size:200;not null"`
	MontoCents  int64     `gorm:"not null"`
	Categoria   string    `gorm:"size:32;not null"`
	Responsable string    `gorm:"size:16;not null"`
	Fecha       time.Time `gorm:"not null;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (gastoRow) TableName() string { return "gastos" }

type Store struct {
	db *gorm.DB
}

var _ storage.Store = (*Store)(nil)

// Open connects to dsn and syncs the schema. AutoMigrate only adds tables and
// columns; it never drops data.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return New(db)
}

// New wraps an existing gorm handle and syncs the schema.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&ingresoRow{}, &gastoRow{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func scoped(db *gorm.DB, r storage.Range) *gorm.DB {
	if r.From != nil {
		db = db.Where("fecha >= ?", r.From.UTC())
	}
	if r.To != nil {
		db = db.Where("fecha < ?", r.To.UTC())
	}
	return db.Order("fecha DESC").Order("id DESC")
}

func notFound(err error, kind string, id int64) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %d: %w", kind, id, storage.ErrNotFound)
	}
	return fmt.Errorf("get %s %d: %w", kind, id, err)
}

func (r ingresoRow) toCore() core.Income {
	return core.Income{
		ID:        r.ID,
		Concept:   r.Concepto,
		Amount:    core.Money{Cents: r.MontoCents},
		Person:    core.Person(r.Persona),
		Date:      r.Fecha.UTC(),
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

func (r *ingresoRow) set(in core.Income) {
	r.Concepto = in.Concept
	r.MontoCents = in.Amount.Cents
	r.Persona = string(in.Person)
	r.Fecha = in.Date.UTC()
}

func (r gastoRow) toCore() core.Expense {
	return core.Expense{
		ID:          r.ID,
		Concept:     r.Concepto,
		Amount:      core.Money{Cents: r.MontoCents},
		Category:    core.Category(r.Categoria),
		Responsible: core.Responsible(r.Responsable),
		Date:        r.Fecha.UTC(),
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

func (r *gastoRow) set(e core.Expense) {
	r.Concepto = e.Concept
	r.MontoCents = e.Amount.Cents
	r.Categoria = string(e.Category)
	r.Responsable = string(e.Responsible)
	r.Fecha = e.Date.UTC()
}

func (s *Store) ListIncomes(ctx context.Context, r storage.Range) ([]core.Income, error) {
	var rows []ingresoRow
	if err := scoped(s.db.WithContext(ctx), r).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	out := make([]core.Income, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toCore())
	}
	return out, nil
}

func (s *Store) GetIncome(ctx context.Context, id int64) (core.Income, error) {
	var row ingresoRow
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return core.Income{}, notFound(err, "income", id)
	}
	return row.toCore(), nil
}

func (s *Store) CreateIncome(ctx context.Context, in core.Income) (core.Income, error) {
	if err := in.Validate(); err != nil {
		return core.Income{}, err
	}
	var row ingresoRow
	row.set(in)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return core.Income{}, fmt.Errorf("insert income: %w", err)
	}
	return row.toCore(), nil
}

func (s *Store) UpdateIncome(ctx context.Context, id int64, p core.IncomePatch) (core.Income, error) {
	var out core.Income
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row ingresoRow
		if err := tx.First(&row, id).Error; err != nil {
			return notFound(err, "income", id)
		}
		next := p.Apply(row.toCore())
		if err := next.Validate(); err != nil {
			return err
		}
		row.set(next)
		if err := tx.Save(&row).Error; err != nil {
			return fmt.Errorf("update income %d: %w", id, err)
		}
		out = row.toCore()
		return nil
	})
	return out, err
}

func (s *Store) DeleteIncome(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&ingresoRow{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete income %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("income %d: %w", id, storage.ErrNotFound)
	}
	return nil
}

func (s *Store) ListExpenses(ctx context.Context, r storage.Range) ([]core.Expense, error) {
	var rows []gastoRow
	if err := scoped(s.db.WithContext(ctx), r).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	out := make([]core.Expense, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toCore())
	}
	return out, nil
}

func (s *Store) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	var row gastoRow
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return core.Expense{}, notFound(err, "expense", id)
	}
	return row.toCore(), nil
}

func (s *Store) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	var row gastoRow
	row.set(e)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	return row.toCore(), nil
}

func (s *Store) UpdateExpense(ctx context.Context, id int64, p core.ExpensePatch) (core.Expense, error) {
	var out core.Expense
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row gastoRow
		if err := tx.First(&row, id).Error; err != nil {
			return notFound(err, "expense", id)
		}
		next := p.Apply(row.toCore())
		if err := next.Validate(); err != nil {
			return err
		}
		row.set(next)
		if err := tx.Save(&row).Error; err != nil {
			return fmt.Errorf("update expense %d: %w", id, err)
		}
		out = row.toCore()
		return nil
	})
	return out, err
}

func (s *Store) DeleteExpense(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&gastoRow{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete expense %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("expense %d: %w", id, storage.ErrNotFound)
	}
	return nil
}
