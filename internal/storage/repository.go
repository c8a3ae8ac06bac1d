package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"presupuesto/internal/core"

	_ "modernc.org/sqlite"
)

// Fixed-width UTC text so that lexical order equals chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const (
	incomeColumns  = "id, concepto, monto_cents, persona, fecha, created_at, updated_at"
	expenseColumns = "id, concepto, monto_cents, categoria, responsable, fecha, created_at, updated_at"
)

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ Store = (*SQLiteRepository)(nil)

// DSN returns the connection string used for dbPath.
func DSN(dbPath string) string {
	return "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// applies migrations.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := DSN(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t, nil
}

// rangeClause renders the WHERE clause for r and its arguments.
func rangeClause(r Range) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if r.From != nil {
		conds = append(conds, "fecha >= ?")
		args = append(args, formatTime(*r.From))
	}
	if r.To != nil {
		conds = append(conds, "fecha < ?")
		args = append(args, formatTime(*r.To))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIncome(s rowScanner) (core.Income, error) {
	var (
		in                      core.Income
		person                  string
		fecha, created, updated string
	)
	if err := s.Scan(&in.ID, &in.Concept, &in.Amount.Cents, &person, &fecha, &created, &updated); err != nil {
		return core.Income{}, err
	}
	in.Person = core.Person(person)
	var err error
	if in.Date, err = parseTime(fecha); err != nil {
		return core.Income{}, err
	}
	if in.CreatedAt, err = parseTime(created); err != nil {
		return core.Income{}, err
	}
	if in.UpdatedAt, err = parseTime(updated); err != nil {
		return core.Income{}, err
	}
	return in, nil
}

func scanExpense(s rowScanner) (core.Expense, error) {
	var (
		e                       core.Expense
		category, responsible   string
		fecha, created, updated string
	)
	if err := s.Scan(&e.ID, &e.Concept, &e.Amount.Cents, &category, &responsible, &fecha, &created, &updated); err != nil {
		return core.Expense{}, err
	}
	e.Category = core.Category(category)
	e.Responsible = core.Responsible(responsible)
	var err error
	if e.Date, err = parseTime(fecha); err != nil {
		return core.Expense{}, err
	}
	if e.CreatedAt, err = parseTime(created); err != nil {
		return core.Expense{}, err
	}
	if e.UpdatedAt, err = parseTime(updated); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

func (r *SQLiteRepository) ListIncomes(ctx context.Context, rng Range) ([]core.Income, error) {
	where, args := rangeClause(rng)
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+incomeColumns+" FROM ingresos"+where+" ORDER BY fecha DESC, id DESC", args...)
	if err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	defer rows.Close()

	out := make([]core.Income, 0)
	for rows.Next() {
		in, err := scanIncome(rows)
		if err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate incomes: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetIncome(ctx context.Context, id int64) (core.Income, error) {
	return getIncome(ctx, r.db, id)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getIncome(ctx context.Context, q queryer, id int64) (core.Income, error) {
	in, err := scanIncome(q.QueryRowContext(ctx, "SELECT "+incomeColumns+" FROM ingresos WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Income{}, fmt.Errorf("income %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Income{}, fmt.Errorf("get income %d: %w", id, err)
	}
	return in, nil
}

func (r *SQLiteRepository) CreateIncome(ctx context.Context, in core.Income) (core.Income, error) {
	if err := in.Validate(); err != nil {
		return core.Income{}, err
	}
	now := r.now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO ingresos (concepto, monto_cents, persona, fecha, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		in.Concept, in.Amount.Cents, string(in.Person), formatTime(in.Date), formatTime(now), formatTime(now))
	if err != nil {
		return core.Income{}, fmt.Errorf("insert income: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Income{}, fmt.Errorf("income id: %w", err)
	}

	slog.DebugContext(ctx, "Income saved to SQLite", "id", id, "amount_cents", in.Amount.Cents, "persona", in.Person)
	return r.GetIncome(ctx, id)
}

func (r *SQLiteRepository) UpdateIncome(ctx context.Context, id int64, p core.IncomePatch) (core.Income, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Income{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	current, err := getIncome(ctx, tx, id)
	if err != nil {
		return core.Income{}, err
	}
	next := p.Apply(current)
	if err := next.Validate(); err != nil {
		return core.Income{}, err
	}
	next.UpdatedAt = r.now().UTC()

	_, err = tx.ExecContext(ctx,
		`UPDATE ingresos SET concepto = ?, monto_cents = ?, persona = ?, fecha = ?, updated_at = ? WHERE id = ?`,
		next.Concept, next.Amount.Cents, string(next.Person), formatTime(next.Date), formatTime(next.UpdatedAt), id)
	if err != nil {
		return core.Income{}, fmt.Errorf("update income %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return core.Income{}, fmt.Errorf("commit income %d: %w", id, err)
	}
	return r.GetIncome(ctx, id)
}

func (r *SQLiteRepository) DeleteIncome(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM ingresos WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete income %d: %w", id, err)
	}
	return affectedOne(res, "income", id)
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, rng Range) ([]core.Expense, error) {
	where, args := rangeClause(rng)
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+expenseColumns+" FROM gastos"+where+" ORDER BY fecha DESC, id DESC", args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	out := make([]core.Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	return getExpense(ctx, r.db, id)
}

func getExpense(ctx context.Context, q queryer, id int64) (core.Expense, error) {
	e, err := scanExpense(q.QueryRowContext(ctx, "SELECT "+expenseColumns+" FROM gastos WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, fmt.Errorf("expense %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, err)
	}
	return e, nil
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	now := r.now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO gastos (concepto, monto_cents, categoria, responsable, fecha, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Concept, e.Amount.Cents, string(e.Category), string(e.Responsible),
		formatTime(e.Date), formatTime(now), formatTime(now))
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense id: %w", err)
	}

	slog.DebugContext(ctx, "Expense saved to SQLite", "id", id, "amount_cents", e.Amount.Cents, "categoria", e.Category)
	return r.GetExpense(ctx, id)
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, id int64, p core.ExpensePatch) (core.Expense, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Expense{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	current, err := getExpense(ctx, tx, id)
	if err != nil {
		return core.Expense{}, err
	}
	next := p.Apply(current)
	if err := next.Validate(); err != nil {
		return core.Expense{}, err
	}
	next.UpdatedAt = r.now().UTC()

	_, err = tx.ExecContext(ctx,
		`UPDATE gastos SET concepto = ?, monto_cents = ?, categoria = ?, responsable = ?, fecha = ?, updated_at = ? WHERE id = ?`,
		next.Concept, next.Amount.Cents, string(next.Category), string(next.Responsible),
		formatTime(next.Date), formatTime(next.UpdatedAt), id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return core.Expense{}, fmt.Errorf("commit expense %d: %w", id, err)
	}
	return r.GetExpense(ctx, id)
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM gastos WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	return affectedOne(res, "expense", id)
}

func affectedOne(res sql.Result, kind string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
	}
	return nil
}
