package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	PersonP1    Person = "P1"
	PersonP2    Person = "P2"
	PersonExtra Person = "Extra"
)

const (
	ResponsibleP1 Responsible = "P1"
	ResponsibleP2 Responsible = "P2"
)

const (
	CategoryHousing       Category = "Vivienda"
	CategoryGroceries     Category = "Supermercado"
	CategoryMiscPurchases Category = "Compras Varias"
	CategoryInstallments  Category = "Cuotas"
	CategoryTransport     Category = "Transporte"
	CategoryServices      Category = "Servicios"
	CategoryHealth        Category = "Salud"
	CategorySubscriptions Category = "Suscripciones"
	CategoryOther         Category = "Otro"
)

// MaxConceptLength bounds the free-text concept of an entry.
const MaxConceptLength = 200

type (
	// Person identifies who earned an income entry.
	Person string

	// Responsible identifies who paid an expense entry.
	Responsible string

	// Category is the closed set of expense tags. Values are the wire strings.
	Category string

	Income struct {
		ID        int64
		Concept   string
		Amount    Money
		Person    Person
		Date      time.Time
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	Expense struct {
		ID          int64
		Concept     string
		Amount      Money
		Category    Category
		Responsible Responsible
		Date        time.Time
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	// IncomePatch carries the fields of a partial update; nil fields are left untouched.
	IncomePatch struct {
		Concept *string
		Amount  *Money
		Person  *Person
		Date    *time.Time
	}

	ExpensePatch struct {
		Concept     *string
		Amount      *Money
		Category    *Category
		Responsible *Responsible
		Date        *time.Time
	}

	// Entry is implemented by both record types so aggregation can be written once.
	Entry interface {
		EntryAmount() Money
		EntryDate() time.Time
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrNegativeAmount     = errors.New("amount must not be negative")
	ErrEmptyConcept       = errors.New("empty concept")
	ErrConceptTooLong     = errors.New("concept too long (max 200 characters)")
	ErrInvalidPerson      = errors.New("invalid person")
	ErrInvalidResponsible = errors.New("invalid responsible")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrInvalidYear        = errors.New("invalid year")
)

// ValidationError reports a rejected input field. Match it with errors.As.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NewValidationError wraps err as a ValidationError for field.
func NewValidationError(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// IsValidationError reports whether err or anything it wraps is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Persons lists every Person in display order.
func Persons() []Person { return []Person{PersonP1, PersonP2, PersonExtra} }

func (p Person) Valid() bool {
	switch p {
	case PersonP1, PersonP2, PersonExtra:
		return true
	default:
		return false
	}
}

// Responsibles lists every Responsible in display order.
func Responsibles() []Responsible { return []Responsible{ResponsibleP1, ResponsibleP2} }

func (r Responsible) Valid() bool {
	switch r {
	case ResponsibleP1, ResponsibleP2:
		return true
	default:
		return false
	}
}

// Categories lists every Category in display order.
func Categories() []Category {
	return []Category{
		CategoryHousing,
		CategoryGroceries,
		CategoryMiscPurchases,
		CategoryInstallments,
		CategoryTransport,
		CategoryServices,
		CategoryHealth,
		CategorySubscriptions,
		CategoryOther,
	}
}

func (c Category) Valid() bool {
	switch c {
	case CategoryHousing, CategoryGroceries, CategoryMiscPurchases, CategoryInstallments,
		CategoryTransport, CategoryServices, CategoryHealth, CategorySubscriptions, CategoryOther:
		return true
	default:
		return false
	}
}

func (i Income) EntryAmount() Money   { return i.Amount }
func (i Income) EntryDate() time.Time { return i.Date }

func (e Expense) EntryAmount() Money   { return e.Amount }
func (e Expense) EntryDate() time.Time { return e.Date }

func validateConcept(concept string) error {
	if strings.TrimSpace(concept) == "" {
		return NewValidationError("concepto", ErrEmptyConcept)
	}
	if utf8.RuneCountInString(concept) > MaxConceptLength {
		return NewValidationError("concepto", ErrConceptTooLong)
	}
	return nil
}

func validateAmount(m Money) error {
	if err := m.Validate(); err != nil {
		return NewValidationError("monto", err)
	}
	return nil
}

func validateDate(t time.Time) error {
	if t.IsZero() {
		return NewValidationError("fecha", ErrInvalidDate)
	}
	return nil
}

func (i Income) Validate() error {
	if err := validateConcept(i.Concept); err != nil {
		return err
	}
	if err := validateAmount(i.Amount); err != nil {
		return err
	}
	if !i.Person.Valid() {
		return NewValidationError("persona", ErrInvalidPerson)
	}
	return validateDate(i.Date)
}

func (e Expense) Validate() error {
	if err := validateConcept(e.Concept); err != nil {
		return err
	}
	if err := validateAmount(e.Amount); err != nil {
		return err
	}
	if !e.Category.Valid() {
		return NewValidationError("categoria", ErrInvalidCategory)
	}
	if !e.Responsible.Valid() {
		return NewValidationError("responsable", ErrInvalidResponsible)
	}
	return validateDate(e.Date)
}

// Apply returns a copy of in with the patch fields overwritten.
func (p IncomePatch) Apply(in Income) Income {
	if p.Concept != nil {
		in.Concept = *p.Concept
	}
	if p.Amount != nil {
		in.Amount = *p.Amount
	}
	if p.Person != nil {
		in.Person = *p.Person
	}
	if p.Date != nil {
		in.Date = *p.Date
	}
	return in
}

// Validate checks only the fields present in the patch.
func (p IncomePatch) Validate() error {
	if p.Concept != nil {
		if err := validateConcept(*p.Concept); err != nil {
			return err
		}
	}
	if p.Amount != nil {
		if err := validateAmount(*p.Amount); err != nil {
			return err
		}
	}
	if p.Person != nil && !p.Person.Valid() {
		return NewValidationError("persona", ErrInvalidPerson)
	}
	if p.Date != nil {
		return validateDate(*p.Date)
	}
	return nil
}

func (p ExpensePatch) Apply(e Expense) Expense {
	if p.Concept != nil {
		e.Concept = *p.Concept
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Responsible != nil {
		e.Responsible = *p.Responsible
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	return e
}

func (p ExpensePatch) Validate() error {
	if p.Concept != nil {
		if err := validateConcept(*p.Concept); err != nil {
			return err
		}
	}
	if p.Amount != nil {
		if err := validateAmount(*p.Amount); err != nil {
			return err
		}
	}
	if p.Category != nil && !p.Category.Valid() {
		return NewValidationError("categoria", ErrInvalidCategory)
	}
	if p.Responsible != nil && !p.Responsible.Valid() {
		return NewValidationError("responsable", ErrInvalidResponsible)
	}
	if p.Date != nil {
		return validateDate(*p.Date)
	}
	return nil
}
