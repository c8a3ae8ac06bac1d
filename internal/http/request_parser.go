// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// strict JSON bodies checked with go-playground/validator, date and month
// query parameters, and path ids.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"presupuesto/internal/core"
	"presupuesto/internal/storage"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

const dateLayout = "2006-01-02"

var (
	errMalformedBody = errors.New("malformed JSON body")
	errInvalidType   = errors.New("invalid type")
)

type (
	incomeRequest struct {
		Concept string      `json:"concepto" validate:"required,max=200"`
		Amount  *core.Money `json:"monto" validate:"required"`
		Person  string      `json:"persona" validate:"required,persona"`
		Date    string      `json:"fecha"`
	}

	incomePatchRequest struct {
		Concept *string     `json:"concepto" validate:"omitempty,max=200"`
		Amount  *core.Money `json:"monto"`
		Person  *string     `json:"persona" validate:"omitempty,persona"`
		Date    *string     `json:"fecha"`
	}

	expenseRequest struct {
		Concept     string      `json:"concepto" validate:"required,max=200"`
		Amount      *core.Money `json:"monto" validate:"required"`
		Category    string      `json:"categoria" validate:"required,categoria"`
		Responsible string      `json:"responsable" validate:"required,responsable"`
		Date        string      `json:"fecha"`
	}

	expensePatchRequest struct {
		Concept     *string     `json:"concepto" validate:"omitempty,max=200"`
		Amount      *core.Money `json:"monto"`
		Category    *string     `json:"categoria" validate:"omitempty,categoria"`
		Responsible *string     `json:"responsable" validate:"omitempty,responsable"`
		Date        *string     `json:"fecha"`
	}
)

// RequestParser decodes request bodies and query parameters. Dates without a
// time are read in loc.
type RequestParser struct {
	validate *validator.Validate
	loc      *time.Location
}

// NewRequestParser registers the enum tags and reports json field names in
// validation errors.
func NewRequestParser(loc *time.Location) *RequestParser {
	if loc == nil {
		loc = time.Local
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("persona", func(fl validator.FieldLevel) bool {
		return core.Person(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("responsable", func(fl validator.FieldLevel) bool {
		return core.Responsible(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("categoria", func(fl validator.FieldLevel) bool {
		return core.Category(fl.Field().String()).Valid()
	})
	return &RequestParser{validate: v, loc: loc}
}

// DecodeJSON reads a single JSON object into dst, rejecting unknown fields and
// wrongly typed values, then runs the struct's validate tags.
func (p *RequestParser) DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return decodeError(err)
	}
	if dec.More() {
		return core.NewValidationError("", errMalformedBody)
	}
	if err := p.validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.Is(err, core.ErrInvalidAmount), errors.Is(err, core.ErrNegativeAmount):
		return core.NewValidationError("monto", err)
	case errors.As(err, &typeErr):
		return core.NewValidationError(typeErr.Field, errInvalidType)
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return core.NewValidationError("", errMalformedBody)
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		return core.NewValidationError(field, errors.New("unknown field"))
	default:
		return core.NewValidationError("", err)
	}
}

// validationError turns the first failed tag into a core.ValidationError.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return core.NewValidationError("", err)
	}
	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "persona":
		return core.NewValidationError(field, core.ErrInvalidPerson)
	case "responsable":
		return core.NewValidationError(field, core.ErrInvalidResponsible)
	case "categoria":
		return core.NewValidationError(field, core.ErrInvalidCategory)
	case "max":
		if field == "concepto" {
			return core.NewValidationError(field, core.ErrConceptTooLong)
		}
	case "required":
		if field == "concepto" {
			return core.NewValidationError(field, core.ErrEmptyConcept)
		}
		return core.NewValidationError(field, errors.New("required"))
	}
	return core.NewValidationError(field, fmt.Errorf("failed %q", fe.Tag()))
}

// ParseDate accepts YYYY-MM-DD, read as midnight in the parser location, or
// RFC 3339.
func (p *RequestParser) ParseDate(s string) (time.Time, bool, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(dateLayout, s, p.loc); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false, core.NewValidationError("fecha", core.ErrInvalidDate)
	}
	return t, false, nil
}

// optionalDate parses a body date; the empty string means "now".
func (p *RequestParser) optionalDate(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	t, _, err := p.ParseDate(s)
	return t, err
}

// ParseRange reads fecha_inicio and fecha_fin. Both bounds are inclusive; a
// date-only fecha_fin covers that whole day.
func (p *RequestParser) ParseRange(query url.Values) (storage.Range, error) {
	var rng storage.Range
	if v := strings.TrimSpace(query.Get("fecha_inicio")); v != "" {
		from, _, err := p.ParseDate(v)
		if err != nil {
			return storage.Range{}, core.NewValidationError("fecha_inicio", core.ErrInvalidDate)
		}
		rng.From = &from
	}
	if v := strings.TrimSpace(query.Get("fecha_fin")); v != "" {
		to, dateOnly, err := p.ParseDate(v)
		if err != nil {
			return storage.Range{}, core.NewValidationError("fecha_fin", core.ErrInvalidDate)
		}
		if dateOnly {
			to = to.AddDate(0, 0, 1)
		} else {
			to = to.Add(time.Nanosecond)
		}
		rng.To = &to
	}
	return rng, nil
}

// ParseMonthParams reads a month/year pair from query, falling back to def for
// each missing value.
func ParseMonthParams(query url.Values, monthKey, yearKey string, def core.Period) (core.Period, error) {
	month, year := int(def.Month), def.Year
	if v := strings.TrimSpace(query.Get(monthKey)); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return core.Period{}, core.NewValidationError(monthKey, core.ErrInvalidMonth)
		}
		month = m
	}
	if v := strings.TrimSpace(query.Get(yearKey)); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return core.Period{}, core.NewValidationError(yearKey, core.ErrInvalidYear)
		}
		year = y
	}
	period, err := core.NewPeriod(year, month)
	if err != nil {
		var ve *core.ValidationError
		if errors.As(err, &ve) && errors.Is(ve.Err, core.ErrInvalidMonth) {
			return core.Period{}, core.NewValidationError(monthKey, ve.Err)
		}
		if errors.As(err, &ve) {
			return core.Period{}, core.NewValidationError(yearKey, ve.Err)
		}
		return core.Period{}, err
	}
	return period, nil
}

// previousPeriod is the month before p.
func previousPeriod(p core.Period) core.Period {
	t := time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	return core.PeriodOf(t)
}

// parseID reads the {id} path segment. Anything that is not a positive integer
// cannot name a stored entry and is reported as storage.ErrNotFound.
func parseID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("id %q: %w", raw, storage.ErrNotFound)
	}
	return id, nil
}

func (req incomeRequest) toIncome(p *RequestParser) (core.Income, error) {
	date, err := p.optionalDate(req.Date)
	if err != nil {
		return core.Income{}, err
	}
	return core.Income{
		Concept: req.Concept,
		Amount:  *req.Amount,
		Person:  core.Person(req.Person),
		Date:    date,
	}, nil
}

func (req incomePatchRequest) toPatch(p *RequestParser) (core.IncomePatch, error) {
	patch := core.IncomePatch{Concept: req.Concept, Amount: req.Amount}
	if req.Person != nil {
		person := core.Person(*req.Person)
		patch.Person = &person
	}
	if req.Date != nil {
		date, _, err := p.ParseDate(*req.Date)
		if err != nil {
			return core.IncomePatch{}, err
		}
		patch.Date = &date
	}
	return patch, nil
}

func (req expenseRequest) toExpense(p *RequestParser) (core.Expense, error) {
	date, err := p.optionalDate(req.Date)
	if err != nil {
		return core.Expense{}, err
	}
	return core.Expense{
		Concept:     req.Concept,
		Amount:      *req.Amount,
		Category:    core.Category(req.Category),
		Responsible: core.Responsible(req.Responsible),
		Date:        date,
	}, nil
}

func (req expensePatchRequest) toPatch(p *RequestParser) (core.ExpensePatch, error) {
	patch := core.ExpensePatch{Concept: req.Concept, Amount: req.Amount}
	if req.Category != nil {
		c := core.Category(*req.Category)
		patch.Category = &c
	}
	if req.Responsible != nil {
		r := core.Responsible(*req.Responsible)
		patch.Responsible = &r
	}
	if req.Date != nil {
		date, _, err := p.ParseDate(*req.Date)
		if err != nil {
			return core.ExpensePatch{}, err
		}
		patch.Date = &date
	}
	return patch, nil
}
