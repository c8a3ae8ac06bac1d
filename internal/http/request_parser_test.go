package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"presupuesto/internal/core"
	"presupuesto/internal/storage"
)

var art = time.FixedZone("ART", -3*60*60)

func decodeBody(t *testing.T, body string, dst any) error {
	t.Helper()
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	return NewRequestParser(art).DecodeJSON(w, r, dst)
}

func requireValidation(t *testing.T, err error, field string) {
	t.Helper()
	var ve *core.ValidationError
	require.True(t, errors.As(err, &ve), "want ValidationError, got %v", err)
	require.Equal(t, field, ve.Field)
}

func TestDecodeJSON_Income(t *testing.T) {
	var req incomeRequest
	require.NoError(t, decodeBody(t, `{"concepto":"Sueldo","monto":1500.5,"persona":"P1","fecha":"2024-05-01"}`, &req))

	in, err := req.toIncome(NewRequestParser(art))
	require.NoError(t, err)
	require.Equal(t, "Sueldo", in.Concept)
	require.Equal(t, int64(150050), in.Amount.Cents)
	require.Equal(t, core.PersonP1, in.Person)
	require.True(t, in.Date.Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, art)))
}

func TestDecodeJSON_IncomeWithoutDate(t *testing.T) {
	var req incomeRequest
	require.NoError(t, decodeBody(t, `{"concepto":"Sueldo","monto":10,"persona":"Extra"}`, &req))

	in, err := req.toIncome(NewRequestParser(art))
	require.NoError(t, err)
	require.True(t, in.Date.IsZero(), "a missing date is filled in by the service")
}

func TestDecodeJSON_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"unknown field", `{"concepto":"x","monto":1,"persona":"P1","extra":true}`, "extra"},
		{"amount as string", `{"concepto":"x","monto":"12","persona":"P1"}`, "monto"},
		{"negative amount", `{"concepto":"x","monto":-1,"persona":"P1"}`, "monto"},
		{"concept wrong type", `{"concepto":5,"monto":1,"persona":"P1"}`, "concepto"},
		{"missing concept", `{"monto":1,"persona":"P1"}`, "concepto"},
		{"missing amount", `{"concepto":"x","persona":"P1"}`, "monto"},
		{"null amount", `{"concepto":"x","monto":null,"persona":"P1"}`, "monto"},
		{"invalid person", `{"concepto":"x","monto":1,"persona":"P3"}`, "persona"},
		{"malformed", `{"concepto":`, ""},
		{"empty body", ``, ""},
		{"two objects", `{"concepto":"x","monto":1,"persona":"P1"} {}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req incomeRequest
			err := decodeBody(t, tt.body, &req)
			require.Error(t, err)
			requireValidation(t, err, tt.field)
		})
	}
}

func TestDecodeJSON_ExpenseEnums(t *testing.T) {
	var req expenseRequest
	err := decodeBody(t, `{"concepto":"Luz","monto":1,"categoria":"Ocio","responsable":"P1"}`, &req)
	requireValidation(t, err, "categoria")
	require.ErrorIs(t, err, core.ErrInvalidCategory)

	err = decodeBody(t, `{"concepto":"Luz","monto":1,"categoria":"Servicios","responsable":"Extra"}`, &req)
	requireValidation(t, err, "responsable")
	require.ErrorIs(t, err, core.ErrInvalidResponsible)

	require.NoError(t, decodeBody(t, `{"concepto":"Luz","monto":1,"categoria":"Compras Varias","responsable":"P2"}`, &req))
}

func TestDecodeJSON_Patch(t *testing.T) {
	var req expensePatchRequest
	require.NoError(t, decodeBody(t, `{"monto":99.99}`, &req))

	patch, err := req.toPatch(NewRequestParser(art))
	require.NoError(t, err)
	require.Nil(t, patch.Concept)
	require.Nil(t, patch.Category)
	require.NotNil(t, patch.Amount)
	require.Equal(t, int64(9999), patch.Amount.Cents)

	err = decodeBody(t, `{"categoria":"Nada"}`, &req)
	requireValidation(t, err, "categoria")

	var bad incomePatchRequest
	require.NoError(t, decodeBody(t, `{"fecha":"ayer"}`, &bad))
	_, err = bad.toPatch(NewRequestParser(art))
	requireValidation(t, err, "fecha")
}

func TestParseDate(t *testing.T) {
	p := NewRequestParser(art)

	d, dateOnly, err := p.ParseDate("2024-02-29")
	require.NoError(t, err)
	require.True(t, dateOnly)
	require.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, art), d)

	d, dateOnly, err = p.ParseDate("2024-03-01T10:00:00Z")
	require.NoError(t, err)
	require.False(t, dateOnly)
	require.True(t, d.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)))

	_, _, err = p.ParseDate("01/03/2024")
	requireValidation(t, err, "fecha")
}

func TestParseRange(t *testing.T) {
	p := NewRequestParser(art)

	rng, err := p.ParseRange(url.Values{})
	require.NoError(t, err)
	require.Nil(t, rng.From)
	require.Nil(t, rng.To)

	rng, err = p.ParseRange(url.Values{"fecha_inicio": {"2024-01-01"}, "fecha_fin": {"2024-01-31"}})
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, art), *rng.From)
	require.True(t, rng.Contains(time.Date(2024, 1, 31, 23, 59, 59, 0, art)), "fecha_fin covers its whole day")
	require.False(t, rng.Contains(time.Date(2024, 2, 1, 0, 0, 0, 0, art)))

	rng, err = p.ParseRange(url.Values{"fecha_fin": {"2024-01-31T12:00:00Z"}})
	require.NoError(t, err)
	require.True(t, rng.Contains(time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC)))

	_, err = p.ParseRange(url.Values{"fecha_inicio": {"nope"}})
	requireValidation(t, err, "fecha_inicio")
}

func TestParseMonthParams(t *testing.T) {
	def := core.Period{Year: 2024, Month: time.June}

	tests := []struct {
		name    string
		query   url.Values
		want    core.Period
		wantErr string
	}{
		{"defaults", url.Values{}, def, ""},
		{"both given", url.Values{"mes": {"2"}, "anio": {"2023"}}, core.Period{Year: 2023, Month: time.February}, ""},
		{"only month", url.Values{"mes": {"12"}}, core.Period{Year: 2024, Month: time.December}, ""},
		{"month out of range", url.Values{"mes": {"13"}}, core.Period{}, "mes"},
		{"month not a number", url.Values{"mes": {"junio"}}, core.Period{}, "mes"},
		{"year out of range", url.Values{"anio": {"0"}}, core.Period{}, "anio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMonthParams(tt.query, "mes", "anio", def)
			if tt.wantErr != "" {
				requireValidation(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestPreviousPeriod(t *testing.T) {
	require.Equal(t, core.Period{Year: 2023, Month: time.December}, previousPeriod(core.Period{Year: 2024, Month: time.January}))
	require.Equal(t, core.Period{Year: 2024, Month: time.April}, previousPeriod(core.Period{Year: 2024, Month: time.May}))
}

func TestParseID(t *testing.T) {
	withID := func(id string) *http.Request {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", id)
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}

	id, err := parseID(withID("42"))
	require.NoError(t, err)
	require.Equal(t, int64(42), id)

	for _, raw := range []string{"abc", "0", "-3", ""} {
		_, err := parseID(withID(raw))
		require.ErrorIs(t, err, storage.ErrNotFound, raw)
	}
}
