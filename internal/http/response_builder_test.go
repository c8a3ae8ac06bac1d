package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"presupuesto/internal/core"
	"presupuesto/internal/storage"
)

func TestJSONResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Status(http.StatusCreated).
		JSON(map[string]int{"id": 7}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := w.Header().Get("Content-Type"); !strings.HasPrefix(got, "application/json") {
		t.Errorf("Content-Type = %q", got)
	}
	if w.Body.String() != `{"id":7}` {
		t.Errorf("Body = %q", w.Body.String())
	}
}

func TestJSONResponseBuilder_NoContent(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().JSON("ignored").NoContent().Write(w)

	if w.Code != http.StatusNoContent {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusNoContent)
	}
	if w.Body.Len() != 0 {
		t.Errorf("Body = %q, want empty", w.Body.String())
	}
}

func TestJSONResponseBuilder_Attachment(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Attachment("reporte.json").JSON([]int{}).Write(w)

	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="reporte.json"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if w.Body.String() != `[]` {
		t.Errorf("Body = %q", w.Body.String())
	}
}

func TestJSONResponseBuilder_EncodeFailure(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().JSON(make(chan int)).Write(w)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		notFoundMsg string
		wantCode    int
		wantBody    string
	}{
		{
			name:        "not found uses fixed message",
			err:         fmt.Errorf("get income 9: %w", storage.ErrNotFound),
			notFoundMsg: msgIncomeNotFound,
			wantCode:    http.StatusNotFound,
			wantBody:    `{"error":"Ingreso no encontrado"}`,
		},
		{
			name:        "expense not found",
			err:         storage.ErrNotFound,
			notFoundMsg: msgExpenseNotFound,
			wantCode:    http.StatusNotFound,
			wantBody:    `{"error":"Gasto no encontrado"}`,
		},
		{
			name:     "validation error is a 500 with its message",
			err:      core.NewValidationError("monto", core.ErrNegativeAmount),
			wantCode: http.StatusInternalServerError,
			wantBody: `{"error":"monto: amount must not be negative"}`,
		},
		{
			name:     "storage error",
			err:      errors.New("disk full"),
			wantCode: http.StatusInternalServerError,
			wantBody: `{"error":"disk full"}`,
		},
		{
			name:     "not found without a message is a 500",
			err:      storage.ErrNotFound,
			wantCode: http.StatusInternalServerError,
			wantBody: `{"error":"not found"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/api/ingresos/9", nil)
			writeError(w, r, tt.err, tt.notFoundMsg)

			if w.Code != tt.wantCode {
				t.Errorf("Status code = %d, want %d", w.Code, tt.wantCode)
			}
			if w.Body.String() != tt.wantBody {
				t.Errorf("Body = %s, want %s", w.Body.String(), tt.wantBody)
			}
		})
	}
}
