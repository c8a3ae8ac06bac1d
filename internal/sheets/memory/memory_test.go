package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"presupuesto/internal/sheets"
)

func TestSheetAppendAndRows(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.False(t, s.HasHeader())
	require.NoError(t, s.EnsureHeader(ctx))
	require.True(t, s.HasHeader())

	ref, err := s.AppendRow(ctx, sheets.Row{Event: "created", Kind: "gasto", ID: 1})
	require.NoError(t, err)
	require.Equal(t, "mem!A2", ref)

	rows := s.Rows()
	require.Len(t, rows, 1)
	rows[0].ID = 99
	require.Equal(t, int64(1), s.Rows()[0].ID, "Rows returns a copy")
}

func TestSheetFailAfter(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.FailAfter(1)

	_, err := s.AppendRow(ctx, sheets.Row{ID: 1})
	require.NoError(t, err)
	_, err = s.AppendRow(ctx, sheets.Row{ID: 2})
	require.Error(t, err)
	require.Len(t, s.Rows(), 1)
}
