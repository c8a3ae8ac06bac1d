package postgres

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"presupuesto/internal/storage"
	"presupuesto/internal/storage/storagetest"
)

// Runs against a disposable database named by POSTGRES_TEST_DSN.
func TestStore(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	storagetest.Run(t, func(t *testing.T) storage.Store {
		s, err := Open(dsn)
		require.NoError(t, err)
		require.NoError(t, s.db.Exec("TRUNCATE ingresos, gastos RESTART IDENTITY").Error)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}
