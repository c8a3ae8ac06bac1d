package memory

import (
	"testing"

	"presupuesto/internal/storage"
	"presupuesto/internal/storage/storagetest"
)

func TestStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store { return New() })
}
