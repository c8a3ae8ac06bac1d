// Package backend opens the entry store selected by DATA_BACKEND together
// with the optional AMQP client, and hands both to the entry service.
package backend

import (
	"context"

	"presupuesto/internal/amqp"
	"presupuesto/internal/services"
	"presupuesto/internal/storage"
)

// BackendType names a storage implementation.
type BackendType string

const (
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	MemoryBackend   BackendType = "memory"
)

func (bt BackendType) String() string { return string(bt) }

func (bt BackendType) IsValid() bool {
	return bt == SQLiteBackend || bt == PostgresBackend || bt == MemoryBackend
}

// Config selects the store and the event broker.
type Config struct {
	Type BackendType

	SQLiteDBPath string
	PostgresDSN  string

	// Change events are disabled when AMQPURL is empty.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
	// RequireAMQP makes an unreachable broker fatal.
	RequireAMQP bool
}

// BackendResult is what a Factory opened. Cleanup closes the store and the
// event publisher.
type BackendResult struct {
	Store   storage.Store
	Entries *services.EntryService
	AMQP    *amqp.Client
	Cleanup func() error
}

type Factory interface {
	CreateBackend(ctx context.Context, cfg Config) (*BackendResult, error)
}
