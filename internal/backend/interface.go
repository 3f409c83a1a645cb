package backend

import (
	"contas/internal/bus"
	"contas/internal/ledger"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result bundles the wired ledger store with its change bus. The bus carries
// one event per persisted write; when AMQP is configured the same events are
// also published to the broker.
type Result struct {
	Repo    *ledger.Repository
	Bus     *bus.Bus
	Cleanup CleanupFunc
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
