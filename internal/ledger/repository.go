// Package ledger is the store adapter: it owns the two persisted collections
// (bills and income entries), handles their JSON (de)serialization against an
// external key-value collaborator, and publishes a change signal after every
// write. It holds no snapshot: every read hits the store, because concurrent
// writers make staleness the primary bug class here.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"contas/internal/bus"
	"contas/internal/core"
)

const (
	CollectionBills   = "bills"
	CollectionIncomes = "incomes"
)

// KV is the external key-value collaborator: full-payload get/set per
// collection, last-writer-wins, no partial writes.
type KV interface {
	// Get returns the stored payload, or (nil, nil) when the collection has
	// never been written.
	Get(ctx context.Context, collection string) ([]byte, error)
	Set(ctx context.Context, collection string, payload []byte) error
}

// Repository adapts the KV collaborator to typed collections.
type Repository struct {
	kv       KV
	notifier bus.Notifier
}

func NewRepository(kv KV, notifier bus.Notifier) *Repository {
	return &Repository{kv: kv, notifier: notifier}
}

// Bills returns a freshly decoded snapshot of the bills collection. A missing
// or corrupt payload decodes to an empty list: legacy data must never make
// the ledger unreadable.
func (r *Repository) Bills(ctx context.Context) ([]core.Bill, error) {
	raw, err := r.kv.Get(ctx, CollectionBills)
	if err != nil {
		return nil, fmt.Errorf("read bills: %w", err)
	}
	if len(raw) == 0 {
		return []core.Bill{}, nil
	}
	var bills []core.Bill
	if err := json.Unmarshal(raw, &bills); err != nil {
		slog.WarnContext(ctx, "Discarding corrupt bills payload", "error", err, "bytes", len(raw))
		return []core.Bill{}, nil
	}
	return bills, nil
}

// SaveBills replaces the whole bills collection and signals the change.
func (r *Repository) SaveBills(ctx context.Context, bills []core.Bill) error {
	if bills == nil {
		bills = []core.Bill{}
	}
	payload, err := json.Marshal(bills)
	if err != nil {
		return fmt.Errorf("marshal bills: %w", err)
	}
	if err := r.kv.Set(ctx, CollectionBills, payload); err != nil {
		return fmt.Errorf("write bills: %w", err)
	}
	r.notify(ctx, CollectionBills)
	return nil
}

// Incomes returns a freshly decoded snapshot of the income collection, with
// the same tolerance for corrupt payloads as Bills.
func (r *Repository) Incomes(ctx context.Context) ([]core.IncomeEntry, error) {
	raw, err := r.kv.Get(ctx, CollectionIncomes)
	if err != nil {
		return nil, fmt.Errorf("read incomes: %w", err)
	}
	if len(raw) == 0 {
		return []core.IncomeEntry{}, nil
	}
	var incomes []core.IncomeEntry
	if err := json.Unmarshal(raw, &incomes); err != nil {
		slog.WarnContext(ctx, "Discarding corrupt incomes payload", "error", err, "bytes", len(raw))
		return []core.IncomeEntry{}, nil
	}
	return incomes, nil
}

// SaveIncomes replaces the whole income collection and signals the change.
func (r *Repository) SaveIncomes(ctx context.Context, incomes []core.IncomeEntry) error {
	if incomes == nil {
		incomes = []core.IncomeEntry{}
	}
	payload, err := json.Marshal(incomes)
	if err != nil {
		return fmt.Errorf("marshal incomes: %w", err)
	}
	if err := r.kv.Set(ctx, CollectionIncomes, payload); err != nil {
		return fmt.Errorf("write incomes: %w", err)
	}
	r.notify(ctx, CollectionIncomes)
	return nil
}

func (r *Repository) notify(ctx context.Context, collection string) {
	if r.notifier == nil {
		return
	}
	ev := bus.Event{Collection: collection, At: time.Now()}
	if err := r.notifier.Publish(ctx, ev); err != nil {
		// The write already succeeded; observers will catch up on the next
		// signal or periodic refresh.
		slog.WarnContext(ctx, "Failed to publish change signal", "collection", collection, "error", err)
	}
}
