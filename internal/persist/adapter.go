package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rzbill/sharedq/internal/entrystore"
	"github.com/rzbill/sharedq/internal/storage"
)

// ErrCorrupt is returned by Load when persisted state cannot be decoded.
var ErrCorrupt = errors.New("persist: corrupt queue state")

// State is everything a queue persists: its entries in queue order and the
// next permanent number to hand out.
type State struct {
	Counter int
	Entries []entrystore.Entry
}

// Adapter reads and writes one namespace's queue state in a storage.KV.
type Adapter struct {
	kv          storage.KV
	namespace   string
	startNumber int
	now         func() time.Time
}

// New returns an Adapter for namespace. startNumber seeds the counter of a
// namespace that has never been saved.
func New(kv storage.KV, namespace string, startNumber int) *Adapter {
	if startNumber < 1 {
		startNumber = 1
	}
	return &Adapter{kv: kv, namespace: namespace, startNumber: startNumber, now: time.Now}
}

// Namespace returns the namespace this adapter serves.
func (a *Adapter) Namespace() string { return a.namespace }

// Load reads the persisted state. A namespace with no saved state yields an
// empty entry list and the start number.
func (a *Adapter) Load(ctx context.Context) (State, error) {
	if err := ctx.Err(); err != nil {
		return State{}, err
	}
	st := State{Counter: a.startNumber}

	b, err := a.kv.Get(CounterKey(a.namespace))
	switch {
	case err == nil:
		if st.Counter, err = decodeCounter(b); err != nil {
			return State{}, err
		}
	case !errors.Is(err, storage.ErrNotFound):
		return State{}, fmt.Errorf("read counter: %w", err)
	}

	b, err = a.kv.Get(EntriesKey(a.namespace))
	switch {
	case err == nil:
		snap, err := decodeSnapshot(b)
		if err != nil {
			return State{}, err
		}
		st.Entries = snap.Entries
	case !errors.Is(err, storage.ErrNotFound):
		return State{}, fmt.Errorf("read entries: %w", err)
	}
	return st, nil
}

// Save writes counter and entries in one atomic commit.
func (a *Adapter) Save(ctx context.Context, st State) error {
	body, err := encodeSnapshot(snapshot{Entries: st.Entries, SavedAtMs: a.now().UnixMilli()})
	if err != nil {
		return fmt.Errorf("encode entries: %w", err)
	}
	return a.kv.Commit(ctx, []storage.Mutation{
		storage.Put(CounterKey(a.namespace), encodeCounter(st.Counter)),
		storage.Put(EntriesKey(a.namespace), body),
	})
}
