package sharedqueue

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rzbill/sharedq/internal/entrystore"
	"github.com/rzbill/sharedq/internal/persist"
	logpkg "github.com/rzbill/sharedq/pkg/log"
)

// MaxNumber is the highest permanent number. Numbers travel as int32 and
// the counter must stay one above every number in use.
const MaxNumber = math.MaxInt32 - 1

var (
	// ErrPersistence wraps any durable read or write failure. A mutation that
	// returns it has been rolled back in memory.
	ErrPersistence = errors.New("sharedqueue: persistence failure")
	// ErrNumberRange rejects a supplied number outside [Unassigned, MaxNumber].
	ErrNumberRange = errors.New("sharedqueue: number out of range")
	// ErrCounterExhausted means every number up to MaxNumber has been handed out.
	ErrCounterExhausted = errors.New("sharedqueue: counter exhausted")
)

// CheckNumber validates a caller-supplied number.
func CheckNumber(n int) error {
	if n < entrystore.Unassigned || n > MaxNumber {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrNumberRange, n, entrystore.Unassigned, MaxNumber)
	}
	return nil
}

// Persister is the durable side of a Queue. *persist.Adapter implements it.
type Persister interface {
	Namespace() string
	Load(ctx context.Context) (persist.State, error)
	Save(ctx context.Context, st persist.State) error
}

// Queue owns one namespace's entries and permanent-number counter. Every
// mutation is applied and persisted under one lock; if the write fails the
// in-memory state is restored, so the counter never skips or repeats.
type Queue struct {
	p      Persister
	logger logpkg.Logger

	mu      sync.Mutex
	store   *entrystore.Store
	counter int
}

// Open loads the namespace's state from p.
func Open(ctx context.Context, p Persister, logger logpkg.Logger) (*Queue, error) {
	if logger == nil {
		logger = logpkg.NewNopLogger()
	}
	q := &Queue{
		p:      p,
		logger: logger.WithComponent("sharedqueue").With(logpkg.Namespace(p.Namespace())),
		store:  entrystore.New(),
	}
	if err := q.Load(ctx); err != nil {
		return nil, err
	}
	return q, nil
}

// Namespace returns the namespace the queue persists under.
func (q *Queue) Namespace() string { return q.p.Namespace() }

// Load replaces the in-memory state with what is persisted. Duplicate uids
// are dropped (first wins) and the counter is raised past the highest stored
// number, so a hand-edited or partially migrated region still satisfies the
// queue's invariants.
func (q *Queue) Load(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	st, err := q.p.Load(ctx)
	if err != nil {
		return fmt.Errorf("%w: load: %w", ErrPersistence, err)
	}
	if dropped := q.store.Replace(st.Entries); dropped > 0 {
		q.logger.Warn("dropped duplicate entries on load", logpkg.Int("dropped", dropped))
	}
	q.counter = max(st.Counter, entrystore.Unassigned+1)
	if hi := q.store.MaxNumber(); hi >= q.counter {
		q.logger.Warn("counter behind stored numbers, raising",
			logpkg.Int("counter", q.counter), logpkg.Int("max_number", hi))
		q.counter = min(hi, MaxNumber) + 1
	}
	q.logger.Debug("loaded", logpkg.Int("entries", q.store.Len()), logpkg.Int("counter", q.counter))
	return nil
}

// Save persists the current state unconditionally.
func (q *Queue) Save(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.p.Save(ctx, q.stateLocked()); err != nil {
		return fmt.Errorf("%w: save: %w", ErrPersistence, err)
	}
	return nil
}

// Add appends an entry without a duplicate check. A number at or above the
// counter raises the counter past it.
func (q *Queue) Add(ctx context.Context, uid, timestamp string, number int) error {
	if err := CheckNumber(number); err != nil {
		return err
	}
	_, err := q.mutate(ctx, "add", func() bool {
		q.store.Add(uid, timestamp, number)
		q.raiseCounter(number)
		return true
	})
	return err
}

// AddIfNew adds the entry unless uid is present. It reports whether the
// entry was added; an existing uid is not an error.
func (q *Queue) AddIfNew(ctx context.Context, uid, timestamp string, number int) (bool, error) {
	if err := CheckNumber(number); err != nil {
		return false, err
	}
	return q.mutate(ctx, "add", func() bool {
		if !q.store.AddIfNew(uid, timestamp, number) {
			return false
		}
		q.raiseCounter(number)
		return true
	})
}

// RemoveByUID removes uid's entry. It reports whether one was present; an
// absent uid leaves the queue and storage untouched.
func (q *Queue) RemoveByUID(ctx context.Context, uid string) (bool, error) {
	return q.mutate(ctx, "remove", func() bool {
		return q.store.RemoveByUID(uid)
	})
}

// GetOrAssignPermanentNumber returns uid's number, assigning the next one if
// it has none. An already-numbered uid costs no write. now only stamps a
// newly created entry.
func (q *Queue) GetOrAssignPermanentNumber(ctx context.Context, uid string, now time.Time) (int, error) {
	e, _, err := q.Assign(ctx, uid, now)
	return e.Number, err
}

// Assign is GetOrAssignPermanentNumber returning the whole entry and whether
// this call gave it its number.
func (q *Queue) Assign(ctx context.Context, uid string, now time.Time) (entrystore.Entry, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if e, ok := q.store.Get(uid); ok && e.Assigned() {
		return e, false, nil
	}
	n := q.counter
	if n > MaxNumber {
		return entrystore.Entry{}, false, fmt.Errorf("%w: next number %d", ErrCounterExhausted, n)
	}
	_, err := q.mutateLocked(ctx, "assign", func() bool {
		if !q.store.SetNumber(uid, n) {
			q.store.Add(uid, now.Format(entrystore.TimestampLayout), n)
		}
		q.counter = n + 1
		return true
	})
	if err != nil {
		return entrystore.Entry{}, false, err
	}
	q.logger.Info("assigned permanent number", logpkg.Str("uid", uid), logpkg.Int("number", n))
	e, _ := q.store.Get(uid)
	return e, true, nil
}

// Exists reports whether uid has an entry.
func (q *Queue) Exists(uid string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.store.Exists(uid)
}

// Get returns uid's entry.
func (q *Queue) Get(uid string) (entrystore.Entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.store.Get(uid)
}

// Front returns the head of the queue without removing it.
func (q *Queue) Front() (entrystore.Entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.store.Front()
}

// Pop removes and returns the head. ok is false on an empty queue.
func (q *Queue) Pop(ctx context.Context) (e entrystore.Entry, ok bool, err error) {
	ok, err = q.mutate(ctx, "pop", func() bool {
		e, ok = q.store.Pop()
		return ok
	})
	if !ok {
		return entrystore.Entry{}, false, err
	}
	return e, true, nil
}

// Push re-inserts an entry. Like AddIfNew it refuses a uid that is already
// present and reports whether the entry went in.
func (q *Queue) Push(ctx context.Context, e entrystore.Entry) (bool, error) {
	if err := CheckNumber(e.Number); err != nil {
		return false, err
	}
	return q.mutate(ctx, "push", func() bool {
		if !q.store.Push(e) {
			return false
		}
		q.raiseCounter(e.Number)
		return true
	})
}

// Reset drops every entry. The counter is kept, so numbers handed out
// before the reset are never handed out again.
func (q *Queue) Reset(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	dropped := q.store.Len()
	if _, err := q.mutateLocked(ctx, "reset", func() bool {
		q.store.Replace(nil)
		return true
	}); err != nil {
		return err
	}
	q.logger.Info("queue reset", logpkg.Int("dropped", dropped), logpkg.Int("counter", q.counter))
	return nil
}

func (q *Queue) Empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.store.Empty()
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.store.Len()
}

// Entries returns a copy of the entries in queue order.
func (q *Queue) Entries() []entrystore.Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.store.Entries()
}

// Counter returns the next number that will be assigned.
func (q *Queue) Counter() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.counter
}

// State returns a consistent copy of entries and counter.
func (q *Queue) State() persist.State {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stateLocked()
}

func (q *Queue) stateLocked() persist.State {
	return persist.State{Counter: q.counter, Entries: q.store.Entries()}
}

func (q *Queue) mutate(ctx context.Context, op string, apply func() bool) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.mutateLocked(ctx, op, apply)
}

// mutateLocked runs apply and persists the result. apply returns false when
// it changed nothing, in which case nothing is written. On a failed write the
// entries and counter captured before apply are put back.
func (q *Queue) mutateLocked(ctx context.Context, op string, apply func() bool) (bool, error) {
	prevEntries := q.store.Entries()
	prevCounter := q.counter

	if !apply() {
		return false, nil
	}
	if err := q.p.Save(ctx, q.stateLocked()); err != nil {
		q.store.Replace(prevEntries)
		q.counter = prevCounter
		q.logger.Error("persist failed, mutation rolled back", logpkg.Str("op", op), logpkg.Err(err))
		return false, fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
	}
	q.logger.Debug(op, logpkg.Int("entries", q.store.Len()), logpkg.Int("counter", q.counter))
	return true, nil
}

// raiseCounter keeps the counter strictly above any number in use. number
// has passed CheckNumber, so number+1 stays within int32.
func (q *Queue) raiseCounter(number int) {
	if number >= q.counter {
		q.counter = number + 1
	}
}
