package entrystore

import (
	"slices"
)

// Unassigned is the Number of an entry that has not received a permanent
// number yet. Any Number <= Unassigned is treated as unassigned.
const Unassigned = 0

// TimestampLayout is the capture-time format written by local assignments.
// 19 characters, well inside the wire record's 24.
const TimestampLayout = "2006-01-02T15:04:05"

// Entry is one identity record.
type Entry struct {
	UID       string `cbor:"1,keyasint" json:"uid"`
	Timestamp string `cbor:"2,keyasint" json:"timestamp"`
	Number    int    `cbor:"3,keyasint" json:"number"`
}

// Assigned reports whether the entry carries a permanent number.
func (e Entry) Assigned() bool { return e.Number > Unassigned }

// Store is the in-memory ordered sequence of entries. It keeps entries
// sorted by ascending Number with unassigned entries trailing in arrival
// order. Store is not safe for concurrent use; its owner serialises access.
type Store struct {
	entries []Entry
}

// New returns a store holding entries, sorted.
func New(entries ...Entry) *Store {
	s := &Store{entries: slices.Clone(entries)}
	s.sort()
	return s
}

// Add appends a new entry unconditionally and re-sorts. Duplicate checks are
// the caller's job; see AddIfNew.
func (s *Store) Add(uid, timestamp string, number int) {
	s.entries = append(s.entries, Entry{UID: uid, Timestamp: timestamp, Number: number})
	s.sort()
}

// AddIfNew adds the entry unless uid is already present. It reports whether
// an entry was added.
func (s *Store) AddIfNew(uid, timestamp string, number int) bool {
	if s.Exists(uid) {
		return false
	}
	s.Add(uid, timestamp, number)
	return true
}

// RemoveByUID removes the entry for uid. Removing an absent uid is a no-op
// and reports false.
func (s *Store) RemoveByUID(uid string) bool {
	i := s.index(uid)
	if i < 0 {
		return false
	}
	s.entries = slices.Delete(s.entries, i, i+1)
	return true
}

// Exists reports whether an entry for uid is present.
func (s *Store) Exists(uid string) bool { return s.index(uid) >= 0 }

// Get returns the entry for uid.
func (s *Store) Get(uid string) (Entry, bool) {
	i := s.index(uid)
	if i < 0 {
		return Entry{}, false
	}
	return s.entries[i], true
}

// SetNumber fills in the number of an existing entry and re-sorts.
func (s *Store) SetNumber(uid string, number int) bool {
	i := s.index(uid)
	if i < 0 {
		return false
	}
	s.entries[i].Number = number
	s.sort()
	return true
}

// Front returns the head of the queue: the lowest assigned number, or the
// earliest unassigned arrival when nothing is assigned.
func (s *Store) Front() (Entry, bool) {
	if len(s.entries) == 0 {
		return Entry{}, false
	}
	return s.entries[0], true
}

// Pop removes and returns the head.
func (s *Store) Pop() (Entry, bool) {
	e, ok := s.Front()
	if ok {
		s.entries = slices.Delete(s.entries, 0, 1)
	}
	return e, ok
}

// Push re-inserts an entry, typically one a consumer popped and could not
// serve. It keeps the one-entry-per-uid invariant and reports whether the
// entry was inserted.
func (s *Store) Push(e Entry) bool { return s.AddIfNew(e.UID, e.Timestamp, e.Number) }

func (s *Store) Len() int    { return len(s.entries) }
func (s *Store) Empty() bool { return len(s.entries) == 0 }

// Entries returns a copy of the entries in queue order.
func (s *Store) Entries() []Entry { return slices.Clone(s.entries) }

// MaxNumber returns the highest assigned number, or Unassigned when none is.
func (s *Store) MaxNumber() int {
	hi := Unassigned
	for _, e := range s.entries {
		if e.Number > hi {
			hi = e.Number
		}
	}
	return hi
}

// Clone returns an independent copy of the store.
func (s *Store) Clone() *Store { return &Store{entries: slices.Clone(s.entries)} }

// Replace swaps in entries wholesale, dropping duplicate uids (first wins) and
// re-sorting. Used when loading persisted state and when rolling back.
func (s *Store) Replace(entries []Entry) (dropped int) {
	seen := make(map[string]struct{}, len(entries))
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if _, dup := seen[e.UID]; dup {
			dropped++
			continue
		}
		seen[e.UID] = struct{}{}
		out = append(out, e)
	}
	s.entries = out
	s.sort()
	return dropped
}

func (s *Store) index(uid string) int {
	return slices.IndexFunc(s.entries, func(e Entry) bool { return e.UID == uid })
}

// sort orders by ascending Number; unassigned entries go last. The sort is
// stable, so unassigned entries keep their arrival order and equal numbers
// (only possible with remote conflicts) keep theirs.
func (s *Store) sort() {
	slices.SortStableFunc(s.entries, compareEntries)
}

func compareEntries(a, b Entry) int {
	switch {
	case a.Assigned() && !b.Assigned():
		return -1
	case !a.Assigned() && b.Assigned():
		return 1
	case !a.Assigned():
		return 0
	case a.Number < b.Number:
		return -1
	case a.Number > b.Number:
		return 1
	default:
		return 0
	}
}
