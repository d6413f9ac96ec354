package sqlitestore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rzbill/sharedq/internal/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "sharedq.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestGetMissing(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Get([]byte("nope")); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestCommitUpsertAndDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.Commit(ctx, []storage.Mutation{
		storage.Put([]byte("a"), []byte("1")),
		storage.Put([]byte("b"), []byte("2")),
	}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := s.Commit(ctx, []storage.Mutation{
		storage.Put([]byte("a"), []byte("3")),
		storage.Del([]byte("b")),
	}); err != nil {
		t.Fatalf("commit2: %v", err)
	}
	v, err := s.Get([]byte("a"))
	if err != nil || string(v) != "3" {
		t.Fatalf("a = %q, %v", v, err)
	}
	if _, err := s.Get([]byte("b")); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("b should be deleted")
	}
}

func TestScanPrefixAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx := context.Background()
	for _, k := range []string{"ns/x/2", "ns/x/1", "ns/y/1"} {
		if err := s.Commit(ctx, []storage.Mutation{storage.Put([]byte(k), []byte(k))}); err != nil {
			t.Fatalf("commit: %v", err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	var keys []string
	if err := s.Scan([]byte("ns/x/"), func(k, _ []byte) error {
		keys = append(keys, string(k))
		return nil
	}); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(keys) != 2 || keys[0] != "ns/x/1" || keys[1] != "ns/x/2" {
		t.Fatalf("unexpected keys %v", keys)
	}
}
