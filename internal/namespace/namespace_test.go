package namespace

import (
	"context"
	"errors"
	"testing"

	"github.com/rzbill/sharedq/internal/storage/memstore"
	pebblestore "github.com/rzbill/sharedq/internal/storage/pebble"
)

func defaultPolicy(t *testing.T) *Policy {
	t.Helper()
	p, err := NewPolicy("[a-z0-9_-]{1,15}", nil, 0)
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	return p
}

func TestEnsureNamespaceIdempotent(t *testing.T) {
	dir := t.TempDir()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	m1, err := EnsureNamespace(ctx, db, defaultPolicy(t), "lobby", 1)
	if err != nil {
		t.Fatalf("ensure1: %v", err)
	}
	m2, err := EnsureNamespace(ctx, db, defaultPolicy(t), "lobby", 50)
	if err != nil {
		t.Fatalf("ensure2: %v", err)
	}
	if m1 != m2 {
		t.Fatalf("not idempotent: %+v vs %+v", m1, m2)
	}
	if m2.StartNumber != 1 {
		t.Fatalf("start number must stick to the first value, got %d", m2.StartNumber)
	}
}

func TestPolicyRejectsBadNames(t *testing.T) {
	p := defaultPolicy(t)
	for _, name := range []string{"", "UPPER", "sixteen-chars-xx", "a/b"} {
		if err := p.Check(name); !errors.Is(err, ErrInvalidName) {
			t.Fatalf("Check(%q) = %v, want ErrInvalidName", name, err)
		}
	}
	allow, err := NewPolicy("[a-z]+", []string{"gate"}, 0)
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	if err := allow.Check("lobby"); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("allow list not enforced")
	}
	if err := allow.Check("gate"); err != nil {
		t.Fatalf("gate should pass: %v", err)
	}
}

func TestLimitAndList(t *testing.T) {
	kv := memstore.New()
	p, _ := NewPolicy("[a-z]+", nil, 2)
	ctx := context.Background()
	for _, n := range []string{"b", "a"} {
		if _, err := EnsureNamespace(ctx, kv, p, n, 1); err != nil {
			t.Fatalf("ensure %s: %v", n, err)
		}
	}
	if _, err := EnsureNamespace(ctx, kv, p, "c", 1); !errors.Is(err, ErrLimit) {
		t.Fatalf("want ErrLimit, got %v", err)
	}
	// re-opening an existing namespace is not limited
	if _, err := EnsureNamespace(ctx, kv, p, "a", 1); err != nil {
		t.Fatalf("existing namespace: %v", err)
	}
	metas, err := List(kv)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(metas) != 2 || metas[0].Name != "a" || metas[1].Name != "b" {
		t.Fatalf("unexpected list %+v", metas)
	}
}
