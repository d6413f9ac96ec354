package namespace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/rzbill/sharedq/internal/storage"
)

var (
	// ErrInvalidName is returned when a namespace name fails the configured policy.
	ErrInvalidName = errors.New("namespace: invalid name")
	// ErrLimit is returned when creating a namespace would exceed MaxNamespaces.
	ErrLimit = errors.New("namespace: limit reached")
)

// Meta holds namespace metadata.
type Meta struct {
	Name        string `json:"name"`
	CreatedAtMs int64  `json:"createdAtMs"`
	// StartNumber is the counter value a fresh queue in this namespace starts at.
	StartNumber int `json:"startNumber"`
}

var nsMetaPrefix = []byte("nsmeta/")

// nsMetaKey builds metadata key for a namespace.
func nsMetaKey(ns string) []byte {
	k := make([]byte, 0, len(nsMetaPrefix)+len(ns))
	k = append(k, nsMetaPrefix...)
	k = append(k, ns...)
	return k
}

// Policy decides which namespace names may be opened.
type Policy struct {
	re      *regexp.Regexp
	allowed map[string]struct{}
	max     int
}

// NewPolicy compiles pattern (anchored) and records the allow list and limit.
// An empty allow list allows every name matching pattern; max <= 0 is unlimited.
func NewPolicy(pattern string, allowed []string, max int) (*Policy, error) {
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return nil, fmt.Errorf("namespace pattern: %w", err)
	}
	p := &Policy{re: re, max: max}
	if len(allowed) > 0 {
		p.allowed = make(map[string]struct{}, len(allowed))
		for _, a := range allowed {
			p.allowed[a] = struct{}{}
		}
	}
	return p, nil
}

// Check validates a name against the pattern and allow list.
func (p *Policy) Check(name string) error {
	if !p.re.MatchString(name) {
		return fmt.Errorf("%w: %q does not match %s", ErrInvalidName, name, p.re.String())
	}
	if p.allowed != nil {
		if _, ok := p.allowed[name]; !ok {
			return fmt.Errorf("%w: %q is not in the allowed list", ErrInvalidName, name)
		}
	}
	return nil
}

// EnsureNamespace creates a namespace meta record if absent, returning the
// effective meta. Idempotent: an existing record is returned unchanged.
func EnsureNamespace(ctx context.Context, kv storage.KV, p *Policy, name string, startNumber int) (Meta, error) {
	if err := p.Check(name); err != nil {
		return Meta{}, err
	}
	key := nsMetaKey(name)
	b, err := kv.Get(key)
	switch {
	case err == nil && len(b) > 0:
		var m Meta
		if err := json.Unmarshal(b, &m); err == nil {
			return m, nil
		}
		// rewrite a corrupted record below
	case err != nil && !errors.Is(err, storage.ErrNotFound):
		return Meta{}, err
	}

	if p.max > 0 {
		existing, err := List(kv)
		if err != nil {
			return Meta{}, err
		}
		if len(existing) >= p.max {
			return Meta{}, fmt.Errorf("%w: %d namespaces", ErrLimit, p.max)
		}
	}

	m := Meta{Name: name, CreatedAtMs: time.Now().UnixMilli(), StartNumber: startNumber}
	bytes, err := json.Marshal(m)
	if err != nil {
		return Meta{}, err
	}
	if err := kv.Commit(ctx, []storage.Mutation{storage.Put(key, bytes)}); err != nil {
		return Meta{}, err
	}
	return m, nil
}

// List returns every namespace meta record in name order.
func List(kv storage.KV) ([]Meta, error) {
	var out []Meta
	err := kv.Scan(nsMetaPrefix, func(k, v []byte) error {
		var m Meta
		if err := json.Unmarshal(v, &m); err != nil {
			m = Meta{Name: string(k[len(nsMetaPrefix):])}
		}
		out = append(out, m)
		return nil
	})
	return out, err
}
