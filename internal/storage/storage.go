// Package storage defines the durable key-value contract shared by the
// pebble, sqlite and in-memory backends.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = errors.New("storage: key not found")

// Mutation is a single write inside an atomic Commit. A nil Value with
// Delete unset stores an empty value.
type Mutation struct {
	Key    []byte
	Value  []byte
	Delete bool
}

// Put returns a set mutation.
func Put(key, value []byte) Mutation { return Mutation{Key: key, Value: value} }

// Del returns a delete mutation.
func Del(key []byte) Mutation { return Mutation{Key: key, Delete: true} }

// KV is the minimal durable region a queue namespace needs. Commit must apply
// every mutation or none of them.
type KV interface {
	Get(key []byte) ([]byte, error)
	Commit(ctx context.Context, muts []Mutation) error
	// Scan calls fn for each key with the given prefix in ascending key order.
	// Returning an error from fn stops the scan and is returned by Scan.
	Scan(prefix []byte, fn func(key, value []byte) error) error
	Close() error
}

// PrefixUpperBound returns the smallest key greater than every key with the
// given prefix, or nil when no such key exists (prefix is all 0xFF).
func PrefixUpperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xFF {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
