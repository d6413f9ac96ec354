// Package sharedqueue is the namespace-scoped queue of identity records.
//
// A Queue wraps an entrystore.Store and the permanent-number counter and
// pairs every mutation with a durable write through a Persister:
//
//	q, err := sharedqueue.Open(ctx, persist.New(kv, "queue", 1), logger)
//	n, err := q.GetOrAssignPermanentNumber(ctx, "A1", time.Now())
//
// Mutations that fail to persist return an error wrapping ErrPersistence and
// leave the queue exactly as it was. Queue is safe for concurrent use; local
// calls and remote events applied by peersync share the same lock.
package sharedqueue
