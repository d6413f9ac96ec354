// Package pebblestore is the default storage.KV backend: a thin wrapper
// around Pebble with an fsync policy, atomic batch commits, prefix scans and
// minimal metrics hooks.
//
// Usage:
//
//	db, err := pebblestore.Open(pebblestore.Options{
//	    DataDir: "./data/store",
//	    Fsync:   pebblestore.FsyncModeAlways,
//	})
//	if err != nil { /* handle */ }
//	defer db.Close()
//
//	_ = db.Commit(ctx, []storage.Mutation{
//	    storage.Put([]byte("ns/lobby/sq/counter"), counter),
//	    storage.Put([]byte("ns/lobby/sq/entries"), entries),
//	})
package pebblestore
