// Package runtime wires storage, config and the per-namespace queues into a
// single sharedq node. It owns the data directory (guarded by a file lock),
// the node id sent to peers, and the one Queue/Replicator pair per namespace.
//
// Example:
//
//	cfg := config.Default()
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Config: cfg})
//	defer rt.Close()
//	rep, _ := rt.Replicator(ctx, "")
//	n, _ := rep.Observe(ctx, "04A2B3C4")
package runtime
