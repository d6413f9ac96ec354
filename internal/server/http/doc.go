// Package httpserver is the REST surface of a sharedq node: health and
// namespace listing, the per-namespace queue operations, and the raw-frame
// endpoint peers post replicated events to.
//
// Example:
//
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Config: config.Default()})
//	s := httpserver.New(rt, logger)
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, ":8080")
package httpserver
