// Package peersync replicates queue adds and removes between nodes.
//
// A Replicator sits in front of one sharedqueue.Queue. Local events go
// through Observe or Publish, are applied and persisted, then encoded with
// package wire and broadcast over a Link. Frames from peers arrive at Receive
// and are applied with the same idempotent operations (AddIfNew for adds,
// RemoveByUID for removes), so replayed or duplicated frames are harmless.
//
// Consistency across nodes is eventual. Conflicting concurrent edits resolve
// by whichever event is applied last.
package peersync
