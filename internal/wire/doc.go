// Package wire implements the fixed 56-byte record that carries one queue
// add or remove between peer nodes, byte-compatible with the C struct the
// badge readers send.
//
// Above the wire boundary events are a tagged Kind (add or remove); the
// two-flag encoding is produced and validated only here. Decoding rejects a
// record with both or neither flag set, and never reads past a field buffer
// even when the sender forgot the terminator.
package wire
