// Package persist serialises a shared queue's entries and permanent-number
// counter into a namespaced region of a storage.KV.
//
// Both keys are written in a single commit, so after a crash the durable
// state matches the last completed mutation. The entry snapshot is CBOR with
// integer keys, wrapped in a version byte and a CRC32C trailer so a torn or
// foreign value is reported as ErrCorrupt instead of being half-loaded.
package persist
