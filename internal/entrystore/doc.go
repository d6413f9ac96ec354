// Package entrystore holds the in-memory ordered collection of identity
// records that backs a shared queue.
//
// Ordering: assigned entries first by ascending permanent number, then
// unassigned entries in the order they arrived. Front and Pop therefore
// always yield the lowest permanently numbered identity still waiting.
package entrystore
