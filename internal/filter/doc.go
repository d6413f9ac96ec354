// Package filter compiles CEL expressions that select queue entries, as used
// by the HTTP list endpoint and `sharedq queue list --filter`.
package filter
