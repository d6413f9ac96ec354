// Package namespace manages the logical partitions of durable storage. Each
// namespace isolates one shared queue; its metadata lives under
// nsmeta/{name} and its queue state under ns/{name}/.
package namespace
