// Package client provides the `sharedq` command-line client.
//
// The commands talk to a node's HTTP API. The base URL comes from the
// embedding application through a BaseURLFunc; the standalone binary reads
// --api or SHAREDQ_API and defaults to http://127.0.0.1:8080.
//
// Usage
//
//	sharedq queue assign 04A2B3C4            # prints the permanent number
//	sharedq queue add 04A2B3C4 --timestamp 2024-01-01T10:00:00
//	sharedq queue list -n lobby --filter 'assigned && number > 10'
//	sharedq queue front
//	sharedq queue pop --json
//	sharedq queue remove 04A2B3C4
//	sharedq queue print
//	sharedq queue reset --confirm
//
//	sharedq namespace list
//	sharedq namespace create lobby
//
//	# Offline frame tools, useful against a badge reader's serial dump
//	sharedq wire encode --kind add --uid 04A2B3C4 --number 7
//	sharedq wire decode 30344132...
//
// Tables use box drawing on a terminal and plain ASCII when piped; --json
// prints machine-readable output instead.
package client
