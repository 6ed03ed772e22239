// Package registry provides the connection registry: a chained hash table
// mapping 64-bit connection identifiers to live connection state.
//
// The registry holds non-owning references. The engine inserts a connection
// only after it has been fully admitted and erases it before the
// connection's resources are released, so a lookup never returns state that
// has already been torn down.
//
// # Layout
//
// Each bucket is a singly linked chain of (id, value) nodes. The bucket for
// an identifier is id mod bucket count. Identifiers come from a monotonic
// counter, so consecutive connections spread evenly across buckets.
//
// # Growth
//
// The table starts with a fixed number of buckets and doubles once the
// number of entries exceeds MaxLoadFactor entries per bucket. Growth only
// happens on Insert; Erase never shrinks the table, which keeps Range safe
// while the visited entries are being erased.
//
// A Registry is not safe for concurrent use. The engine only touches it from
// the reactor goroutine.
package registry
