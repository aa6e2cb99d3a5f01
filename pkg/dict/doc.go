// Package dict provides a chained hash table keyed by binary-safe byte strings.
//
// Keys are hashed with 64-bit murmur3 using a per-table seed, so any byte
// sequence is a valid key. Collisions are resolved by chaining.
//
// Growth:
//
//   - The table doubles and rehashes when entries exceed buckets (load factor 1)
//   - The table halves when entries fall below buckets/8, never below the initial size
//
// A Dict is not safe for concurrent use. Callers that share one must
// serialise access themselves.
package dict
