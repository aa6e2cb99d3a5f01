// Package cmap provides a concurrent map keyed by strings.
//
// The map is split into shards, each guarded by its own RWMutex. Keys are
// assigned to shards with murmur3, so unrelated keys rarely contend.
//
//	conns := cmap.New[*Conn]()
//	conns.Set(id, conn)
//	defer conns.Delete(id)
//
// Range locks one shard at a time, so it does not see a consistent
// snapshot of the whole map.
package cmap
