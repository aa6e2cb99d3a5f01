// Package confloader fills configuration structs from a YAML file,
// environment variables and explicit overrides, using koanf.
//
// Later sources win: file, then environment, then overrides. Fields the
// sources do not mention keep the value already in the struct, so callers
// pass a struct holding their defaults.
//
// Environment variables are the prefix followed by the upper-cased key
// path joined with underscores: server.redis.max_bulk_len is read from
// MINIKV_SERVER_REDIS_MAX_BULK_LEN. Keys that contain underscores are
// resolved against the koanf tags of the target struct.
//
// Watcher reports changes to a single file, debounced, so a running
// process can re-read the settings it is able to change live.
package confloader
