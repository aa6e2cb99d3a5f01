// Package storage provides the in-memory storage engine for minikv.
//
// The engine owns a single dictionary of string values and serialises every
// operation with one mutex. Each call holds the lock only for its own
// duration, so two INCRs on the same key never lose an update.
//
// Values are stored as tagged objects (see Object). STRING is the only kind
// today; operations that need a specific kind return ErrWrongType otherwise.
package storage
