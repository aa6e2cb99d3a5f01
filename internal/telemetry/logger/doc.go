// Package logger provides structured logging for minikv on log/slog.
//
// New builds a JSON (default) or text logger whose level is shared
// process-wide, so SetLevel applies to every logger at once and the config
// watcher can change it at runtime. Attributes named "value" or "payload"
// are replaced by their size so stored data never reaches the output, and
// attributes whose key looks like a secret are masked.
package logger
