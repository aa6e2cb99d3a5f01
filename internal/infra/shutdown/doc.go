// Package shutdown coordinates graceful process termination.
//
// A Handler collects named hooks, waits for SIGINT/SIGTERM (or for its
// context to end, or for Trigger), then runs the hooks in reverse
// registration order under a single timeout.
//
// Usage:
//
//	h := shutdown.NewHandler(10*time.Second, logger)
//	h.OnShutdown("redis server", srv.Shutdown)
//	err := h.Wait(ctx)
package shutdown
