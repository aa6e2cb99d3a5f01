package benchmark

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"testing"
	"time"

	"github.com/yndnr/minikv/internal/cli/connection"
	"github.com/yndnr/minikv/internal/server/redisserver"
	"github.com/yndnr/minikv/internal/storage"
)

// KeyCounts defines the preloaded key counts for benchmarking.
var KeyCounts = []int{1000, 10000, 100000, 1000000}

// SmallKeyCounts for quick benchmarks.
var SmallKeyCounts = []int{1000, 10000, 100000}

// keyName returns the i-th benchmark key.
func keyName(i int) []byte {
	return strconv.AppendInt([]byte("key:"), int64(i), 10)
}

// prefillEngine stores count keys with a value of valueSize bytes.
func prefillEngine(e *storage.Engine, count, valueSize int) {
	value := make([]byte, valueSize)
	for i := range value {
		value[i] = 'x'
	}
	for i := 0; i < count; i++ {
		e.Set(keyName(i), value)
	}
}

// startServer serves engine on a loopback port for the life of b.
func startServer(b *testing.B, engine *storage.Engine) *redisserver.Server {
	b.Helper()
	srv := redisserver.New(&redisserver.Config{Address: "127.0.0.1:0"}, engine, nil, nil)
	if err := srv.Start(context.Background()); err != nil {
		b.Fatalf("Start: %v", err)
	}
	b.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv
}

// dialServer connects a client to srv for the life of b.
func dialServer(b *testing.B, srv *redisserver.Server) *connection.Client {
	b.Helper()
	c, err := connection.Dial(context.Background(), srv.Addr().String())
	if err != nil {
		b.Fatalf("Dial: %v", err)
	}
	b.Cleanup(func() { _ = c.Close() })
	return c
}

// reportMemory reports memory usage.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
	b.ReportMetric(float64(m.NumGC), prefix+"_GC")
}

// runWithKeyCounts runs a benchmark function with various preloaded key counts.
func runWithKeyCounts(b *testing.B, counts []int, benchFn func(b *testing.B, count int)) {
	for _, count := range counts {
		b.Run(fmt.Sprintf("keys_%d", count), func(b *testing.B) {
			benchFn(b, count)
		})
	}
}
