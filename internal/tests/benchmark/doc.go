// Package benchmark provides end-to-end performance benchmarks for minikv.
//
// Run benchmarks with:
//
//	go test -bench=. -benchmem ./internal/tests/benchmark/...
//
// Run with a specific key count:
//
//	go test -bench='BenchmarkEngineGet/keys_100000' -benchtime=10s ./internal/tests/benchmark/...
//
// Compare results:
//
//	benchstat old.txt new.txt
package benchmark
