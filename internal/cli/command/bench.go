package command

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/minikv/internal/cli/connection"
	"github.com/yndnr/minikv/internal/cli/output"
	"github.com/yndnr/minikv/internal/server/redisserver"
)

// BenchOptions configures a benchmark run.
type BenchOptions struct {
	Command  string // SET, GET or INCR
	Requests int
	Clients  int
	Pipeline int
	DataSize int
	KeySpace int // keys are "key<i % KeySpace>"; 0 means one key per request
}

// BenchReport is the result of a benchmark run.
type BenchReport struct {
	Command  string        `json:"command" yaml:"command"`
	Requests int           `json:"requests" yaml:"requests"`
	Clients  int           `json:"clients" yaml:"clients"`
	Pipeline int           `json:"pipeline" yaml:"pipeline"`
	DataSize int           `json:"data_size" yaml:"data_size"`
	Errors   int64         `json:"errors" yaml:"errors"`
	Duration time.Duration `json:"duration" yaml:"duration"`
	QPS      float64       `json:"qps" yaml:"qps"`
	P50      time.Duration `json:"p50" yaml:"p50" table:"wide"`
	P99      time.Duration `json:"p99" yaml:"p99" table:"wide"`
	Max      time.Duration `json:"max" yaml:"max" table:"wide"`
}

// BenchCommand returns the bench command.
func BenchCommand() *cli.Command {
	return &cli.Command{
		Name:  "bench",
		Usage: "Measure server throughput",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "command", Aliases: []string{"t"}, Value: "SET", Usage: "SET, GET or INCR"},
			&cli.IntFlag{Name: "requests", Aliases: []string{"n"}, Value: 100000, Usage: "total requests"},
			&cli.IntFlag{Name: "clients", Aliases: []string{"c"}, Value: 50, Usage: "parallel connections"},
			&cli.IntFlag{Name: "pipeline", Aliases: []string{"P"}, Value: 1, Usage: "requests per round trip"},
			&cli.IntFlag{Name: "data-size", Aliases: []string{"d"}, Value: 5, Usage: "value size in bytes for SET"},
			&cli.IntFlag{Name: "keyspace", Aliases: []string{"r"}, Usage: "number of distinct keys (0 = one per request)"},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "hide the progress bar"},
		},
		Action: benchAction,
	}
}

func benchAction(c *cli.Context) error {
	opts := BenchOptions{
		Command:  strings.ToUpper(c.String("command")),
		Requests: c.Int("requests"),
		Clients:  c.Int("clients"),
		Pipeline: c.Int("pipeline"),
		DataSize: c.Int("data-size"),
		KeySpace: c.Int("keyspace"),
	}
	if err := opts.validate(); err != nil {
		return cli.Exit(err.Error(), 2)
	}

	var progress *output.ProgressBar
	if !c.Bool("quiet") {
		progress = output.NewProgressBar(c.App.ErrWriter, opts.Command, int64(opts.Requests))
	}

	cfg := Config(c)
	dialOpts, err := clientOptions(cfg)
	if err != nil {
		return err
	}
	dial := func(ctx context.Context) (*connection.Client, error) {
		return connection.Dial(ctx, cfg.Server, dialOpts...)
	}

	report, err := RunBench(c.Context, opts, dial, progress)
	if err != nil {
		return err
	}
	return formatter(c).Format(c.App.Writer, report)
}

func (o BenchOptions) validate() error {
	switch o.Command {
	case "SET", "GET", "INCR":
	default:
		return fmt.Errorf("unsupported bench command %q", o.Command)
	}
	if o.Requests <= 0 || o.Clients <= 0 || o.Pipeline <= 0 {
		return fmt.Errorf("requests, clients and pipeline must be positive")
	}
	if o.DataSize < 0 || o.KeySpace < 0 {
		return fmt.Errorf("data-size and keyspace must not be negative")
	}
	return nil
}

// RunBench issues opts.Requests commands over opts.Clients connections.
// progress may be nil.
func RunBench(ctx context.Context, opts BenchOptions, dial func(context.Context) (*connection.Client, error), progress *output.ProgressBar) (*BenchReport, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	clients := min(opts.Clients, opts.Requests)

	conns := make([]*connection.Client, 0, clients)
	defer func() {
		for _, cl := range conns {
			_ = cl.Close()
		}
	}()
	for i := 0; i < clients; i++ {
		cl, err := dial(ctx)
		if err != nil {
			return nil, err
		}
		conns = append(conns, cl)
	}

	value := bytes.Repeat([]byte("x"), opts.DataSize)
	var (
		next      atomic.Int64
		errCount  atomic.Int64
		mu        sync.Mutex
		latencies = make([]time.Duration, 0, opts.Requests/opts.Pipeline+1)
		firstErr  error
		wg        sync.WaitGroup
	)

	start := time.Now()
	for _, cl := range conns {
		wg.Add(1)
		go func(cl *connection.Client) {
			defer wg.Done()
			local := make([]time.Duration, 0, 128)
			batch := make([][][]byte, 0, opts.Pipeline)
			for {
				from := next.Add(int64(opts.Pipeline)) - int64(opts.Pipeline)
				if from >= int64(opts.Requests) {
					break
				}
				to := min(from+int64(opts.Pipeline), int64(opts.Requests))

				batch = batch[:0]
				for i := from; i < to; i++ {
					batch = append(batch, opts.request(i, value))
				}

				t0 := time.Now()
				replies, err := cl.Pipeline(ctx, batch)
				local = append(local, time.Since(t0))
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					return
				}
				for _, r := range replies {
					if r.Kind == redisserver.ReplyError {
						errCount.Add(1)
					}
				}
				if progress != nil {
					progress.Increment(to - from)
				}
			}
			mu.Lock()
			latencies = append(latencies, local...)
			mu.Unlock()
		}(cl)
	}
	wg.Wait()
	elapsed := time.Since(start)

	if firstErr != nil {
		return nil, fmt.Errorf("bench: %w", firstErr)
	}
	if progress != nil {
		progress.Finish()
	}

	slices.Sort(latencies)
	return &BenchReport{
		Command:  opts.Command,
		Requests: opts.Requests,
		Clients:  clients,
		Pipeline: opts.Pipeline,
		DataSize: opts.DataSize,
		Errors:   errCount.Load(),
		Duration: elapsed,
		QPS:      float64(opts.Requests) / elapsed.Seconds(),
		P50:      percentile(latencies, 50),
		P99:      percentile(latencies, 99),
		Max:      percentile(latencies, 100),
	}, nil
}

// request builds the i-th benchmark command.
func (o BenchOptions) request(i int64, value []byte) [][]byte {
	n := i
	if o.KeySpace > 0 {
		n = i % int64(o.KeySpace)
	}
	key := strconv.AppendInt([]byte("key"), n, 10)

	switch o.Command {
	case "GET":
		return [][]byte{[]byte("GET"), key}
	case "INCR":
		return [][]byte{[]byte("INCR"), key}
	default:
		return [][]byte{[]byte("SET"), key, value}
	}
}

// percentile returns the p-th percentile of sorted samples.
func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := (len(sorted)*p+99)/100 - 1
	return sorted[max(0, min(idx, len(sorted)-1))]
}
