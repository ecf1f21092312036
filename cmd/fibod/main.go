// Command fibod serves a memoized fibonacci command over a configurable
// socks transport. It is the Go port of the library's canonical example
// service.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/codefionn/socks"
	"github.com/codefionn/socks/internal/config"
	"github.com/codefionn/socks/internal/logging"
	"github.com/codefionn/socks/pool"
	"github.com/codefionn/socks/schema"
)

func main() {
	cfgPath := flag.String("config", "", "path to config file (default ./fibod.yaml)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fibod: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.Setup(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fibod: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	tr, err := cfg.Transport.New()
	if err != nil {
		logger.Fatal("transport", zap.Error(err))
	}

	var opts []socks.ServerOption
	opts = append(opts, socks.WithServerLogger(logger))
	var workers *pool.Pool
	if cfg.Pool.Workers > 0 {
		workers = pool.New(cfg.Pool.Workers, pool.WithLogger(logger))
		opts = append(opts, socks.WithPool(workers))
	}

	srv := socks.NewServer(tr, opts...)
	srv.AddHandler("fibo", fiboHandler())

	if err := srv.ServeBackground(); err != nil {
		logger.Fatal("start server", zap.Error(err))
	}
	logger.Info("fibod serving",
		zap.String("transport", cfg.Transport.Kind),
		zap.Int("workers", cfg.Pool.Workers))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	srv.Stop()
	if workers != nil {
		workers.Wait()
	}
}

// fiboHandler returns the "fibo" command handler with its own memo table.
func fiboHandler() socks.Handler {
	var (
		mu   sync.Mutex
		memo = map[int]uint64{0: 0, 1: 1}
	)
	return func(req socks.Envelope) (socks.Envelope, error) {
		if err := schema.Validate(req, schema.Map{
			"n": schema.Type(schema.Integer),
		}); err != nil {
			return nil, err
		}
		n := asInt(req["n"])
		if n < 0 || n > 93 {
			return nil, fmt.Errorf("n must be between 0 and 93, got %d", n)
		}

		mu.Lock()
		defer mu.Unlock()
		for i := len(memo); i <= n; i++ {
			memo[i] = memo[i-1] + memo[i-2]
		}
		return socks.Okay(socks.Envelope{"result": memo[n]}), nil
	}
}

// asInt narrows the numeric representations the schema admits for an integer
// field. Values decoded from the wire arrive as float64.
func asInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	}
	return 0
}
