// Command rebuild recomputes every daily technique counter from the point
// ledger and writes the result back to the store. Run it after manual data
// fixes or when incremental counter updates were lost.
package main

import (
	"context"
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/okian/zanshin/internal/adapters/repository"
	app "github.com/okian/zanshin/internal/app"
	"github.com/okian/zanshin/internal/config"
	"github.com/okian/zanshin/pkg/logger"
)

const defaultRunTimeout = 10 * time.Minute

func main() {
	timeout := flag.Duration("timeout", defaultRunTimeout, "Overall rebuild timeout")
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Named("rebuild")

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if cfg.MongoURI == "" {
		os.Stderr.WriteString("mongo_uri must be set; the in-memory store has nothing to rebuild\n")
		os.Exit(1)
	}

	store, err := repository.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		os.Stderr.WriteString("failed to connect to mongodb: " + err.Error() + "\n")
		os.Exit(1)
	}

	// A single worker is enough: the CLI only exercises the batch path.
	svc := app.New(
		app.WithLogger(log),
		app.WithStore(store),
		app.WithWorkerCount(1),
	)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer svc.Stop()

	start := time.Now()
	rows, err := svc.RebuildCounters(ctx)
	if err != nil {
		log.Error(ctx, "rebuild failed", logger.Error(err))
		os.Exit(1)
	}

	log.Info(ctx, "rebuild complete",
		logger.Int("rows", rows),
		logger.Duration("took", time.Since(start)),
	)
	os.Stdout.WriteString("rebuilt " + strconv.Itoa(rows) + " counter rows\n")
}
