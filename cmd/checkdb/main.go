package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/conorfennell/vocabdb/internal/config"
	"github.com/conorfennell/vocabdb/internal/inspect"
	"github.com/conorfennell/vocabdb/internal/logging"
	"github.com/conorfennell/vocabdb/internal/storage"
)

func main() {
	// 1. Resolve configuration from flags, env and an optional config file
	flags := config.NewFlagSet("checkdb")
	config.AddSampleSizeFlag(flags)
	cfg, err := config.Load(flags, os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "checkdb: %v\n", err)
		os.Exit(2)
	}

	logger := logging.New(os.Stderr, cfg.LogLevel, "checkdb")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, os.Stdout); err != nil {
		logger.Error("Inspection failed", "db", cfg.DBPath, "error", err)
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	// 2. Open the database without write access
	db, err := storage.OpenReadOnly(ctx, cfg.DBPath, cfg.Driver)
	if err != nil {
		return err
	}
	defer db.Close()

	// 3. Print the report
	_, err = inspect.Run(ctx, db, out, cfg.SampleSize)
	return err
}
