package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/conorfennell/vocabdb/internal/config"
	"github.com/conorfennell/vocabdb/internal/logging"
	"github.com/conorfennell/vocabdb/internal/purge"
)

var banner = strings.Repeat("=", 60)

func main() {
	flags := config.NewFlagSet("deletetranslations")
	cfg, err := config.Load(flags, os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "deletetranslations: %v\n", err)
		os.Exit(2)
	}

	logger := logging.New(os.Stderr, cfg.LogLevel, "deletetranslations")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// The exit status stays 0 either way; the banner carries the outcome.
	run(ctx, cfg, os.Stdin, os.Stdout, logger)
}

func run(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer, logger *slog.Logger) bool {
	fmt.Fprintln(out, banner)
	fmt.Fprintln(out, "WORDS TRANSLATIONS DELETION SCRIPT")
	fmt.Fprintln(out, banner)
	fmt.Fprintln(out)

	deleter := purge.New(cfg.DBPath, purge.SQLiteOpener(cfg.Driver), in, out, logger)
	res := deleter.Run(ctx)
	logger.Debug("Run finished", "state", res.State, "before", res.Before, "deleted", res.Deleted, "after", res.After)

	if res.Success() {
		fmt.Fprintln(out, "\n✅ Script completed successfully!")
	} else {
		fmt.Fprintln(out, "\n❌ Script failed!")
	}
	fmt.Fprintln(out, banner)
	return res.Success()
}
