// Package purge empties the words_translations table after the operator
// types the confirmation token.
package purge

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/conorfennell/vocabdb/internal/storage"
)

// ConfirmationToken is the only input that authorises the deletion.
const ConfirmationToken = "YES"

var (
	// ErrDatabaseNotFound is returned before any connection is attempted.
	ErrDatabaseNotFound = errors.New("database file not found")
	// ErrCancelled means the confirmation did not match ConfirmationToken.
	ErrCancelled = errors.New("operation cancelled")
	// ErrNoConfirmation means stdin closed before a line was read.
	ErrNoConfirmation = errors.New("no confirmation received")
	// ErrInterrupted means the run was cancelled while waiting for the confirmation.
	ErrInterrupted = errors.New("interrupted while waiting for confirmation")
)

// Store is the part of the database the deleter needs.
type Store interface {
	CountTranslations(ctx context.Context) (int64, error)
	BeginTx(ctx context.Context) (Tx, error)
	Close() error
}

// Tx is the transaction the delete runs in.
type Tx interface {
	DeleteAllTranslations(ctx context.Context) (int64, error)
	Commit() error
	Rollback() error
}

// Opener connects to the database at path.
type Opener func(ctx context.Context, path string) (Store, error)

// SQLiteOpener opens path read-write with the named driver.
func SQLiteOpener(driver string) Opener {
	return func(ctx context.Context, path string) (Store, error) {
		db, err := storage.OpenReadWrite(ctx, path, driver)
		if err != nil {
			return nil, err
		}
		return sqliteStore{db}, nil
	}
}

type sqliteStore struct {
	*storage.DB
}

func (s sqliteStore) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.DB.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// Result describes how a run ended.
type Result struct {
	State   State
	Before  int64
	Deleted int64
	After   int64
	Err     error
}

// Success reports whether the run ended in a successful terminal state.
func (r Result) Success() bool {
	return r.State == StateClosed || r.State == StateEmptyExit
}

// Deleter runs one confirmed deletion of every translation.
type Deleter struct {
	path   string
	open   Opener
	in     *bufio.Reader
	out    io.Writer
	logger *slog.Logger
}

// New returns a Deleter reading the confirmation from in and reporting to out.
func New(path string, open Opener, in io.Reader, out io.Writer, logger *slog.Logger) *Deleter {
	return &Deleter{
		path:   path,
		open:   open,
		in:     bufio.NewReader(in),
		out:    out,
		logger: logger,
	}
}

// session holds what has to be released when the run ends.
type session struct {
	store Store
	tx    Tx
}

// Run walks the deletion through its states. It never panics and never
// returns with the connection still open.
func (d *Deleter) Run(ctx context.Context) (res Result) {
	d.transition(&res, StateFileCheck)
	info, err := os.Stat(d.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			d.printf("Error: Database file '%s' not found.\n", d.path)
			d.printf("Please make sure the database file exists in the current directory.\n")
			d.logger.Error("Database file not found", "path", d.path)
			res.Err = fmt.Errorf("%w: %s", ErrDatabaseNotFound, d.path)
			d.transition(&res, StateFailed)
			return res
		}
		d.printf("Unexpected error: %v\n", err)
		res.Err = err
		d.transition(&res, StateFailed)
		return res
	}

	var s session
	defer func() {
		if r := recover(); r != nil {
			d.abort(&res, &s, fmt.Errorf("panic: %v", r))
		}
	}()

	d.printf("Connecting to database: %s\n", d.path)
	d.logger.Info("Opening database", "path", d.path, "size", humanize.Bytes(uint64(info.Size())))
	if err := d.execute(ctx, &res, &s); err != nil {
		d.abort(&res, &s, err)
	}
	return res
}

func (d *Deleter) execute(ctx context.Context, res *Result, s *session) error {
	store, err := d.open(ctx, d.path)
	if err != nil {
		return err
	}
	s.store = store
	d.transition(res, StateConnected)

	before, err := store.CountTranslations(ctx)
	if err != nil {
		return err
	}
	res.Before = before
	d.transition(res, StateCounted)
	d.printf("Found %d translations in words_translations table\n", before)

	if before == 0 {
		d.printf("No translations found to delete.\n")
		d.closeStore(s)
		d.transition(res, StateEmptyExit)
		return nil
	}

	d.transition(res, StateAwaitConfirmation)
	d.printf("\nWARNING: This will permanently delete all %d translations!\n", before)
	d.printf("Are you sure you want to proceed? (type '%s' to confirm): ", ConfirmationToken)
	answer, err := d.readConfirmation(ctx)
	if err != nil {
		return err
	}
	if answer != ConfirmationToken {
		d.printf("Operation cancelled.\n")
		d.logger.Info("Deletion cancelled by operator", "pending", before)
		d.closeStore(s)
		res.Err = ErrCancelled
		d.transition(res, StateCancelled)
		return nil
	}

	d.transition(res, StateDeleting)
	d.printf("Deleting all translations from words_translations table...\n")
	tx, err := store.BeginTx(ctx)
	if err != nil {
		return err
	}
	s.tx = tx

	deleted, err := tx.DeleteAllTranslations(ctx)
	if err != nil {
		return err
	}
	res.Deleted = deleted

	if err := tx.Commit(); err != nil {
		return err
	}
	s.tx = nil

	after, err := store.CountTranslations(ctx)
	if err != nil {
		return err
	}
	res.After = after
	d.transition(res, StateVerified)
	d.printf("Successfully deleted %d translations\n", deleted)
	d.printf("Remaining translations in table: %d\n", after)
	d.logger.Info("Translations deleted", "deleted", deleted, "remaining", after)

	d.closeStore(s)
	d.transition(res, StateClosed)
	d.printf("Database connection closed.\n")
	d.printf("Operation completed successfully!\n")
	return nil
}

type readResult struct {
	line string
	err  error
}

// readConfirmation returns one line of input without its line terminator.
// Nothing else is trimmed: " YES" is not the token. Cancelling ctx abandons
// the blocked read.
func (d *Deleter) readConfirmation(ctx context.Context) (string, error) {
	done := make(chan readResult, 1)
	go func() {
		line, err := d.in.ReadString('\n')
		done <- readResult{line: line, err: err}
	}()

	var r readResult
	select {
	case <-ctx.Done():
		d.printf("\n")
		return "", fmt.Errorf("%w: %w", ErrInterrupted, ctx.Err())
	case r = <-done:
	}

	if r.err != nil && !(errors.Is(r.err, io.EOF) && r.line != "") {
		if errors.Is(r.err, io.EOF) {
			return "", ErrNoConfirmation
		}
		return "", fmt.Errorf("failed to read confirmation: %w", r.err)
	}
	line := strings.TrimSuffix(r.line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, nil
}

// abort reports err and releases the session. Storage failures roll back the
// open transaction first; any other failure only closes the connection.
func (d *Deleter) abort(res *Result, s *session, err error) {
	if storage.IsStorageError(err) {
		var serr *storage.Error
		errors.As(err, &serr)
		d.printf("Database error: %v\n", err)
		d.logger.Error("Database error", "error", err, "sqlite_code", serr.Code())
		if s.tx != nil {
			if rbErr := s.tx.Rollback(); rbErr != nil {
				d.logger.Warn("Rollback failed", "error", rbErr)
			}
			s.tx = nil
		}
	} else {
		d.printf("Unexpected error: %v\n", err)
		d.logger.Error("Unexpected error", "error", err)
	}
	d.closeStore(s)
	res.Err = err
	d.transition(res, StateFailed)
}

func (d *Deleter) closeStore(s *session) {
	if s.store == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		d.logger.Warn("Failed to close database", "error", err)
	}
	s.store = nil
}

func (d *Deleter) transition(res *Result, to State) {
	d.logger.Debug("State transition", "from", res.State, "to", to)
	res.State = to
	if to.Terminal() {
		d.logger.Info("Deletion run finished", "state", to, "before", res.Before, "deleted", res.Deleted, "after", res.After)
	}
}

func (d *Deleter) printf(format string, args ...any) {
	fmt.Fprintf(d.out, format, args...)
}
