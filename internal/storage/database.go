package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/conorfennell/vocabdb/internal/domain"
	_ "github.com/mattn/go-sqlite3" // Registers the cgo "sqlite3" driver
	_ "modernc.org/sqlite"          // Registers the pure-Go "sqlite" driver
)

const (
	// DriverModernc is the pure-Go driver and the default.
	DriverModernc = "sqlite"
	// DriverCgo is github.com/mattn/go-sqlite3 and needs cgo.
	DriverCgo = "sqlite3"
)

// Options controls how a database file is opened.
type Options struct {
	Path     string
	Driver   string
	ReadOnly bool
}

// DB represents a wrapper around the SQL database connection.
type DB struct {
	conn *sql.DB
}

// Open connects to an existing database file. The file is never created:
// a missing path fails with a *Error instead of leaving an empty database behind.
func Open(ctx context.Context, opts Options) (*DB, error) {
	driver := opts.Driver
	if driver == "" {
		driver = DriverModernc
	}

	conn, err := sql.Open(driver, dsn(opts.Path, opts.ReadOnly))
	if err != nil {
		return nil, &Error{Op: "open database", Err: err}
	}
	// One connection per run; every statement and the delete transaction share it.
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, &Error{Op: "connect to database", Err: err}
	}

	return &DB{conn: conn}, nil
}

// OpenReadOnly opens path for the inspection queries.
func OpenReadOnly(ctx context.Context, path, driver string) (*DB, error) {
	return Open(ctx, Options{Path: path, Driver: driver, ReadOnly: true})
}

// OpenReadWrite opens path for maintenance operations that modify tables.
func OpenReadWrite(ctx context.Context, path, driver string) (*DB, error) {
	return Open(ctx, Options{Path: path, Driver: driver})
}

var uriEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

func dsn(path string, readOnly bool) string {
	mode := "rw"
	if readOnly {
		mode = "ro"
	}
	return fmt.Sprintf("file:%s?mode=%s", uriEscaper.Replace(path), mode)
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db == nil || db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// CountConversationLines returns the number of rows in conversation_lines.
func (db *DB) CountConversationLines(ctx context.Context) (int64, error) {
	var n int64
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversation_lines`).Scan(&n); err != nil {
		return 0, &Error{Op: "count conversation lines", Err: err}
	}
	return n, nil
}

// SampleConversationWordIDs returns up to limit distinct word ids that have
// at least one conversation line, in the order the database yields them.
func (db *DB) SampleConversationWordIDs(ctx context.Context, limit int) ([]int64, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT DISTINCT word_id
		FROM conversation_lines
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, &Error{Op: "sample conversation word ids", Err: err}
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, &Error{Op: "scan conversation word id", Err: err}
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, &Error{Op: "sample conversation word ids", Err: err}
	}
	return ids, nil
}

// ConversationLinesForWord retrieves the dialogue of a word ordered by line_order.
func (db *DB) ConversationLinesForWord(ctx context.Context, wordID int64) ([]domain.ConversationLine, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, speaker_label, line_order, text
		FROM conversation_lines
		WHERE word_id = ?
		ORDER BY line_order
	`, wordID)
	if err != nil {
		return nil, &Error{Op: fmt.Sprintf("get conversation lines for word %d", wordID), Err: err}
	}
	defer rows.Close()

	var lines []domain.ConversationLine
	for rows.Next() {
		var (
			line    domain.ConversationLine
			speaker sql.NullString
			order   sql.NullInt64
			text    sql.NullString
		)
		if err := rows.Scan(&line.ID, &speaker, &order, &text); err != nil {
			return nil, &Error{Op: fmt.Sprintf("scan conversation line for word %d", wordID), Err: err}
		}
		line.WordID = wordID
		line.SpeakerLabel = speaker.String
		line.LineOrder = order.Int64
		line.Text = text.String
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, &Error{Op: fmt.Sprintf("get conversation lines for word %d", wordID), Err: err}
	}
	return lines, nil
}

// CountTranslations returns the number of rows in words_translations.
// The table is treated as opaque: no column is referenced.
func (db *DB) CountTranslations(ctx context.Context) (int64, error) {
	var n int64
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM words_translations`).Scan(&n); err != nil {
		return 0, &Error{Op: "count translations", Err: err}
	}
	return n, nil
}

// Tx is a write transaction on the database.
type Tx struct {
	tx *sql.Tx
}

// BeginTx starts a transaction on the single connection.
func (db *DB) BeginTx(ctx context.Context) (*Tx, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, &Error{Op: "begin transaction", Err: err}
	}
	return &Tx{tx: tx}, nil
}

// DeleteAllTranslations removes every row of words_translations and returns
// the number of rows the statement itself reports as affected.
func (t *Tx) DeleteAllTranslations(ctx context.Context) (int64, error) {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM words_translations`)
	if err != nil {
		return 0, &Error{Op: "delete translations", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &Error{Op: "get deleted translation count", Err: err}
	}
	return n, nil
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return &Error{Op: "commit transaction", Err: err}
	}
	return nil
}

// Rollback aborts the transaction.
func (t *Tx) Rollback() error {
	if err := t.tx.Rollback(); err != nil {
		return &Error{Op: "rollback transaction", Err: err}
	}
	return nil
}
