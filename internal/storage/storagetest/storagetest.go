// Package storagetest builds throwaway vocabulary databases for tests.
package storagetest

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/conorfennell/vocabdb/internal/domain"
	_ "modernc.org/sqlite"
)

// Fixture describes the content of a test database.
type Fixture struct {
	Lines        []domain.ConversationLine
	Translations int

	// Without* leave the corresponding table out of the schema.
	WithoutConversationLines bool
	WithoutTranslations      bool
}

// NewDatabase writes fx into a fresh database file under t.TempDir and returns its path.
func NewDatabase(t testing.TB, fx Fixture) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "vocab.sqlite3")
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open fixture db: %v", err)
	}
	defer conn.Close()

	// Guarantees a valid database file even when no table is requested.
	mustExec(t, conn, `CREATE TABLE IF NOT EXISTS fixture_meta (k TEXT PRIMARY KEY, v TEXT)`)

	if !fx.WithoutConversationLines {
		mustExec(t, conn, conversationLinesSchema)
		for _, l := range fx.Lines {
			if l.ID != 0 {
				mustExec(t, conn, `INSERT INTO conversation_lines (id, word_id, speaker_label, line_order, text) VALUES (?, ?, ?, ?, ?)`,
					l.ID, l.WordID, l.SpeakerLabel, l.LineOrder, l.Text)
				continue
			}
			mustExec(t, conn, `INSERT INTO conversation_lines (word_id, speaker_label, line_order, text) VALUES (?, ?, ?, ?)`,
				l.WordID, l.SpeakerLabel, l.LineOrder, l.Text)
		}
	}

	if !fx.WithoutTranslations {
		mustExec(t, conn, translationsSchema)
		for i := 0; i < fx.Translations; i++ {
			mustExec(t, conn, `INSERT INTO words_translations (word_id, language_code, translation) VALUES (?, ?, ?)`,
				i+1, "es", fmt.Sprintf("traducción %d", i+1))
		}
	}

	return path
}

// CountRows counts the rows of table in the database at path, bypassing the code under test.
func CountRows(t testing.TB, path, table string) int64 {
	t.Helper()

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open fixture db: %v", err)
	}
	defer conn.Close()

	var n int64
	if err := conn.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func mustExec(t testing.TB, conn *sql.DB, query string, args ...any) {
	t.Helper()
	if _, err := conn.Exec(query, args...); err != nil {
		t.Fatalf("fixture exec %q: %v", query, err)
	}
}
