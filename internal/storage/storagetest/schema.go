package storagetest

// The tools never create these tables; fixtures mirror the shape of the
// vocabulary database they run against.
const (
	conversationLinesSchema = `
-- One row per utterance of the dialogue attached to a word.
CREATE TABLE IF NOT EXISTS conversation_lines (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    word_id INTEGER NOT NULL,
    speaker_label TEXT,
    line_order INTEGER NOT NULL,
    text TEXT
);
`

	translationsSchema = `
-- Translations of each word; opaque to the tools.
CREATE TABLE IF NOT EXISTS words_translations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    word_id INTEGER NOT NULL,
    language_code TEXT NOT NULL,
    translation TEXT NOT NULL
);
`
)
