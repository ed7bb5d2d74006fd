// Package inspect prints a summary of the dialogue lines stored for vocabulary words.
package inspect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/conorfennell/vocabdb/internal/domain"
)

// Source is the read side of the vocabulary database used by Run.
type Source interface {
	CountConversationLines(ctx context.Context) (int64, error)
	SampleConversationWordIDs(ctx context.Context, limit int) ([]int64, error)
	ConversationLinesForWord(ctx context.Context, wordID int64) ([]domain.ConversationLine, error)
}

// Report is what Run found. WordID and Lines are only set when Total > 0.
type Report struct {
	Total         int64
	SampleWordIDs []int64
	WordID        int64
	Lines         []domain.ConversationLine
}

// ErrNoSample is returned when lines exist but no word id could be sampled.
var ErrNoSample = errors.New("no word ids sampled from conversation_lines")

var (
	wideRule   = strings.Repeat("-", 80)
	narrowRule = strings.Repeat("-", 40)
)

// Run counts the conversation lines, samples up to sampleSize word ids and
// prints the ordered dialogue of the first sampled word to w.
func Run(ctx context.Context, src Source, w io.Writer, sampleSize int) (*Report, error) {
	total, err := src.CountConversationLines(ctx)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(w, "Total conversation lines in database: %d\n", total)

	report := &Report{Total: total}
	if total == 0 {
		fmt.Fprintln(w, "No conversation lines found in the database")
		return report, nil
	}

	ids, err := src.SampleConversationWordIDs(ctx, sampleSize)
	if err != nil {
		return nil, err
	}
	report.SampleWordIDs = ids
	fmt.Fprintf(w, "Words with conversations: %s\n", formatIDs(ids))
	if len(ids) == 0 {
		return nil, ErrNoSample
	}

	report.WordID = ids[0]
	fmt.Fprintf(w, "\nChecking conversations for word ID: %d\n", report.WordID)

	lines, err := src.ConversationLinesForWord(ctx, report.WordID)
	if err != nil {
		return nil, err
	}
	report.Lines = lines

	fmt.Fprintf(w, "\nFound %d conversation lines:\n", len(lines))
	fmt.Fprintln(w, wideRule)
	for _, l := range lines {
		fmt.Fprintf(w, "ID: %d, Speaker: %s, Order: %d\n", l.ID, l.SpeakerLabel, l.LineOrder)
		fmt.Fprintf(w, "Text: %s\n", l.Text)
		fmt.Fprintln(w, narrowRule)
	}
	return report, nil
}

// formatIDs renders ids as [1, 2, 3].
func formatIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
