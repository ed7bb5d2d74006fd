package inspect

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/conorfennell/vocabdb/internal/domain"
	"github.com/conorfennell/vocabdb/internal/storage"
	"github.com/conorfennell/vocabdb/internal/storage/storagetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource records which queries were issued.
type fakeSource struct {
	total    int64
	ids      []int64
	lines    map[int64][]domain.ConversationLine
	countErr error

	calls []string
}

func (f *fakeSource) CountConversationLines(ctx context.Context) (int64, error) {
	f.calls = append(f.calls, "count")
	return f.total, f.countErr
}

func (f *fakeSource) SampleConversationWordIDs(ctx context.Context, limit int) ([]int64, error) {
	f.calls = append(f.calls, "sample")
	if len(f.ids) > limit {
		return f.ids[:limit], nil
	}
	return f.ids, nil
}

func (f *fakeSource) ConversationLinesForWord(ctx context.Context, wordID int64) ([]domain.ConversationLine, error) {
	f.calls = append(f.calls, "lines")
	return f.lines[wordID], nil
}

func TestRunEmpty(t *testing.T) {
	src := &fakeSource{}
	var out bytes.Buffer

	report, err := Run(context.Background(), src, &out, 5)
	require.NoError(t, err)

	assert.Equal(t, int64(0), report.Total)
	assert.Empty(t, report.SampleWordIDs)
	assert.Equal(t, []string{"count"}, src.calls, "no query after an empty count")
	assert.Equal(t,
		"Total conversation lines in database: 0\nNo conversation lines found in the database\n",
		out.String())
}

func TestRunReport(t *testing.T) {
	src := &fakeSource{
		total: 3,
		ids:   []int64{12, 4},
		lines: map[int64][]domain.ConversationLine{
			12: {
				{ID: 31, WordID: 12, SpeakerLabel: "A", LineOrder: 1, Text: "Is the mortgage approved?"},
				{ID: 30, WordID: 12, SpeakerLabel: "B", LineOrder: 2, Text: "Yes, this morning."},
			},
		},
	}
	var out bytes.Buffer

	report, err := Run(context.Background(), src, &out, 5)
	require.NoError(t, err)

	assert.Equal(t, int64(12), report.WordID)
	assert.Equal(t, []int64{12, 4}, report.SampleWordIDs)
	assert.Len(t, report.Lines, 2)

	want := strings.Join([]string{
		"Total conversation lines in database: 3",
		"Words with conversations: [12, 4]",
		"",
		"Checking conversations for word ID: 12",
		"",
		"Found 2 conversation lines:",
		strings.Repeat("-", 80),
		"ID: 31, Speaker: A, Order: 1",
		"Text: Is the mortgage approved?",
		strings.Repeat("-", 40),
		"ID: 30, Speaker: B, Order: 2",
		"Text: Yes, this morning.",
		strings.Repeat("-", 40),
		"",
	}, "\n")
	assert.Equal(t, want, out.String())
}

func TestRunErrors(t *testing.T) {
	t.Run("count error propagates", func(t *testing.T) {
		boom := errors.New("disk gone")
		src := &fakeSource{countErr: boom}

		report, err := Run(context.Background(), src, &bytes.Buffer{}, 5)
		assert.ErrorIs(t, err, boom)
		assert.Nil(t, report)
	})

	t.Run("lines without sample", func(t *testing.T) {
		src := &fakeSource{total: 1}

		_, err := Run(context.Background(), src, &bytes.Buffer{}, 5)
		assert.ErrorIs(t, err, ErrNoSample)
	})
}

func TestRunAgainstDatabase(t *testing.T) {
	ctx := context.Background()

	var lines []domain.ConversationLine
	for word := int64(1); word <= 8; word++ {
		// inserted in reverse order so the ORDER BY is what sorts them
		for order := int64(4); order >= 1; order-- {
			lines = append(lines, domain.ConversationLine{
				WordID:       word,
				SpeakerLabel: "Speaker",
				LineOrder:    order,
				Text:         "line",
			})
		}
	}
	path := storagetest.NewDatabase(t, storagetest.Fixture{Lines: lines})

	db, err := storage.OpenReadOnly(ctx, path, storage.DriverModernc)
	require.NoError(t, err)
	defer db.Close()

	var out bytes.Buffer
	report, err := Run(ctx, db, &out, 5)
	require.NoError(t, err)

	assert.Equal(t, int64(32), report.Total)
	assert.LessOrEqual(t, len(report.SampleWordIDs), 5)
	seen := map[int64]bool{}
	for _, id := range report.SampleWordIDs {
		assert.GreaterOrEqual(t, id, int64(1))
		assert.LessOrEqual(t, id, int64(8))
		assert.False(t, seen[id], "duplicate sampled id %d", id)
		seen[id] = true
	}

	require.Len(t, report.Lines, 4)
	for i := 1; i < len(report.Lines); i++ {
		assert.LessOrEqual(t, report.Lines[i-1].LineOrder, report.Lines[i].LineOrder)
	}
	assert.Contains(t, out.String(), "Found 4 conversation lines:")
}

func TestRunAgainstEmptyDatabase(t *testing.T) {
	ctx := context.Background()
	path := storagetest.NewDatabase(t, storagetest.Fixture{})

	db, err := storage.OpenReadOnly(ctx, path, storage.DriverModernc)
	require.NoError(t, err)
	defer db.Close()

	var out bytes.Buffer
	report, err := Run(ctx, db, &out, 5)
	require.NoError(t, err)
	assert.Zero(t, report.Total)
	assert.Contains(t, out.String(), "No conversation lines found in the database")
}

func TestRunMissingTable(t *testing.T) {
	ctx := context.Background()
	path := storagetest.NewDatabase(t, storagetest.Fixture{WithoutConversationLines: true})

	db, err := storage.OpenReadOnly(ctx, path, storage.DriverModernc)
	require.NoError(t, err)
	defer db.Close()

	_, err = Run(ctx, db, &bytes.Buffer{}, 5)
	require.Error(t, err)
	assert.True(t, storage.IsStorageError(err))
}
