package history

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/LuisArmando-TestCoder/dreamcmd/internal/executor"
	"github.com/LuisArmando-TestCoder/dreamcmd/internal/repair"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func openTestJournal(t *testing.T) (*Journal, string, string) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "history.db")
	versionPath := filepath.Join(dir, "history_schema_version")

	journal, err := Open(dbPath, versionPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = journal.Close() })
	return journal, dbPath, versionPath
}

func TestOpenWritesSchemaVersion(t *testing.T) {
	_, _, versionPath := openTestJournal(t)

	data, err := os.ReadFile(versionPath)
	require.NoError(t, err)
	assert.Equal(t, "1", string(data))
}

func TestOpenRestoresMissingTable(t *testing.T) {
	journal, dbPath, versionPath := openTestJournal(t)
	require.NoError(t, journal.db.Migrator().DropTable(&Entry{}))
	require.NoError(t, journal.Close())

	reopened, err := Open(dbPath, versionPath)
	require.NoError(t, err)
	defer reopened.Close()

	require.NoError(t, reopened.Record(&Entry{Intent: "x", Command: "ls"}))
}

func TestOpenMigratesOnVersionMismatch(t *testing.T) {
	journal, dbPath, versionPath := openTestJournal(t)
	require.NoError(t, journal.Close())
	require.NoError(t, os.WriteFile(versionPath, []byte("0"), 0644))

	reopened, err := Open(dbPath, versionPath)
	require.NoError(t, err)
	defer reopened.Close()

	data, err := os.ReadFile(versionPath)
	require.NoError(t, err)
	assert.Equal(t, "1", string(data))
}

func TestRecordAndRecent(t *testing.T) {
	journal, _, _ := openTestJournal(t)

	for i, cmd := range []string{"first", "second", "third"} {
		require.NoError(t, journal.Record(&Entry{RunID: "r", Intent: "do", Attempt: i + 1, Command: cmd}))
	}

	entries, err := journal.Recent(2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "second", entries[0].Command)
	assert.Equal(t, "third", entries[1].Command)
}

func TestRecordTruncatesStderr(t *testing.T) {
	journal, _, _ := openTestJournal(t)

	require.NoError(t, journal.Record(&Entry{Command: "noisy", Stderr: strings.Repeat("e", maxStoredStderr*2)}))

	entries, err := journal.Recent(1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Len(t, entries[0].Stderr, maxStoredStderr)
}

func TestRecordTruncatesOnRuneBoundary(t *testing.T) {
	journal, _, _ := openTestJournal(t)

	stderr := strings.Repeat("a", maxStoredStderr-1) + "é"
	require.NoError(t, journal.Record(&Entry{Command: "accents", Stderr: stderr}))

	entries, err := journal.Recent(1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, utf8.ValidString(entries[0].Stderr))
	assert.Equal(t, strings.Repeat("a", maxStoredStderr-1), entries[0].Stderr)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "ab", truncate("abcd", 2))
	assert.Equal(t, "a", truncate("a日本", 3))
	assert.Equal(t, "a日", truncate("a日本", 4))
	assert.Equal(t, "", truncate("日本", 2))
}

func TestRecorderJournalsAttempts(t *testing.T) {
	journal, _, _ := openTestJournal(t)
	recorder := NewRecorder(journal, "list files", zaptest.NewLogger(t))

	recorder.OnResult(repair.Attempt{
		Number:  1,
		Command: "lsx",
		Result:  executor.Result{Stderr: "lsx: not found", ExitCode: 127},
	})
	recorder.OnResult(repair.Attempt{
		Number:  2,
		Command: "ls",
		Result:  executor.Result{Stdout: "a b"},
	})

	entries, err := journal.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "list files", entries[0].Intent)
	assert.Equal(t, 1, entries[0].Attempt)
	assert.Equal(t, 127, entries[0].ExitCode)
	assert.False(t, entries[0].Success)
	assert.Equal(t, "lsx: not found", entries[0].Stderr)

	assert.Equal(t, 2, entries[1].Attempt)
	assert.True(t, entries[1].Success)
	assert.Equal(t, entries[0].RunID, entries[1].RunID)
}

func TestPrint(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("empty", func(t *testing.T) {
		var buf bytes.Buffer
		Print(&buf, nil, now)
		assert.Equal(t, "No history yet.\n", buf.String())
	})

	t.Run("entries", func(t *testing.T) {
		var buf bytes.Buffer
		Print(&buf, []Entry{
			{ID: 1, CreatedAt: now.Add(-3 * time.Minute), Intent: "list files", Attempt: 1, Command: "lsx", ExitCode: 127},
			{ID: 2, CreatedAt: now.Add(-2 * time.Hour), Intent: "list files", Attempt: 2, Command: "cd /tmp\nls", Success: true},
		}, now)

		out := buf.String()
		assert.Contains(t, out, "3 minutes ago")
		assert.Contains(t, out, "exit 127")
		assert.Contains(t, out, "2 hours ago")
		assert.Contains(t, out, "cd /tmp ; ls")
		assert.Contains(t, out, `attempt 2 of "list files"`)
	})
}
