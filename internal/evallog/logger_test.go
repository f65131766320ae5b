package evallog

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_Record(t *testing.T) {
	path := t.TempDir() + "/eval.jsonl"
	logger, err := NewLogger(path)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, logger.Record(ctx, "q1", "a1", "local", 0.42, []string{"policy.txt"}))
	require.NoError(t, logger.Record(ctx, "q2", "a2", "web", 1.1, nil))

	records := readRecords(t, path)
	require.Len(t, records, 2)

	assert.Equal(t, "q1", records[0].Question)
	assert.Equal(t, "local", records[0].Source)
	assert.Equal(t, []string{"policy.txt"}, records[0].Citations)
	assert.NotEmpty(t, records[0].Timestamp)

	// nil citations are written as an empty array, not null.
	assert.NotNil(t, records[1].Citations)
	assert.Empty(t, records[1].Citations)
}

func TestLogger_ConcurrentRecords(t *testing.T) {
	path := t.TempDir() + "/eval.jsonl"
	logger, err := NewLogger(path)
	require.NoError(t, err)

	const writers = 10
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			_ = logger.Record(context.Background(), "q", "a", "local", 0.1, nil)
		}()
	}
	wg.Wait()

	assert.Len(t, readRecords(t, path), writers)
}

func TestNewLogger_CreatesParentDir(t *testing.T) {
	path := t.TempDir() + "/nested/dir/eval.jsonl"
	logger, err := NewLogger(path)
	require.NoError(t, err)
	require.NoError(t, logger.Record(context.Background(), "q", "a", "llm", 0.1, nil))
}

func readRecords(t *testing.T, path string) []Record {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() {
		_ = f.Close()
	}()

	var records []Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var r Record
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &r), "line %q", scanner.Text())
		records = append(records, r)
	}
	require.NoError(t, scanner.Err())
	return records
}
