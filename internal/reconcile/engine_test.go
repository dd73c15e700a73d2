package reconcile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sitemirror/internal/model"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSite   = "proj"
	testPrefix = "/sites/Proj"
)

type memLedger struct {
	entries  map[string]model.LedgerEntry
	failures int // induced consecutive Upsert failures
}

func newMemLedger() *memLedger {
	return &memLedger{entries: make(map[string]model.LedgerEntry)}
}

func (l *memLedger) Load(site string) (map[string]model.LedgerEntry, error) {
	out := make(map[string]model.LedgerEntry, len(l.entries))
	for k, v := range l.entries {
		out[k] = v
	}

	return out, nil
}

func (l *memLedger) Upsert(entry *model.LedgerEntry) error {
	if l.failures > 0 {
		l.failures--
		return errors.New("disk full")
	}

	l.entries[entry.ServerPath] = *entry
	return nil
}

type fakeFetcher struct {
	fail  map[string]error
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, serverPath, localPath string) error {
	f.calls = append(f.calls, serverPath)
	if err, ok := f.fail[serverPath]; ok {
		return err
	}

	// Write as many bytes as the inventory advertises for the file so
	// recheck's length comparison sees a faithful transfer.
	size := testSizes[serverPath]
	return os.WriteFile(localPath, []byte(strings.Repeat("x", size)), 0644)
}

var testSizes = map[string]int{
	testPrefix + "/Shared Documents/a.txt": 10,
	testPrefix + "/Shared Documents/b.txt": 20,
	testPrefix + "/Shared Documents/c.txt": 30,
}

func testRecords() []model.InventoryRecord {
	names := []string{"a.txt", "b.txt", "c.txt"}

	records := make([]model.InventoryRecord, 0, len(names))
	for _, name := range names {
		serverPath := testPrefix + "/Shared Documents/" + name
		records = append(records, model.InventoryRecord{
			Site:       testSite,
			ServerPath: serverPath,
			FileName:   name,
			SizeBytes:  uint64(testSizes[serverPath]),
			Library:    "Shared Documents",
		})
	}

	return records
}

func newTestEngine(t *testing.T, ledger Ledger, fetcher Fetcher) (*Engine, string) {
	t.Helper()
	base := t.TempDir()
	return NewEngine(testSite, testPrefix, base, ledger, fetcher), base
}

func TestSyncRecordsOutcomes(t *testing.T) {
	records := testRecords()
	ledger := newMemLedger()
	fetcher := &fakeFetcher{fail: map[string]error{
		records[1].ServerPath: errors.New("connection reset"),
	}}

	engine, base := newTestEngine(t, ledger, fetcher)

	summary, err := engine.Run(context.Background(), records, model.ModeSync)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Fetched)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 0, summary.Skipped)

	assert.Equal(t, model.StatusSuccess, ledger.entries[records[0].ServerPath].Status)
	assert.Equal(t, model.StatusFailed, ledger.entries[records[1].ServerPath].Status)
	assert.Equal(t, model.StatusSuccess, ledger.entries[records[2].ServerPath].Status)
	assert.Contains(t, ledger.entries[records[1].ServerPath].Message, "connection reset")
	assert.Empty(t, ledger.entries[records[0].ServerPath].Message)

	wantPath := filepath.Join(base, "Shared Documents", "a.txt")
	assert.Equal(t, wantPath, ledger.entries[records[0].ServerPath].LocalPath)
	assert.FileExists(t, wantPath)

	// Resume fetches only the failed file.
	fetcher.fail = nil
	fetcher.calls = nil

	summary, err = engine.Run(context.Background(), records, model.ModeResume)
	require.NoError(t, err)

	assert.Equal(t, []string{records[1].ServerPath}, fetcher.calls)
	assert.Equal(t, 1, summary.Fetched)
	assert.Equal(t, 2, summary.Skipped)
	assert.Equal(t, model.StatusSuccess, ledger.entries[records[1].ServerPath].Status)
}

func TestSyncIdempotent(t *testing.T) {
	records := testRecords()
	ledger := newMemLedger()
	fetcher := &fakeFetcher{}

	engine, _ := newTestEngine(t, ledger, fetcher)

	_, err := engine.Run(context.Background(), records, model.ModeSync)
	require.NoError(t, err)

	fetcher.calls = nil
	summary, err := engine.Run(context.Background(), records, model.ModeSync)
	require.NoError(t, err)

	assert.Empty(t, fetcher.calls)
	assert.Equal(t, len(records), summary.Skipped)
}

func TestResumeConvergence(t *testing.T) {
	records := testRecords()
	ledger := newMemLedger()
	ledger.entries[records[0].ServerPath] = model.LedgerEntry{
		Site: testSite, ServerPath: records[0].ServerPath, Status: model.StatusSuccess,
	}
	ledger.entries[records[1].ServerPath] = model.LedgerEntry{
		Site: testSite, ServerPath: records[1].ServerPath, Status: model.StatusFailed,
	}
	ledger.entries[records[2].ServerPath] = model.LedgerEntry{
		Site: testSite, ServerPath: records[2].ServerPath, Status: model.StatusPending,
	}

	fetcher := &fakeFetcher{}
	engine, _ := newTestEngine(t, ledger, fetcher)

	summary, err := engine.Run(context.Background(), records, model.ModeResume)
	require.NoError(t, err)

	assert.ElementsMatch(t,
		[]string{records[1].ServerPath, records[2].ServerPath}, fetcher.calls)
	assert.Equal(t, 2, summary.Fetched)
	assert.Equal(t, 1, summary.Skipped)

	for _, record := range records {
		assert.Equal(t, model.StatusSuccess, ledger.entries[record.ServerPath].Status)
	}
}

func TestRecheckDetectsDrift(t *testing.T) {
	records := testRecords()
	ledger := newMemLedger()
	fetcher := &fakeFetcher{}

	engine, base := newTestEngine(t, ledger, fetcher)

	_, err := engine.Run(context.Background(), records, model.ModeSync)
	require.NoError(t, err)

	// Delete one mirrored file, truncate another, leave the third alone.
	missing := filepath.Join(base, "Shared Documents", "a.txt")
	require.NoError(t, os.Remove(missing))

	truncated := filepath.Join(base, "Shared Documents", "b.txt")
	require.NoError(t, os.WriteFile(truncated, []byte("x"), 0644))

	fetcher.calls = nil
	summary, err := engine.Run(context.Background(), records, model.ModeRecheck)
	require.NoError(t, err)

	assert.ElementsMatch(t,
		[]string{records[0].ServerPath, records[1].ServerPath}, fetcher.calls)
	assert.Equal(t, 2, summary.Fetched)
	assert.Equal(t, 1, summary.Skipped)

	assert.FileExists(t, missing)

	info, err := os.Stat(truncated)
	require.NoError(t, err)
	assert.EqualValues(t, records[1].SizeBytes, info.Size())
}

func TestRecheckSkipsUnverifiedEntries(t *testing.T) {
	records := testRecords()
	ledger := newMemLedger()
	ledger.entries[records[0].ServerPath] = model.LedgerEntry{
		Site: testSite, ServerPath: records[0].ServerPath, Status: model.StatusFailed,
	}

	fetcher := &fakeFetcher{}
	engine, _ := newTestEngine(t, ledger, fetcher)

	summary, err := engine.Run(context.Background(), records, model.ModeRecheck)
	require.NoError(t, err)

	assert.Empty(t, fetcher.calls)
	assert.Equal(t, len(records), summary.Skipped)
}

func TestInterruptedRunResumes(t *testing.T) {
	records := testRecords()
	ledger := newMemLedger()
	fetcher := &fakeFetcher{}

	engine, _ := newTestEngine(t, ledger, fetcher)

	// Process only the first two files, as if the run died before the
	// third: the ledger holds terminal entries for the processed prefix
	// and nothing for the rest.
	_, err := engine.Run(context.Background(), records[:2], model.ModeSync)
	require.NoError(t, err)

	assert.Len(t, ledger.entries, 2)
	_, ok := ledger.entries[records[2].ServerPath]
	assert.False(t, ok)

	fetcher.calls = nil
	summary, err := engine.Run(context.Background(), records, model.ModeResume)
	require.NoError(t, err)

	assert.Equal(t, []string{records[2].ServerPath}, fetcher.calls)
	assert.Equal(t, 1, summary.Fetched)
	assert.Equal(t, 2, summary.Skipped)
}

func TestLedgerWriteRetriesOnce(t *testing.T) {
	records := testRecords()
	ledger := newMemLedger()
	ledger.failures = 1

	engine, _ := newTestEngine(t, ledger, &fakeFetcher{})

	summary, err := engine.Run(context.Background(), records, model.ModeSync)
	require.NoError(t, err)
	assert.Equal(t, len(records), summary.Fetched)
}

func TestLedgerWriteFailureAbortsRun(t *testing.T) {
	records := testRecords()
	ledger := newMemLedger()
	ledger.failures = 2 // first write and its retry both fail

	fetcher := &fakeFetcher{}
	engine, _ := newTestEngine(t, ledger, fetcher)

	_, err := engine.Run(context.Background(), records, model.ModeSync)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to persist ledger")

	// The run stopped at the first file; nothing else was attempted.
	assert.Equal(t, []string{records[0].ServerPath}, fetcher.calls)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	records := testRecords()
	engine, _ := newTestEngine(t, newMemLedger(), &fakeFetcher{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Run(ctx, records, model.ModeSync)
	assert.ErrorIs(t, err, context.Canceled)
}
