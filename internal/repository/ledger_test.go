package repository

import (
	"path/filepath"
	"sitemirror/internal/db"
	"sitemirror/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) {
	t.Helper()
	require.NoError(t, db.Init(filepath.Join(t.TempDir(), "test.db")))
}

func TestLedgerLoadEmpty(t *testing.T) {
	setupDB(t)
	repo := NewLedgerRepository()

	ledger, err := repo.Load("proj")
	require.NoError(t, err)
	assert.Empty(t, ledger)
}

func TestLedgerUpsertReplaces(t *testing.T) {
	setupDB(t)
	repo := NewLedgerRepository()

	entry := model.LedgerEntry{
		Site:       "proj",
		ServerPath: "/sites/Proj/Shared Documents/a.txt",
		LocalPath:  "/mirror/proj/Shared Documents/a.txt",
		Status:     model.StatusFailed,
		Message:    "connection reset",
	}
	require.NoError(t, repo.Upsert(&entry))

	replacement := model.LedgerEntry{
		Site:       "proj",
		ServerPath: entry.ServerPath,
		LocalPath:  entry.LocalPath,
		Status:     model.StatusSuccess,
	}
	require.NoError(t, repo.Upsert(&replacement))

	ledger, err := repo.Load("proj")
	require.NoError(t, err)
	require.Len(t, ledger, 1)

	got := ledger[entry.ServerPath]
	assert.Equal(t, model.StatusSuccess, got.Status)
	assert.Empty(t, got.Message)
	assert.False(t, got.LastChecked.IsZero())
}

func TestLedgerSiteIsolation(t *testing.T) {
	setupDB(t)
	repo := NewLedgerRepository()

	// The same server path under two sites is two independent entries.
	for _, site := range []string{"proj", "other"} {
		entry := model.LedgerEntry{
			Site:       site,
			ServerPath: "/sites/Proj/Shared Documents/a.txt",
			LocalPath:  "/mirror/" + site + "/Shared Documents/a.txt",
			Status:     model.StatusSuccess,
		}
		require.NoError(t, repo.Upsert(&entry))
	}

	ledger, err := repo.Load("proj")
	require.NoError(t, err)
	assert.Len(t, ledger, 1)
}

func TestLedgerReopen(t *testing.T) {
	setupDB(t)
	repo := NewLedgerRepository()

	entry := model.LedgerEntry{
		Site:       "proj",
		ServerPath: "/sites/Proj/Shared Documents/a.txt",
		LocalPath:  "/mirror/proj/Shared Documents/a.txt",
		Status:     model.StatusSuccess,
	}
	require.NoError(t, repo.Upsert(&entry))

	rows, err := repo.Reopen(entry.LocalPath, "removed from mirror")
	require.NoError(t, err)
	assert.EqualValues(t, 1, rows)

	ledger, err := repo.Load("proj")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, ledger[entry.ServerPath].Status)
	assert.Equal(t, "removed from mirror", ledger[entry.ServerPath].Message)

	// Reopening an already pending entry is a no-op.
	rows, err = repo.Reopen(entry.LocalPath, "removed from mirror")
	require.NoError(t, err)
	assert.EqualValues(t, 0, rows)
}

func TestLedgerStats(t *testing.T) {
	setupDB(t)
	repo := NewLedgerRepository()

	statuses := []model.TransferStatus{
		model.StatusSuccess, model.StatusSuccess, model.StatusFailed, model.StatusPending,
	}
	for i, status := range statuses {
		entry := model.LedgerEntry{
			Site:       "proj",
			ServerPath: "/sites/Proj/f" + string(rune('a'+i)) + ".txt",
			LocalPath:  "/mirror/proj/f.txt",
			Status:     status,
		}
		require.NoError(t, repo.Upsert(&entry))
	}

	stats, err := repo.Stats("proj")
	require.NoError(t, err)
	assert.EqualValues(t, 4, stats.Total)
	assert.EqualValues(t, 2, stats.Success)
	assert.EqualValues(t, 1, stats.Failed)
	assert.EqualValues(t, 1, stats.Pending)
}
