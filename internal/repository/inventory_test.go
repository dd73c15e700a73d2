package repository

import (
	"sitemirror/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventoryReplaceSitePreservesOrder(t *testing.T) {
	setupDB(t)
	repo := NewInventoryRepository()

	first := []model.InventoryRecord{
		{ServerPath: "/sites/Proj/Docs/b.txt", FileName: "b.txt", SizeBytes: 20, Library: "Docs"},
		{ServerPath: "/sites/Proj/Docs/a.txt", FileName: "a.txt", SizeBytes: 10, Library: "Docs"},
	}
	require.NoError(t, repo.ReplaceSite("proj", first))

	records, err := repo.GetBySite("proj")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "b.txt", records[0].FileName)
	assert.Equal(t, "a.txt", records[1].FileName)
	assert.Equal(t, "proj", records[0].Site)

	// A refresh replaces the snapshot wholesale.
	second := []model.InventoryRecord{
		{ServerPath: "/sites/Proj/Docs/c.txt", FileName: "c.txt", SizeBytes: 30, Library: "Docs"},
	}
	require.NoError(t, repo.ReplaceSite("proj", second))

	records, err = repo.GetBySite("proj")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "c.txt", records[0].FileName)
}

func TestInventoryLibraryStats(t *testing.T) {
	setupDB(t)
	repo := NewInventoryRepository()

	records := []model.InventoryRecord{
		{ServerPath: "/sites/Proj/Docs/a.txt", FileName: "a.txt", SizeBytes: 10, Library: "Docs"},
		{ServerPath: "/sites/Proj/Docs/b.txt", FileName: "b.txt", SizeBytes: 20, Library: "Docs"},
		{ServerPath: "/sites/Proj/Media/c.bin", FileName: "c.bin", SizeBytes: 30, Library: "Media"},
	}
	require.NoError(t, repo.ReplaceSite("proj", records))

	stats, err := repo.LibraryStats("proj")
	require.NoError(t, err)
	require.Len(t, stats, 2)

	assert.Equal(t, "Docs", stats[0].Library)
	assert.EqualValues(t, 2, stats[0].Files)
	assert.EqualValues(t, 30, stats[0].SizeBytes)

	assert.Equal(t, "Media", stats[1].Library)
	assert.EqualValues(t, 1, stats[1].Files)
	assert.EqualValues(t, 30, stats[1].SizeBytes)
}
