package repository

import (
	"sitemirror/internal/db"
	"sitemirror/internal/model"
	"time"

	"gorm.io/gorm/clause"
)

type LedgerRepository struct{}

func NewLedgerRepository() *LedgerRepository {
	return &LedgerRepository{}
}

// Load reads a site's ledger into memory, keyed by server path.
// A site with no prior ledger yields an empty map.
func (r *LedgerRepository) Load(site string) (map[string]model.LedgerEntry, error) {
	var entries []model.LedgerEntry
	if err := db.DB.Where("site = ?", site).Find(&entries).Error; err != nil {
		return nil, err
	}

	ledger := make(map[string]model.LedgerEntry, len(entries))
	for _, entry := range entries {
		ledger[entry.ServerPath] = entry
	}

	return ledger, nil
}

// Upsert durably replaces the entry for (site, server path). The write is
// committed before Upsert returns; the on-disk ledger never lags the last
// completed transfer attempt by more than the in-flight file.
func (r *LedgerRepository) Upsert(entry *model.LedgerEntry) error {
	entry.LastChecked = time.Now()

	return db.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "site"}, {Name: "server_path"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"local_path", "status", "last_checked", "message", "updated_at",
		}),
	}).Create(entry).Error
}

// Reopen downgrades a SUCCESS entry to PENDING so the next resume run
// fetches it again. Used by the mirror drift watcher.
func (r *LedgerRepository) Reopen(localPath, reason string) (int64, error) {
	result := db.DB.Model(&model.LedgerEntry{}).
		Where("local_path = ? AND status = ?", localPath, model.StatusSuccess).
		Updates(map[string]any{
			"status":       model.StatusPending,
			"message":      reason,
			"last_checked": time.Now(),
		})

	return result.RowsAffected, result.Error
}

func (r *LedgerRepository) GetBySite(site string, status model.TransferStatus, limit int) ([]model.LedgerEntry, error) {
	q := db.DB.Where("site = ?", site)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var entries []model.LedgerEntry
	result := q.Order("last_checked desc").Find(&entries)

	return entries, result.Error
}

type LedgerStats struct {
	Total   int64
	Success int64
	Failed  int64
	Pending int64
}

func (r *LedgerRepository) Stats(site string) (LedgerStats, error) {
	var stats LedgerStats
	rows := []struct {
		Status model.TransferStatus
		N      int64
	}{}

	err := db.DB.Model(&model.LedgerEntry{}).
		Select("status, count(*) as n").
		Where("site = ?", site).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return stats, err
	}

	for _, row := range rows {
		stats.Total += row.N
		switch row.Status {
		case model.StatusSuccess:
			stats.Success = row.N
		case model.StatusFailed:
			stats.Failed = row.N
		case model.StatusPending:
			stats.Pending = row.N
		}
	}

	return stats, nil
}
