package repository

import (
	"sitemirror/internal/db"
	"sitemirror/internal/model"

	"gorm.io/gorm"
)

type InventoryRepository struct{}

func NewInventoryRepository() *InventoryRepository {
	return &InventoryRepository{}
}

// ReplaceSite swaps a site's inventory snapshot in one transaction.
func (r *InventoryRepository) ReplaceSite(site string, records []model.InventoryRecord) error {
	return db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().
			Where("site = ?", site).
			Delete(&model.InventoryRecord{}).Error; err != nil {
			return err
		}

		if len(records) == 0 {
			return nil
		}

		for i := range records {
			records[i].Site = site
		}

		return tx.CreateInBatches(records, 200).Error
	})
}

// GetBySite returns the snapshot in enumeration order.
func (r *InventoryRepository) GetBySite(site string) ([]model.InventoryRecord, error) {
	var records []model.InventoryRecord
	result := db.DB.
		Where("site = ?", site).
		Order("id asc").
		Find(&records)

	return records, result.Error
}

type LibraryStat struct {
	Library   string
	Files     int64
	SizeBytes uint64
}

func (r *InventoryRepository) LibraryStats(site string) ([]LibraryStat, error) {
	var stats []LibraryStat
	result := db.DB.Model(&model.InventoryRecord{}).
		Select("library, count(*) as files, sum(size_bytes) as size_bytes").
		Where("site = ?", site).
		Group("library").
		Order("library asc").
		Scan(&stats)

	return stats, result.Error
}
