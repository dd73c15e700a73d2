package model

import (
	"time"

	"gorm.io/gorm"
)

// InventoryRecord is one remote file as enumerated into a site's
// inventory snapshot. The snapshot is replaced wholesale on refresh and
// never mutated during reconciliation.
type InventoryRecord struct {
	gorm.Model
	Site       string `gorm:"not null;uniqueIndex:idx_inventory_site_path"`
	ServerPath string `gorm:"not null;uniqueIndex:idx_inventory_site_path"`
	FileName   string `gorm:"not null"`
	Url        string
	SizeBytes  uint64
	SizeMB     float64
	Library    string
	Created    *time.Time
	Modified   *time.Time
}
