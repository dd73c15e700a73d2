package model

import (
	"time"

	"gorm.io/gorm"
)

type TransferStatus string

const (
	StatusPending TransferStatus = "PENDING"
	StatusSuccess TransferStatus = "SUCCESS"
	StatusFailed  TransferStatus = "FAILED"
)

// LedgerEntry is the last-known transfer outcome for one remote file.
// At most one entry exists per (site, server path); a later write
// replaces the earlier one.
type LedgerEntry struct {
	gorm.Model
	Site        string         `gorm:"not null;uniqueIndex:idx_ledger_site_path"`
	ServerPath  string         `gorm:"not null;uniqueIndex:idx_ledger_site_path"`
	LocalPath   string         `gorm:"not null"`
	Status      TransferStatus `gorm:"not null"`
	LastChecked time.Time      `gorm:"not null"`
	Message     string
}
