package reconcile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sitemirror/internal/logger"
	"sitemirror/internal/model"
	"sitemirror/internal/pathmap"

	"go.uber.org/zap"
)

// Fetcher is the blocking remote-to-local transfer primitive. It reports
// a binary outcome; the engine turns failures into ledger entries.
type Fetcher interface {
	Fetch(ctx context.Context, serverPath, localPath string) error
}

// Ledger is the durable per-file status store. Upsert must commit before
// returning so that an interruption never loses more than the in-flight
// file's outcome.
type Ledger interface {
	Load(site string) (map[string]model.LedgerEntry, error)
	Upsert(entry *model.LedgerEntry) error
}

type Engine struct {
	site       string
	sitePrefix string
	mirrorBase string
	ledger     Ledger
	fetcher    Fetcher
}

func NewEngine(site, sitePrefix, mirrorBase string, ledger Ledger, fetcher Fetcher) *Engine {
	return &Engine{
		site:       site,
		sitePrefix: sitePrefix,
		mirrorBase: mirrorBase,
		ledger:     ledger,
		fetcher:    fetcher,
	}
}

type Summary struct {
	Site    string
	Mode    model.Mode
	Total   int
	Fetched int
	Skipped int
	Failed  int
}

// Run reconciles one site's inventory snapshot against the mirror,
// strictly in inventory order, one file at a time. Transfer failures are
// recorded and the run continues; a ledger write that fails twice aborts
// the run, since continuing without a durable ledger breaks resumability.
func (e *Engine) Run(ctx context.Context, records []model.InventoryRecord, mode model.Mode) (Summary, error) {
	summary := Summary{Site: e.site, Mode: mode, Total: len(records)}

	ledger, err := e.ledger.Load(e.site)
	if err != nil {
		return summary, fmt.Errorf("failed to load ledger: %w", err)
	}

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		localPath := pathmap.Resolve(record.ServerPath, e.sitePrefix, e.mirrorBase)

		var prior *model.LedgerEntry
		if entry, ok := ledger[record.ServerPath]; ok {
			prior = &entry
		}

		var local LocalState
		if mode == model.ModeRecheck {
			local = statLocal(localPath)
		}

		decision := Decide(mode, prior, local, record.SizeBytes)
		if !decision.Fetch {
			summary.Skipped++
			logger.Log.Debug("skipped",
				zap.String("path", record.ServerPath),
				zap.String("reason", decision.Reason))
			continue
		}

		entry := e.fetchOne(ctx, record, localPath, decision.Reason)
		if err := e.persist(&entry); err != nil {
			return summary, err
		}

		if entry.Status == model.StatusSuccess {
			summary.Fetched++
		} else {
			summary.Failed++
		}
	}

	return summary, nil
}

func (e *Engine) fetchOne(ctx context.Context, record model.InventoryRecord, localPath, reason string) model.LedgerEntry {
	entry := model.LedgerEntry{
		Site:       e.site,
		ServerPath: record.ServerPath,
		LocalPath:  localPath,
		Status:     model.StatusSuccess,
	}

	err := os.MkdirAll(filepath.Dir(localPath), 0755)
	if err == nil {
		err = e.fetcher.Fetch(ctx, record.ServerPath, localPath)
	}

	if err != nil {
		entry.Status = model.StatusFailed
		entry.Message = err.Error()

		logger.Log.Error("fetch failed",
			zap.String("site", e.site),
			zap.String("path", record.ServerPath),
			zap.Error(err))
		return entry
	}

	applyTimestamps(localPath, record)

	logger.Log.Info("fetched",
		zap.String("site", e.site),
		zap.String("path", record.ServerPath),
		zap.String("dst", localPath),
		zap.String("reason", reason))
	return entry
}

// persist writes the entry through to the ledger, retrying once before
// giving up on the whole site run.
func (e *Engine) persist(entry *model.LedgerEntry) error {
	if err := e.ledger.Upsert(entry); err != nil {
		logger.Log.Error("ledger write failed, retrying",
			zap.String("path", entry.ServerPath),
			zap.Error(err))

		if err := e.ledger.Upsert(entry); err != nil {
			return fmt.Errorf("failed to persist ledger: %w", err)
		}
	}

	return nil
}

// applyTimestamps carries the remote timestamps onto the fetched file.
// Best effort: a failure is a warning, never a failed transfer.
func applyTimestamps(localPath string, record model.InventoryRecord) {
	if record.Modified == nil {
		return
	}

	atime := *record.Modified
	if record.Created != nil {
		atime = *record.Created
	}

	if err := os.Chtimes(localPath, atime, *record.Modified); err != nil {
		logger.Log.Warn("failed to set file times",
			zap.String("path", localPath),
			zap.Error(err))
	}
}

func statLocal(path string) LocalState {
	info, err := os.Stat(path)
	if err != nil {
		return LocalState{}
	}

	return LocalState{Exists: true, Size: info.Size()}
}
