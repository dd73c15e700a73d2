package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"sitemirror/internal/logger"
	"sitemirror/internal/model"
	"sitemirror/internal/reconcile"
	"sitemirror/internal/remote"
	"sitemirror/internal/repository"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var syncSites []string

var syncCmd = newModeCommand("sync", "Transfer every file not yet mirrored", model.ModeSync)

var resumeCmd = newModeCommand("resume", "Continue an interrupted transfer, retrying failures", model.ModeResume)

var recheckCmd = newModeCommand("recheck", "Verify mirrored files against the inventory and re-fetch drift", model.ModeRecheck)

var updateCmd = newModeCommand("update", "Refresh the inventory for the selected sites, then sync", model.ModeUpdate)

func newModeCommand(use, short string, mode model.Mode) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer logger.Sync()
			return runReconcile(cmd.Context(), mode)
		},
	}
}

// runReconcile drives one site at a time; setup errors abort only the
// affected site, the remaining selection still runs.
func runReconcile(ctx context.Context, mode model.Mode) error {
	sites, err := cfg.Select(syncSites)
	if err != nil {
		return err
	}

	invRepo := repository.NewInventoryRepository()
	ledgerRepo := repository.NewLedgerRepository()

	for _, site := range sites {
		rem, err := remote.New(ctx, site)
		if err != nil {
			logger.Log.Error("skipping site",
				zap.String("site", site.Name),
				zap.Error(err))
			continue
		}

		if mode == model.ModeUpdate {
			records, err := rem.List(ctx)
			if err != nil {
				logger.Log.Error("inventory refresh failed, skipping site",
					zap.String("site", site.Name),
					zap.Error(err))
				continue
			}

			if err := invRepo.ReplaceSite(site.Name, records); err != nil {
				logger.Log.Error("failed to store inventory, skipping site",
					zap.String("site", site.Name),
					zap.Error(err))
				continue
			}
		}

		records, err := invRepo.GetBySite(site.Name)
		if err != nil {
			logger.Log.Error("failed to load inventory, skipping site",
				zap.String("site", site.Name),
				zap.Error(err))
			continue
		}

		if len(records) == 0 {
			logger.Log.Error("no inventory for site, run 'sitemirror inventory' first",
				zap.String("site", site.Name))
			continue
		}

		engine := reconcile.NewEngine(site.Name, rem.Prefix(),
			filepath.Join(cfg.MirrorDir, site.Name), ledgerRepo, rem)

		summary, err := engine.Run(ctx, records, mode)
		if err != nil {
			logger.Log.Error("site run aborted",
				zap.String("site", site.Name),
				zap.Error(err))
			continue
		}

		fmt.Printf("%s: %d fetched, %d skipped, %d failed (of %d)\n",
			summary.Site, summary.Fetched, summary.Skipped, summary.Failed, summary.Total)
	}

	return nil
}

func init() {
	for _, cmd := range []*cobra.Command{syncCmd, resumeCmd, recheckCmd, updateCmd} {
		cmd.Flags().StringSliceVar(&syncSites, "site", nil, "site names to process (default: all)")
		rootCmd.AddCommand(cmd)
	}
}
