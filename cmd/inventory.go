package cmd

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sitemirror/internal/logger"
	"sitemirror/internal/model"
	"sitemirror/internal/remote"
	"sitemirror/internal/repository"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	invSites  []string
	invExport string
)

var inventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "Enumerate the selected sites into fresh inventory snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer logger.Sync()

		sites, err := cfg.Select(invSites)
		if err != nil {
			return err
		}

		repo := repository.NewInventoryRepository()

		for _, site := range sites {
			rem, err := remote.New(cmd.Context(), site)
			if err != nil {
				logger.Log.Error("skipping site",
					zap.String("site", site.Name),
					zap.Error(err))
				continue
			}

			records, err := rem.List(cmd.Context())
			if err != nil {
				logger.Log.Error("enumeration failed, skipping site",
					zap.String("site", site.Name),
					zap.Error(err))
				continue
			}

			if err := repo.ReplaceSite(site.Name, records); err != nil {
				return fmt.Errorf("failed to store inventory for %s: %w", site.Name, err)
			}

			fmt.Printf("%s: %d files\n", site.Name, len(records))

			if invExport != "" {
				path := filepath.Join(invExport, site.Name+"_inventory.csv")
				if err := exportCSV(path, records); err != nil {
					return err
				}
				fmt.Printf("exported to %s\n", path)
			}
		}

		return nil
	},
}

func exportCSV(path string, records []model.InventoryRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create export dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}

	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	w := csv.NewWriter(f)
	if err := w.Write([]string{"FileName", "Path", "Url", "SizeBytes", "SizeMB", "Library", "Created", "Modified"}); err != nil {
		return err
	}

	for _, r := range records {
		row := []string{
			r.FileName,
			r.ServerPath,
			r.Url,
			strconv.FormatUint(r.SizeBytes, 10),
			strconv.FormatFloat(r.SizeMB, 'f', 2, 64),
			r.Library,
			formatTime(r.Created),
			formatTime(r.Modified),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}

	return t.Format(time.RFC3339)
}

func init() {
	inventoryCmd.Flags().StringSliceVar(&invSites, "site", nil, "site names to enumerate (default: all)")
	inventoryCmd.Flags().StringVar(&invExport, "export", "", "directory to write CSV snapshots to")
	rootCmd.AddCommand(inventoryCmd)
}
