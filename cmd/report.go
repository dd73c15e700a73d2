package cmd

import (
	"fmt"
	"sitemirror/internal/repository"

	"github.com/spf13/cobra"
)

var reportSites []string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show per-library file counts and sizes from the stored inventory",
	RunE: func(cmd *cobra.Command, args []string) error {
		sites, err := cfg.Select(reportSites)
		if err != nil {
			return err
		}

		repo := repository.NewInventoryRepository()

		for _, site := range sites {
			stats, err := repo.LibraryStats(site.Name)
			if err != nil {
				return err
			}

			if len(stats) == 0 {
				fmt.Printf("%s: no inventory, run 'sitemirror inventory' first\n", site.Name)
				continue
			}

			fmt.Printf("%s\n", site.Name)
			fmt.Printf("  %-40s %8s %12s\n", "LIBRARY", "FILES", "SIZE (MB)")

			var totalFiles int64
			var totalBytes uint64
			for _, stat := range stats {
				fmt.Printf("  %-40s %8d %12.2f\n",
					stat.Library, stat.Files, float64(stat.SizeBytes)/(1024*1024))
				totalFiles += stat.Files
				totalBytes += stat.SizeBytes
			}

			fmt.Printf("  %-40s %8d %12.2f\n", "total", totalFiles, float64(totalBytes)/(1024*1024))
		}

		return nil
	},
}

func init() {
	reportCmd.Flags().StringSliceVar(&reportSites, "site", nil, "site names to report on (default: all)")
	rootCmd.AddCommand(reportCmd)
}
