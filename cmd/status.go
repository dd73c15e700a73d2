package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sitemirror/internal/status"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "View per-site mirror status",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := http.Get(statusURL("/status"))
		if err != nil {
			return fmt.Errorf("watch daemon not running: %w", err)
		}

		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)

		var result struct {
			Sites []status.SiteStatus `json:"sites"`
		}

		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return fmt.Errorf("failed to decode status response: %w", err)
		}

		if len(result.Sites) == 0 {
			fmt.Println("no sites configured")
			return nil
		}

		fmt.Printf("%-20s %10s %10s %10s %10s\n",
			"SITE", "INVENTORY", "SUCCESS", "FAILED", "PENDING")

		for _, s := range result.Sites {
			fmt.Printf("%-20s %10d %10d %10d %10d\n",
				s.Site, s.Inventory, s.Success, s.Failed, s.Pending)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
