package cmd

import (
	"fmt"
	"sitemirror/internal/auth"
	"sitemirror/internal/logger"
	"sitemirror/internal/remote"

	"github.com/spf13/cobra"
)

var loginSites []string

var loginCmd = &cobra.Command{
	Use:   "login [provider]",
	Short: "Authenticate a provider, or test site sessions with --site",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defer logger.Sync()

		if len(loginSites) > 0 {
			sites, err := cfg.Select(loginSites)
			if err != nil {
				return err
			}

			for _, site := range sites {
				rem, err := remote.New(cmd.Context(), site)
				if err != nil {
					return err
				}

				if err := rem.Login(cmd.Context()); err != nil {
					return fmt.Errorf("login test failed for %s: %w", site.Name, err)
				}

				fmt.Printf("%s: login ok\n", site.Name)
			}

			return nil
		}

		if len(args) == 0 {
			return fmt.Errorf("provider required: sharepoint, gdrive or dropbox")
		}

		provider, err := auth.ByName(args[0])
		if err != nil {
			return err
		}

		if err := provider.Authorize(); err != nil {
			return err
		}

		fmt.Printf("Authenticated with %s\n", args[0])
		return nil
	},
}

func init() {
	loginCmd.Flags().StringSliceVar(&loginSites, "site", nil, "site names to test instead of authenticating a provider")
	rootCmd.AddCommand(loginCmd)
}
