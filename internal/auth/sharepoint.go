package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/oauth2/clientcredentials"
)

const sharepointCredFile = "sharepoint_credentials.json"

type sharepointProvider struct{}

func (p *sharepointProvider) Authorize() error {
	cfg, err := loadSharePointConfig()
	if err != nil {
		return err
	}

	token, err := cfg.Token(context.Background())
	if err != nil {
		return fmt.Errorf("failed to acquire sharepoint token: %w", err)
	}

	fmt.Printf("Token acquired, expires %s\n", token.Expiry.Format("2006-01-02 15:04:05"))
	return nil
}

type sharepointCredentials struct {
	TenantID     string `json:"tenant_id"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	// Resource is the tenant's sharepoint host, e.g. contoso.sharepoint.com.
	Resource string `json:"resource"`
}

func loadSharePointConfig() (*clientcredentials.Config, error) {
	dir, err := stateDir()
	if err != nil {
		return nil, err
	}

	b, err := os.ReadFile(filepath.Join(dir, sharepointCredFile))
	if err != nil {
		return nil, fmt.Errorf("sharepoint_credentials.json not found in ~/.sitemirror: %w", err)
	}

	var creds sharepointCredentials
	if err := json.Unmarshal(b, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse sharepoint credentials: %w", err)
	}

	return &clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", creds.TenantID),
		Scopes:       []string{fmt.Sprintf("https://%s/.default", creds.Resource)},
	}, nil
}

// NewSharePointClient returns an HTTP client that injects and refreshes
// the app-only bearer token on every request.
func NewSharePointClient(ctx context.Context) (*http.Client, error) {
	cfg, err := loadSharePointConfig()
	if err != nil {
		return nil, err
	}

	return cfg.Client(ctx), nil
}
