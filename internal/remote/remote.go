// Package remote defines the collaborator boundary the reconciler talks
// to: session check, inventory enumeration and the transfer primitive.
package remote

import (
	"context"
	"fmt"
	"sitemirror/internal/config"
	"sitemirror/internal/model"
	"sitemirror/internal/remote/dropbox"
	"sitemirror/internal/remote/gdrive"
	"sitemirror/internal/remote/sharepoint"
)

type Remote interface {
	// Login verifies the session without transferring anything.
	Login(ctx context.Context) error

	// List enumerates the site's file corpus into inventory records,
	// in remote traversal order.
	List(ctx context.Context) ([]model.InventoryRecord, error)

	// Fetch copies one remote file to localPath, blocking until done.
	Fetch(ctx context.Context, serverPath, localPath string) error

	// Prefix is the site-root component stripped from server paths when
	// mapping them under the mirror directory.
	Prefix() string
}

func New(ctx context.Context, site config.Site) (Remote, error) {
	switch site.Provider {
	case "sharepoint", "":
		return sharepoint.New(ctx, site.Name, site.URL)
	case "gdrive":
		return gdrive.New(ctx, site.Name, site.Root)
	case "dropbox":
		return dropbox.New(site.Name, site.Root)
	default:
		return nil, fmt.Errorf("unknown provider %q for site %s", site.Provider, site.Name)
	}
}
