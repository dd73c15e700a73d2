package sharepoint

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sitemirror/internal/auth"
	"sitemirror/internal/logger"
	"sitemirror/internal/model"
	"sitemirror/internal/pathmap"
	"sitemirror/internal/util"
	"strings"
	"time"

	"go.uber.org/zap"
)

const documentLibraryTemplate = 101

// Client talks to a SharePoint site over its REST API with an app-only
// bearer token.
type Client struct {
	site    string
	baseURL string
	host    string
	prefix  string
	hc      *http.Client
}

func New(ctx context.Context, site, siteURL string) (*Client, error) {
	u, err := url.Parse(siteURL)
	if err != nil {
		return nil, fmt.Errorf("invalid site url: %w", err)
	}

	hc, err := auth.NewSharePointClient(ctx)
	if err != nil {
		return nil, err
	}

	return &Client{
		site:    site,
		baseURL: strings.TrimRight(siteURL, "/"),
		host:    u.Scheme + "://" + u.Host,
		prefix:  pathmap.SiteRoot(siteURL),
		hc:      hc,
	}, nil
}

func (c *Client) Prefix() string {
	return c.prefix
}

func (c *Client) Login(ctx context.Context) error {
	var web struct {
		Title string `json:"Title"`
	}

	if err := c.getJSON(ctx, c.baseURL+"/_api/web?$select=Title", &web); err != nil {
		return err
	}

	logger.Log.Info("sharepoint login ok",
		zap.String("site", c.site),
		zap.String("title", web.Title))
	return nil
}

type spFolder struct {
	ServerRelativeUrl string `json:"ServerRelativeUrl"`
}

type spFile struct {
	Name              string      `json:"Name"`
	ServerRelativeUrl string      `json:"ServerRelativeUrl"`
	Length            json.Number `json:"Length"`
	TimeCreated       *time.Time  `json:"TimeCreated"`
	TimeLastModified  *time.Time  `json:"TimeLastModified"`
}

// List walks every document library of the site and returns one record
// per file, in traversal order.
func (c *Client) List(ctx context.Context) ([]model.InventoryRecord, error) {
	var lists struct {
		Value []struct {
			Title      string   `json:"Title"`
			RootFolder spFolder `json:"RootFolder"`
		} `json:"value"`
	}

	listsURL := c.baseURL + "/_api/web/lists?$select=Title,RootFolder/ServerRelativeUrl" +
		"&$expand=RootFolder&$filter=BaseTemplate eq " + fmt.Sprint(documentLibraryTemplate)
	if err := c.getJSON(ctx, listsURL, &lists); err != nil {
		return nil, fmt.Errorf("failed to list document libraries: %w", err)
	}

	var records []model.InventoryRecord
	for _, lib := range lists.Value {
		if err := c.walkFolder(ctx, lib.RootFolder.ServerRelativeUrl, lib.Title, &records); err != nil {
			return nil, fmt.Errorf("failed to enumerate %s: %w", lib.Title, err)
		}
	}

	logger.Log.Info("sharepoint inventory enumerated",
		zap.String("site", c.site),
		zap.Int("files", len(records)))
	return records, nil
}

func (c *Client) walkFolder(ctx context.Context, folderPath, library string, records *[]model.InventoryRecord) error {
	var folder struct {
		Files   []spFile   `json:"Files"`
		Folders []spFolder `json:"Folders"`
	}

	folderURL := c.baseURL + "/_api/web/GetFolderByServerRelativePath(decodedurl='" +
		escapePath(folderPath) + "')?$expand=Folders,Files" +
		"&$select=Folders/ServerRelativeUrl,Files/Name,Files/ServerRelativeUrl,Files/Length,Files/TimeCreated,Files/TimeLastModified"
	if err := c.getJSON(ctx, folderURL, &folder); err != nil {
		return err
	}

	for _, f := range folder.Files {
		size, _ := f.Length.Int64()
		if size < 0 {
			size = 0
		}

		*records = append(*records, model.InventoryRecord{
			ServerPath: f.ServerRelativeUrl,
			FileName:   f.Name,
			Url:        c.host + f.ServerRelativeUrl,
			SizeBytes:  uint64(size),
			SizeMB:     float64(size) / (1024 * 1024),
			Library:    library,
			Created:    f.TimeCreated,
			Modified:   f.TimeLastModified,
		})
	}

	for _, sub := range folder.Folders {
		// Library-internal Forms folders hold view pages, not documents.
		if strings.HasSuffix(sub.ServerRelativeUrl, "/Forms") {
			continue
		}

		if err := c.walkFolder(ctx, sub.ServerRelativeUrl, library, records); err != nil {
			return err
		}
	}

	return nil
}

func (c *Client) Fetch(ctx context.Context, serverPath, localPath string) error {
	fetchURL := c.baseURL + "/_api/web/GetFileByServerRelativePath(decodedurl='" +
		escapePath(serverPath) + "')/$value"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download: %w", err)
	}

	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download returned %s for %s", resp.Status, serverPath)
	}

	return util.AtomicWrite(localPath, resp.Body)
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json;odata=nometadata")

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sharepoint returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// escapePath prepares a server-relative path for a decodedurl='...'
// literal: single quotes doubled, the rest percent-encoded.
func escapePath(p string) string {
	return url.PathEscape(strings.ReplaceAll(p, "'", "''"))
}
