package dropbox

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sitemirror/internal/auth"
	"sitemirror/internal/logger"
	"sitemirror/internal/model"
	"sitemirror/internal/util"
	"strings"

	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/files"
	"go.uber.org/zap"
)

// Folder mirrors one Dropbox folder tree.
type Folder struct {
	site   string
	root   string
	client files.Client
}

func New(site, rootPath string) (*Folder, error) {
	token, err := auth.NewDropboxToken()
	if err != nil {
		return nil, err
	}

	cfg := dropbox.Config{Token: token.AccessToken}

	return &Folder{
		site:   site,
		root:   normalizePath(rootPath),
		client: files.New(cfg),
	}, nil
}

func (f *Folder) Prefix() string {
	return f.root
}

func (f *Folder) Login(ctx context.Context) error {
	arg := files.NewGetMetadataArg(f.root)
	if _, err := f.client.GetMetadata(arg); err != nil {
		return fmt.Errorf("dropbox session check failed: %w", err)
	}

	logger.Log.Info("dropbox login ok",
		zap.String("site", f.site),
		zap.String("folder", f.root))
	return nil
}

func (f *Folder) List(ctx context.Context) ([]model.InventoryRecord, error) {
	arg := files.NewListFolderArg(f.root)
	arg.Recursive = true

	res, err := f.client.ListFolder(arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list dropbox folder: %w", err)
	}

	var records []model.InventoryRecord
	for {
		for _, entry := range res.Entries {
			meta, ok := entry.(*files.FileMetadata)
			if !ok {
				continue
			}

			records = append(records, f.toRecord(meta))
		}

		if !res.HasMore {
			break
		}

		res, err = f.client.ListFolderContinue(files.NewListFolderContinueArg(res.Cursor))
		if err != nil {
			return nil, fmt.Errorf("failed to continue listing: %w", err)
		}
	}

	logger.Log.Info("dropbox inventory enumerated",
		zap.String("site", f.site),
		zap.Int("files", len(records)))
	return records, nil
}

func (f *Folder) toRecord(meta *files.FileMetadata) model.InventoryRecord {
	serverPath := meta.PathDisplay

	library := ""
	rel := strings.Trim(strings.TrimPrefix(serverPath, f.root), "/")
	if parts := strings.Split(rel, "/"); len(parts) > 1 {
		library = parts[0]
	}

	created := meta.ClientModified
	modified := meta.ServerModified

	return model.InventoryRecord{
		ServerPath: serverPath,
		FileName:   meta.Name,
		Url:        "https://www.dropbox.com/home" + meta.PathLower,
		SizeBytes:  meta.Size,
		SizeMB:     float64(meta.Size) / (1024 * 1024),
		Library:    library,
		Created:    &created,
		Modified:   &modified,
	}
}

func (f *Folder) Fetch(ctx context.Context, serverPath, localPath string) error {
	arg := files.NewDownloadArg(serverPath)
	_, content, err := f.client.Download(arg)
	if err != nil {
		return fmt.Errorf("failed to download from dropbox: %w", err)
	}

	defer func(content io.ReadCloser) {
		_ = content.Close()
	}(content)

	return util.AtomicWrite(localPath, content)
}

func normalizePath(p string) string {
	return "/" + strings.Trim(filepath.ToSlash(p), "/")
}
