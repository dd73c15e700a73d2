package gdrive

import (
	"context"
	"fmt"
	"io"
	"path"
	"sitemirror/internal/auth"
	"sitemirror/internal/logger"
	"sitemirror/internal/model"
	"sitemirror/internal/util"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/drive/v3"
)

const folderMimeType = "application/vnd.google-apps.folder"

// Drive mirrors one Google Drive folder tree. Server paths are the
// slash-joined folder path rooted at the configured folder, prefixed
// with it, so the path mapper treats every provider the same way.
type Drive struct {
	site   string
	prefix string
	rootID string
	svc    *drive.Service

	// idCache maps server paths seen during List to file IDs so Fetch
	// does not have to re-resolve them segment by segment.
	idCache map[string]string
}

func New(ctx context.Context, site, rootPath string) (*Drive, error) {
	svc, err := auth.NewDriveService(ctx)
	if err != nil {
		return nil, err
	}

	d := &Drive{
		site:    site,
		prefix:  "/" + strings.Trim(path.Clean("/"+rootPath), "/"),
		svc:     svc,
		idCache: make(map[string]string),
	}

	rootID, err := d.resolveFolderPath(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to find gdrive folder: %w", err)
	}
	d.rootID = rootID

	logger.Log.Info("gdrive remote ready",
		zap.String("site", site),
		zap.String("folder", rootPath),
		zap.String("folder_id", rootID))

	return d, nil
}

func (d *Drive) Prefix() string {
	return d.prefix
}

func (d *Drive) Login(ctx context.Context) error {
	about, err := d.svc.About.Get().Fields("user").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("gdrive session check failed: %w", err)
	}

	logger.Log.Info("gdrive login ok",
		zap.String("site", d.site),
		zap.String("user", about.User.EmailAddress))
	return nil
}

func (d *Drive) List(ctx context.Context) ([]model.InventoryRecord, error) {
	var records []model.InventoryRecord
	if err := d.walk(ctx, d.rootID, nil, &records); err != nil {
		return nil, err
	}

	logger.Log.Info("gdrive inventory enumerated",
		zap.String("site", d.site),
		zap.Int("files", len(records)))
	return records, nil
}

func (d *Drive) walk(ctx context.Context, folderID string, relParts []string, records *[]model.InventoryRecord) error {
	q := fmt.Sprintf("'%s' in parents and trashed=false", folderID)
	pageToken := ""

	for {
		call := d.svc.Files.List().Q(q).
			Fields("nextPageToken, files(id, name, mimeType, size, createdTime, modifiedTime)").
			PageSize(1000).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		list, err := call.Do()
		if err != nil {
			return fmt.Errorf("failed to list folder: %w", err)
		}

		for _, f := range list.Files {
			if f.MimeType == folderMimeType {
				sub := append(append([]string{}, relParts...), f.Name)
				if err := d.walk(ctx, f.Id, sub, records); err != nil {
					return err
				}
				continue
			}

			rel := f.Name
			if len(relParts) > 0 {
				rel = strings.Join(relParts, "/") + "/" + f.Name
			}
			serverPath := d.prefix + "/" + rel
			d.idCache[serverPath] = f.Id

			library := ""
			if len(relParts) > 0 {
				library = relParts[0]
			}

			*records = append(*records, model.InventoryRecord{
				ServerPath: serverPath,
				FileName:   f.Name,
				Url:        "https://drive.google.com/file/d/" + f.Id + "/view",
				SizeBytes:  uint64(max(f.Size, 0)),
				SizeMB:     float64(max(f.Size, 0)) / (1024 * 1024),
				Library:    library,
				Created:    parseDriveTime(f.CreatedTime),
				Modified:   parseDriveTime(f.ModifiedTime),
			})
		}

		if list.NextPageToken == "" {
			return nil
		}
		pageToken = list.NextPageToken
	}
}

func (d *Drive) Fetch(ctx context.Context, serverPath, localPath string) error {
	fileID, err := d.resolveFile(serverPath)
	if err != nil {
		return err
	}

	resp, err := d.svc.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return fmt.Errorf("failed to download: %w", err)
	}

	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	return util.AtomicWrite(localPath, resp.Body)
}

func (d *Drive) resolveFile(serverPath string) (string, error) {
	if id, ok := d.idCache[serverPath]; ok {
		return id, nil
	}

	rel := strings.TrimPrefix(serverPath, d.prefix)
	parts := strings.Split(strings.Trim(rel, "/"), "/")
	fileName := parts[len(parts)-1]

	parentID := d.rootID
	for _, dir := range parts[:len(parts)-1] {
		id, err := d.findFolder(dir, parentID)
		if err != nil || id == "" {
			return "", fmt.Errorf("folder not found: %s", dir)
		}
		parentID = id
	}

	fileID, err := d.findFile(fileName, parentID)
	if err != nil || fileID == "" {
		return "", fmt.Errorf("file not found on gdrive: %s", serverPath)
	}

	d.idCache[serverPath] = fileID
	return fileID, nil
}

func (d *Drive) resolveFolderPath(folderPath string) (string, error) {
	parentID := "root"
	for _, dir := range strings.Split(strings.Trim(folderPath, "/"), "/") {
		if dir == "" {
			continue
		}

		id, err := d.findFolder(dir, parentID)
		if err != nil {
			return "", err
		}
		if id == "" {
			return "", fmt.Errorf("folder not found: %s", dir)
		}
		parentID = id
	}

	return parentID, nil
}

func (d *Drive) findFolder(name, parentID string) (string, error) {
	q := fmt.Sprintf("name='%s' and '%s' in parents and mimeType='%s' and trashed=false",
		escapeQuery(name), parentID, folderMimeType)
	return d.findOne(q)
}

func (d *Drive) findFile(name, parentID string) (string, error) {
	q := fmt.Sprintf("name='%s' and '%s' in parents and mimeType!='%s' and trashed=false",
		escapeQuery(name), parentID, folderMimeType)
	return d.findOne(q)
}

func (d *Drive) findOne(q string) (string, error) {
	list, err := d.svc.Files.List().Q(q).Fields("files(id)").PageSize(1).Do()
	if err != nil {
		return "", err
	}

	if len(list.Files) == 0 {
		return "", nil
	}

	return list.Files[0].Id, nil
}

func escapeQuery(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}

func parseDriveTime(s string) *time.Time {
	if s == "" {
		return nil
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}

	return &t
}
