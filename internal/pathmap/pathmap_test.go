package pathmap

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		serverPath string
		sitePrefix string
		mirrorBase string
		want       string
	}{
		{
			name:       "strips site prefix",
			serverPath: "/sites/Proj/Shared Documents/a/b.txt",
			sitePrefix: "/sites/Proj",
			mirrorBase: "/out",
			want:       filepath.Join("/out", "Shared Documents", "a", "b.txt"),
		},
		{
			name:       "prefix absent falls back to full path",
			serverPath: "/sites/Proj/Shared Documents/a.txt",
			sitePrefix: "/sites/Other",
			mirrorBase: "/out",
			want:       filepath.Join("/out", "sites", "Proj", "Shared Documents", "a.txt"),
		},
		{
			name:       "empty prefix",
			serverPath: "/docs/a.txt",
			sitePrefix: "",
			mirrorBase: "/out",
			want:       filepath.Join("/out", "docs", "a.txt"),
		},
		{
			name:       "prefix equals whole path",
			serverPath: "/sites/Proj",
			sitePrefix: "/sites/Proj",
			mirrorBase: "/out",
			want:       "/out",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.serverPath, tt.sitePrefix, tt.mirrorBase))
		})
	}
}

func TestSiteRoot(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"plain site url", "https://contoso.sharepoint.com/sites/Proj", "/sites/Proj"},
		{"site url with trailing path", "https://contoso.sharepoint.com/sites/Proj/Shared Documents", "/sites/Proj"},
		{"trailing slash", "https://contoso.sharepoint.com/sites/Proj/", "/sites/Proj"},
		{"case-insensitive marker", "https://contoso.sharepoint.com/Sites/Proj", "/Sites/Proj"},
		{"no sites segment stays unchanged", "https://contoso.sharepoint.com/teams/Proj", "https://contoso.sharepoint.com/teams/Proj"},
		{"sites without a name stays unchanged", "https://contoso.sharepoint.com/sites", "https://contoso.sharepoint.com/sites"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SiteRoot(tt.url))
		})
	}
}
