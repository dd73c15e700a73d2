// Package pathmap maps remote server paths onto the local mirror tree.
// Everything here is pure string work; callers do the I/O.
package pathmap

import (
	"net/url"
	"path/filepath"
	"strings"
)

// Resolve derives the mirror destination for a server path by stripping
// the site prefix and joining the remainder under the mirror base.
// A server path that does not carry the prefix is used unmodified as the
// relative path, so malformed input degrades instead of failing the run.
func Resolve(serverPath, sitePrefix, mirrorBase string) string {
	rel := serverPath
	if sitePrefix != "" && strings.HasPrefix(serverPath, sitePrefix) {
		rel = serverPath[len(sitePrefix):]
	}

	rel = strings.TrimLeft(rel, "/")
	return filepath.Join(mirrorBase, filepath.FromSlash(rel))
}

// SiteRoot extracts the site's server-relative root from its URL,
// following the scheme://host/sites/<name> grammar. A URL that does not
// match is returned unchanged; Resolve's own fallback then takes over.
func SiteRoot(siteURL string) string {
	u, err := url.Parse(siteURL)
	if err != nil {
		return siteURL
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, segment := range segments {
		if strings.EqualFold(segment, "sites") && i+1 < len(segments) {
			return "/" + segments[i] + "/" + segments[i+1]
		}
	}

	return siteURL
}
