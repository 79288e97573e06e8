package siteadmin

import (
	"net/url"
	"path"
	"strings"
)

// BuildURL joins a base URL with path segments, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// absURL joins a file name such as "feed.xml" onto base without a
// trailing slash.
func absURL(base, name string) string {
	return strings.TrimSuffix(BuildURL(base), "/") + "/" + name
}

// articleURL points at an announcement's anchor on the home page.
func articleURL(base, id string) string {
	return BuildURL(base) + "#article-" + url.PathEscape(id)
}
