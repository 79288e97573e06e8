package views

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/a-h/templ"
)

// PathEscape wraps url.PathEscape for use in templ expressions.
func PathEscape(s string) string {
	return url.PathEscape(s)
}

func pageTitle(cfg SiteConfig, title string) string {
	if title == "" {
		return cfg.Name
	}
	return title + " | " + cfg.Name
}

func formTitle(d Dashboard) string {
	if d.EditingID != "" {
		return "Edit Article"
	}
	return "Add New Article"
}

// imageSrc passes inline uploads through as-is; templ.URL rejects the data:
// scheme, and everything else still goes through its sanitizer.
func imageSrc(src string) templ.SafeURL {
	if strings.HasPrefix(strings.ToLower(src), "data:image/") {
		return templ.SafeURL(src)
	}
	return templ.URL(src)
}

// humanBytes formats an upload ceiling like "1 MB".
func humanBytes(n int64) string {
	const mb = 1 << 20
	if n >= mb && n%mb == 0 {
		return fmt.Sprintf("%d MB", n/mb)
	}
	if n >= 1<<10 {
		return fmt.Sprintf("%d KB", n>>10)
	}
	return fmt.Sprintf("%d bytes", n)
}
