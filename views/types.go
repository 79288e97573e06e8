// Package views holds the default templ components for the public pages
// and the admin panel. Sites can replace any of them through
// siteadmin.ViewFuncs. Edit pages.templ and regenerate with templ generate.
package views

import "github.com/crownheights/siteadmin/content"

// SiteConfig holds site-wide settings every page needs.
type SiteConfig struct {
	Name        string // SITEADMIN_NAME
	URL         string // SITEADMIN_URL
	Description string // SITEADMIN_DESCRIPTION
}

// Dashboard is everything the admin panel renders in one pass.
type Dashboard struct {
	Articles  []content.Article
	Form      content.ArticleInput
	EditingID string
	Message   string
	Warning   string
	CSRFToken string
}

// GalleryPage is the public gallery with its upload and delete forms.
type GalleryPage struct {
	Images    []content.GalleryImage
	Message   string
	MaxBytes  int64
	CSRFToken string
}
