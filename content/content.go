// Package content holds the announcement and gallery model and the gateway
// that decides, for every read and write, whether the remote document store
// or the local fallback store serves it.
//
// The remote store is preferred. Reads fall back to local storage when the
// remote fails or comes back empty; writes fall back only when the remote
// write fails. Nothing written locally is ever copied back to the remote
// store once it recovers.
package content

import (
	"sort"
	"strings"
	"time"
)

// Collection names a document collection shared by both stores.
type Collection string

const (
	Articles Collection = "articles"
	Gallery  Collection = "gallery"
)

// OrderField is the document field a collection is listed by, descending.
func (c Collection) OrderField() string {
	if c == Gallery {
		return "timestamp"
	}
	return "date"
}

func (c Collection) String() string { return string(c) }

// Document is a schemaless record as either store holds it. Returned
// documents carry their identifier under "id".
type Document map[string]any

// ID returns the document identifier, or "" when absent.
func (d Document) ID() string {
	id, _ := d["id"].(string)
	return id
}

// Clone returns a shallow copy of d.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Merge copies every field of patch except "id" into d.
func (d Document) Merge(patch Document) {
	for k, v := range patch {
		if k == "id" {
			continue
		}
		d[k] = v
	}
}

func (d Document) str(field string) string {
	s, _ := d[field].(string)
	return s
}

// SortDocuments orders docs descending by the collection's ordering field.
// Documents with equal keys keep their relative order.
func SortDocuments(c Collection, docs []Document) {
	field := c.OrderField()
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].str(field) > docs[j].str(field)
	})
}

// Article is an announcement shown on the public site.
type Article struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Date      string `json:"date"`
	Summary   string `json:"summary"`
	Content   string `json:"content"`
	Image     string `json:"image,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// Input returns the editable fields of a, for prefilling the admin form.
func (a Article) Input() ArticleInput {
	return ArticleInput{
		Title:   a.Title,
		Date:    a.Date,
		Summary: a.Summary,
		Content: a.Content,
		Image:   a.Image,
	}
}

// ArticleInput is what the operator submits from the article form.
type ArticleInput struct {
	Title   string
	Date    string
	Summary string
	Content string
	Image   string
}

// Normalize trims surrounding whitespace from every field.
func (in ArticleInput) Normalize() ArticleInput {
	return ArticleInput{
		Title:   strings.TrimSpace(in.Title),
		Date:    strings.TrimSpace(in.Date),
		Summary: strings.TrimSpace(in.Summary),
		Content: strings.TrimSpace(in.Content),
		Image:   strings.TrimSpace(in.Image),
	}
}

// Validate reports the first missing required field.
func (in ArticleInput) Validate() error {
	required := []struct{ field, value string }{
		{"title", in.Title},
		{"date", in.Date},
		{"summary", in.Summary},
		{"content", in.Content},
	}
	for _, r := range required {
		if r.value == "" {
			return &ValidationError{Field: r.field, Reason: "is required"}
		}
	}
	return nil
}

// document builds the write payload. createdAt is only present on the
// create path so an update never resets it.
func (in ArticleInput) document(now time.Time, creating bool) Document {
	ts := Timestamp(now)
	doc := Document{
		"title":     in.Title,
		"date":      in.Date,
		"summary":   in.Summary,
		"content":   in.Content,
		"image":     nil,
		"updatedAt": ts,
	}
	if in.Image != "" {
		doc["image"] = in.Image
	}
	if creating {
		doc["createdAt"] = ts
	}
	return doc
}

// GalleryImage is one picture in the public photo gallery.
type GalleryImage struct {
	ID        string `json:"id"`
	Src       string `json:"src"`
	Timestamp string `json:"timestamp"`
}

const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// Timestamp formats t as an ISO-8601 UTC timestamp with millisecond precision.
func Timestamp(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

// FormatDate renders an article date for display, e.g. "March 1, 2026".
func FormatDate(s string) string {
	if s == "" {
		return "Date unknown"
	}
	for _, layout := range []string{"2006-01-02", isoLayout, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("January 2, 2006")
		}
	}
	return "Invalid Date"
}
