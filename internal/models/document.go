package models

import (
	"path/filepath"
	"strings"
)

// ReferenceKind discriminates DocumentReference variants.
type ReferenceKind string

const (
	// KindWebArticle is a link to an HTML article page.
	KindWebArticle ReferenceKind = "web_article"
	// KindPDF is a PDF document, held in memory, on disk, or at a remote URL.
	KindPDF ReferenceKind = "pdf"
	// KindFile is any other archived document format (docx, odt, xlsx, text).
	KindFile ReferenceKind = "file"
)

// Values of DocumentReference.Source naming where a reference came from.
const (
	SourceCSE     = "cse"
	SourceFeed    = "feed"
	SourceArchive = "archive"
	SourceUpload  = "upload"
)

// DocumentReference points at a retrievable document. Exactly one of URL, Path or Data
// identifies the content; Name is a display name.
type DocumentReference struct {
	Kind   ReferenceKind `json:"kind"`
	URL    string        `json:"url,omitempty"`
	Path   string        `json:"path,omitempty"`
	Data   []byte        `json:"-"`
	Name   string        `json:"name,omitempty"`
	Title  string        `json:"title,omitempty"`
	Source string        `json:"source,omitempty"`
}

// NewWebArticle returns a reference to an article page. Links ending in .pdf become PDF references.
func NewWebArticle(url, title string) DocumentReference {
	kind := KindWebArticle
	if IsPDFName(url) {
		kind = KindPDF
	}
	return DocumentReference{Kind: kind, URL: url, Title: title, Name: url}
}

// NewPDFFile returns a reference to a PDF on the local filesystem.
func NewPDFFile(path string) DocumentReference {
	return DocumentReference{Kind: KindPDF, Path: path, Name: filepath.Base(path)}
}

// NewPDFBlob returns a reference to PDF bytes already held in memory.
func NewPDFBlob(name string, data []byte) DocumentReference {
	return DocumentReference{Kind: KindPDF, Data: data, Name: name}
}

// NewLocalFile returns a reference to an archived file, choosing the PDF kind by extension.
func NewLocalFile(path string) DocumentReference {
	if IsPDFName(path) {
		return NewPDFFile(path)
	}
	return DocumentReference{Kind: KindFile, Path: path, Name: filepath.Base(path)}
}

// Location returns the URL or path identifying the reference, or its name for in-memory blobs.
func (r DocumentReference) Location() string {
	switch {
	case r.URL != "":
		return r.URL
	case r.Path != "":
		return r.Path
	default:
		return r.Name
	}
}

// Ext returns the lower-cased extension of the reference's location, including the dot.
func (r DocumentReference) Ext() string {
	loc := r.Location()
	if i := strings.IndexAny(loc, "?#"); i >= 0 && r.URL != "" {
		loc = loc[:i]
	}
	return strings.ToLower(filepath.Ext(loc))
}

// IsPDFName reports whether a path or URL names a PDF file.
func IsPDFName(name string) bool {
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	return strings.HasSuffix(strings.ToLower(name), ".pdf")
}

// ExtractedDocument is the text retrieved for one DocumentReference.
type ExtractedDocument struct {
	Reference  DocumentReference `json:"reference"`
	Title      string            `json:"title,omitempty"`
	Summary    string            `json:"summary,omitempty"`
	FullText   string            `json:"full_text"`
	SourceDate DateQuery         `json:"source_date"`
}

// InterpretedEvent is the terminal artifact of the pipeline.
// HistoricalContext is always non-empty: generated text or a fallback string.
type InterpretedEvent struct {
	ID                string `json:"id"`
	Date              string `json:"date"`
	Title             string `json:"title,omitempty"`
	Summary           string `json:"summary,omitempty"`
	FullText          string `json:"text"`
	HistoricalContext string `json:"historical_context"`
	SourceURL         string `json:"source_url,omitempty"`
	Source            string `json:"source,omitempty"`
}
