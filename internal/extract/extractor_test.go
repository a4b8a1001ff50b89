package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/jidai/internal/models"
)

var testDate = models.DateQuery{Day: 5, Month: 3, Year: 2024}

func TestExtractBytes_plain(t *testing.T) {
	e := NewExtractor(nil)
	got, err := e.ExtractBytes([]byte("Hello world\nLine 2"), ".txt")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Hello world\nLine 2" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_plainInvalidUTF8(t *testing.T) {
	e := NewExtractor(nil)
	got, err := e.ExtractBytes([]byte("hello\x80world"), ".md")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "hello�world" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_pdfPagesInOrder(t *testing.T) {
	e := NewExtractor(nil)
	got, err := e.ExtractBytes(buildPDF("Meeting on 05", "and minutes on 05"), ".pdf")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	first := strings.Index(got, "Meeting on 05")
	second := strings.Index(got, "and minutes on 05")
	if first < 0 || second < 0 {
		t.Fatalf("missing page text in %q", got)
	}
	if first > second {
		t.Errorf("pages out of order: %q", got)
	}
}

func TestExtractBytes_pdfGarbage(t *testing.T) {
	e := NewExtractor(nil)
	if _, err := e.ExtractBytes([]byte("this is not a pdf at all"), ".pdf"); err == nil {
		t.Error("expected error for invalid PDF")
	}
}

func TestExtractBytes_pdfBrokenXrefIsError(t *testing.T) {
	e := NewExtractor(nil)
	doc := withXrefOffset(buildPDF("Budget session opens"), 2, 3)
	got, err := e.ExtractBytes(doc, ".pdf")
	if err == nil {
		t.Fatalf("expected error for broken xref, got %q", got)
	}
	if got != "" {
		t.Errorf("expected no text, got %q", got)
	}
}

func TestExtractReference_brokenPDFIsExtractionError(t *testing.T) {
	e := NewExtractor(nil)
	doc := withXrefOffset(buildPDF("Budget session opens"), 2, 3)
	_, err := e.ExtractReference(context.Background(), models.NewPDFBlob("broken.pdf", doc), testDate)
	var extractionErr *models.ExtractionError
	if !errors.As(err, &extractionErr) {
		t.Fatalf("expected *models.ExtractionError, got %v", err)
	}
}

func TestExtractBytes_docxParagraphs(t *testing.T) {
	e := NewExtractor(nil)
	body := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		`<w:p w:rsidR="00AB"><w:r><w:t>Budget session</w:t></w:r><w:r><w:t xml:space="preserve"> opens</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Second paragraph</w:t></w:r></w:p>` +
		`</w:body></w:document>`
	got, err := e.ExtractBytes(buildDocx("word/document.xml", body, false), ".docx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Budget session opens\nSecond paragraph" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_docxBodyFromContentTypes(t *testing.T) {
	e := NewExtractor(nil)
	body := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>Content from document2</w:t></w:r></w:p></w:body></w:document>`
	got, err := e.ExtractBytes(buildDocx("word/document2.xml", body, true), ".docx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Content from document2" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_docxNotZip(t *testing.T) {
	e := NewExtractor(nil)
	if _, err := e.ExtractBytes([]byte("not a zip"), ".docx"); err == nil {
		t.Error("expected error for invalid docx")
	}
}

func TestExtractBytes_xlsx(t *testing.T) {
	f := excelize.NewFile()
	if err := f.SetCellValue("Sheet1", "A1", "Scheme"); err != nil {
		t.Fatal(err)
	}
	if err := f.SetCellValue("Sheet1", "B1", "Launched"); err != nil {
		t.Fatal(err)
	}
	if err := f.SetCellValue("Sheet1", "A2", "PM-KISAN"); err != nil {
		t.Fatal(err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	e := NewExtractor(nil)
	got, err := e.ExtractBytes(buf.Bytes(), ".xlsx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Scheme\tLaunched\nPM-KISAN" {
		t.Errorf("got %q", got)
	}
}

func TestExtract_missingFile(t *testing.T) {
	e := NewExtractor(nil)
	if _, err := e.Extract(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestExtractReference_pdfBlob(t *testing.T) {
	e := NewExtractor(nil)
	ref := models.NewPDFBlob("gazette.pdf", buildPDF("Cabinet approved the scheme on 05.03.2024. More follows."))
	doc, err := e.ExtractReference(context.Background(), ref, testDate)
	if err != nil {
		t.Fatalf("ExtractReference: %v", err)
	}
	if !strings.Contains(doc.FullText, "Cabinet approved the scheme") {
		t.Errorf("full text = %q", doc.FullText)
	}
	if doc.Title != "gazette.pdf" {
		t.Errorf("title = %q, want file name", doc.Title)
	}
	if doc.Summary == "" {
		t.Error("expected lead-sentence summary")
	}
	if !doc.SourceDate.Equal(testDate) {
		t.Errorf("source date = %v", doc.SourceDate)
	}
}

func TestExtractReference_corruptPDF(t *testing.T) {
	e := NewExtractor(nil)
	ref := models.NewPDFBlob("broken.pdf", []byte("%PDF-garbage"))
	_, err := e.ExtractReference(context.Background(), ref, testDate)
	var extractionErr *models.ExtractionError
	if !errors.As(err, &extractionErr) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
	if extractionErr.Location != "broken.pdf" {
		t.Errorf("location = %q", extractionErr.Location)
	}
}

func TestExtractReference_localFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("Monetary policy held. Rates unchanged."), 0600); err != nil {
		t.Fatal(err)
	}
	e := NewExtractor(nil)
	doc, err := e.ExtractReference(context.Background(), models.NewLocalFile(path), testDate)
	if err != nil {
		t.Fatalf("ExtractReference: %v", err)
	}
	if doc.FullText != "Monetary policy held. Rates unchanged." {
		t.Errorf("full text = %q", doc.FullText)
	}
}

func TestExtractReference_webWithoutFetcher(t *testing.T) {
	e := NewExtractor(nil)
	_, err := e.ExtractReference(context.Background(), models.NewWebArticle("https://example.com/a", ""), testDate)
	var extractionErr *models.ExtractionError
	if !errors.As(err, &extractionErr) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
}

func TestExtractReference_emptyReference(t *testing.T) {
	e := NewExtractor(nil)
	_, err := e.ExtractReference(context.Background(), models.DocumentReference{Kind: models.KindPDF}, testDate)
	if !errors.Is(err, errEmptyReference) {
		t.Errorf("expected errEmptyReference, got %v", err)
	}
}

// buildDocx returns a .docx package with body stored at bodyPath. When withTypes is set,
// [Content_Types].xml names bodyPath as the main document part.
func buildDocx(bodyPath, body string, withTypes bool) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	if withTypes {
		ct, _ := w.Create("[Content_Types].xml")
		_, _ = ct.Write([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Override PartName="/` + bodyPath + `" ContentType="` + docxMainType + `"/>
</Types>`))
	}
	fw, _ := w.Create(bodyPath)
	_, _ = fw.Write([]byte(body))
	_ = w.Close()
	return buf.Bytes()
}
