// Package extract turns an uploaded assignment document into either plain
// text or a binary payload forwarded inline to the model.
package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"code.sajari.com/docconv/v2"

	"github.com/pavelanni/reassess/internal/model"
)

// MaxUploadBytes is the largest document accepted.
const MaxUploadBytes = 10 << 20

var (
	// ErrUnsupported indicates a file type the wizard cannot use.
	ErrUnsupported = errors.New("unsupported document type")
	// ErrTooLarge indicates the upload exceeds MaxUploadBytes.
	ErrTooLarge = errors.New("document too large")
	// ErrExtraction indicates a word-processing document could not be read.
	ErrExtraction = errors.New("document text extraction failed")
)

// binaryTypes are forwarded to the model as-is.
var binaryTypes = map[string]string{
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
}

// Document is the result of reading one upload. Exactly one of Text and File is set.
type Document struct {
	Name string
	Text string
	File *model.FilePayload
}

// IsBinary reports whether the document must travel as an inline file.
func (d Document) IsBinary() bool { return d.File != nil }

// Extract reads name/data into a Document. .docx and plain text become text;
// PDF and images become a binary payload.
func Extract(name string, data []byte) (Document, error) {
	if len(data) > MaxUploadBytes {
		return Document{}, fmt.Errorf("%w: %d bytes", ErrTooLarge, len(data))
	}
	ext := strings.ToLower(filepath.Ext(name))
	doc := Document{Name: name}

	switch ext {
	case ".docx":
		text, err := DocxText(data)
		if err != nil {
			return Document{}, err
		}
		doc.Text = text
		return doc, nil
	case ".txt", ".md":
		if !utf8.Valid(data) {
			return Document{}, fmt.Errorf("%w: %s is not valid UTF-8", ErrExtraction, name)
		}
		doc.Text = strings.TrimSpace(string(data))
		return doc, nil
	}

	mime, ok := binaryTypes[ext]
	if !ok {
		// Fall back to content sniffing for uploads without a useful extension.
		sniffed := http.DetectContentType(data)
		if i := strings.IndexByte(sniffed, ';'); i >= 0 {
			sniffed = sniffed[:i]
		}
		for _, m := range binaryTypes {
			if m == sniffed {
				mime, ok = m, true
				break
			}
		}
	}
	if !ok {
		return Document{}, fmt.Errorf("%w: %s", ErrUnsupported, name)
	}
	doc.File = &model.FilePayload{Name: name, Data: data, MIMEType: mime}
	return doc, nil
}

// DocxText returns the text of a Word document, one non-empty line per
// paragraph. The XML parts may not expand past MaxUploadBytes.
func DocxText(data []byte) (string, error) {
	if err := checkExpandedSize(data); err != nil {
		return "", err
	}
	raw, _, err := docconv.ConvertDocx(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	if len(raw) > MaxUploadBytes {
		return "", fmt.Errorf("%w: extracted text exceeds %d bytes", ErrTooLarge, MaxUploadBytes)
	}
	return normalizeLines(raw), nil
}

// checkExpandedSize rejects archives without a main document or whose XML
// parts declare more than MaxUploadBytes once inflated. archive/zip fails
// reads that run past the declared size, so the header cannot understate it.
func checkExpandedSize(data []byte) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("%w: open docx: %w", ErrExtraction, err)
	}
	var (
		total   uint64
		hasBody bool
	)
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			hasBody = true
		}
		if !strings.HasSuffix(f.Name, ".xml") && !strings.HasSuffix(f.Name, ".rels") {
			continue
		}
		total += f.UncompressedSize64
		if total > MaxUploadBytes {
			return fmt.Errorf("%w: document expands past %d bytes", ErrTooLarge, MaxUploadBytes)
		}
	}
	if !hasBody {
		return fmt.Errorf("%w: word/document.xml not found", ErrExtraction)
	}
	return nil
}

func normalizeLines(s string) string {
	var out []string
	for line := range strings.Lines(s) {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
