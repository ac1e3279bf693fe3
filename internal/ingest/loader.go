// Package ingest loads curriculum files into documents for chunking and
// indexing. It is a collaborator of the pipeline core: encoding and
// format handling stay here.
package ingest

import (
	"bytes"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"tutor-rag/internal/models"
)

// LoadFile reads one curriculum file (.pdf, .docx, .xlsx, .md, .txt)
// into a Document. The document id is the file's base name so repeated
// ingestion of the same file yields identical chunk ids.
func LoadFile(path string) (models.Document, error) {
	var (
		text string
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".pdf":
		text, err = loadPDF(path)
	case ".docx":
		text, err = loadDOCX(path)
	case ".xlsx":
		text, err = loadXLSX(path)
	case ".md":
		text, err = loadMarkdown(path)
	case ".txt":
		text, err = loadText(path)
	default:
		return models.Document{}, fmt.Errorf("unsupported file format: %s", ext)
	}
	if err != nil {
		return models.Document{}, fmt.Errorf("failed to load %s: %w", path, err)
	}

	base := filepath.Base(path)
	title := strings.TrimSuffix(base, filepath.Ext(base))
	return models.Document{
		ID:      base,
		RawText: text,
		SourceMeta: models.SourceMeta{
			Title:   title,
			Subject: InferSubject(base),
			Path:    path,
		},
	}, nil
}

// LoadDir walks a directory and loads every supported file in it.
// Unsupported or unreadable files are logged and skipped.
func LoadDir(root string) ([]models.Document, error) {
	var docs []models.Document
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		doc, err := LoadFile(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("skipping file")
			return nil
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return docs, nil
}

// InferSubject guesses the curriculum subject from a filename.
func InferSubject(filename string) string {
	lower := strings.ToLower(filename)
	subjects := []struct {
		subject  string
		keywords []string
	}{
		{"mathematics", []string{"math", "algebra", "geometry", "calculus"}},
		{"science", []string{"science", "physics", "chemistry", "biology"}},
		{"history", []string{"history", "social", "studies"}},
		{"english", []string{"english", "literature", "language", "writing"}},
		{"computer", []string{"computer", "programming", "coding", "cs"}},
	}
	for _, entry := range subjects {
		for _, keyword := range entry.keywords {
			if strings.Contains(lower, keyword) {
				return entry.subject
			}
		}
	}
	return models.SubjectGeneral
}

func loadPDF(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return "", err
	}
	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		pageText, err := reader.Page(i).GetPlainText(nil)
		if err != nil {
			return "", err
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func loadDOCX(path string) (string, error) {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", err
	}
	defer r.Close()
	return stripTags(r.Editable().GetContent()), nil
}

func loadXLSX(path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var sb strings.Builder
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}
		sb.WriteString("Sheet: " + sheetName + "\n")
		for _, row := range rows {
			sb.WriteString(strings.Join(row, "\t"))
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

// loadMarkdown renders the markdown and strips the markup so headings
// and emphasis don't pollute the indexed text.
func loadMarkdown(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var buf bytes.Buffer
	if err := md.Convert(data, &buf); err != nil {
		return "", err
	}
	return stripTags(buf.String()), nil
}

func loadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func stripTags(s string) string {
	var sb strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			sb.WriteRune(' ')
		case !inTag:
			sb.WriteRune(r)
		}
	}
	return html.UnescapeString(strings.TrimSpace(sb.String()))
}
