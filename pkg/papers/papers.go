// Package papers loads local paper files for ingestion: recursive discovery
// of PDF and plain-text files and text extraction.
package papers

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/xhad/biorag/internal/models"
)

// FindPaperFiles recursively finds all .pdf and .txt files under dir.
func FindPaperFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".pdf", ".txt":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %v", dir, err)
	}

	return files, nil
}

// LoadPaper reads a paper file and returns it as a models.Paper. The title
// defaults to the file name without its extension.
func LoadPaper(path string) (models.Paper, error) {
	var content string
	var err error

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		content, err = extractPDFText(path)
	case ".txt":
		var data []byte
		data, err = os.ReadFile(path)
		content = string(data)
	default:
		return models.Paper{}, fmt.Errorf("unsupported file type: %s", ext)
	}
	if err != nil {
		return models.Paper{}, fmt.Errorf("failed to read %s: %v", path, err)
	}

	name := filepath.Base(path)
	title := strings.TrimSuffix(name, filepath.Ext(name))

	return models.Paper{
		Title:   title,
		Content: content,
		Metadata: map[string]interface{}{
			"filename": name,
			"filepath": path,
			"type":     strings.TrimPrefix(ext, "."),
		},
	}, nil
}

func extractPDFText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", err
	}

	return buf.String(), nil
}
