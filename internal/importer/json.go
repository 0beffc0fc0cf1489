package importer

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"tasklist/internal/fsutil"
	"tasklist/internal/storage"
)

// JSONImporter reads the native document format, including documents
// written by older versions without created_date/completed_date.
type JSONImporter struct {
	opts Options
}

// Name returns the importer name.
func (j *JSONImporter) Name() string {
	return "json"
}

// Parse decodes a native document.
func (j *JSONImporter) Parse(reader io.Reader) (*storage.Document, error) {
	return storage.DecodeDocument(reader, j.opts.now())
}

// Export writes doc to path in the native format.
func Export(path string, doc *storage.Document) error {
	var buf bytes.Buffer
	if err := storage.EncodeDocument(&buf, doc); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	if err := fsutil.WriteFileAtomic(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

// ExportIfAbsent is Export that refuses to overwrite an existing file.
func ExportIfAbsent(path string, doc *storage.Document) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	return Export(path, doc)
}
