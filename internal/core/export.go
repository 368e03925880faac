package core

// export.go renders curated records as CSV and hands them to a sink.
//
// Output is comma-delimited, double-quote quoted where needed, LF-terminated
// UTF-8 with a mandatory header row. CRLF inside a cell is written as LF.
// Export never re-filters or re-sorts: rows appear exactly in the order
// given. Only the suggested filename depends on the clock.

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ExportField is one exported column.
type ExportField struct {
	Name   string
	Label  string
	Type   FieldType
	Layout string
}

// ExportFields returns the columns of def in display order.
func ExportFields(def TableDefinition) []ExportField {
	fields := make([]ExportField, 0, len(def.Info.Columns))
	for _, col := range def.Info.Columns {
		f, ok := def.Field(col)
		if !ok {
			fields = append(fields, ExportField{Name: col, Label: col})
			continue
		}
		fields = append(fields, ExportField{Name: f.Name, Label: f.HeaderLabel(), Type: f.Type, Layout: f.Layout})
	}
	return fields
}

// Export encodes records as CSV. An empty sequence yields a header-only file.
func Export(records []Record, fields []ExportField) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := make([]string, len(fields))
	for i, f := range fields {
		header[i] = f.Label
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrExportFailed, err)
	}

	row := make([]string, len(fields))
	for _, r := range records {
		for i, f := range fields {
			row[i] = strings.ReplaceAll(formatField(r[f.Name], f.Type, f.Layout), "\r\n", "\n")
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("%w: row: %w", ErrExportFailed, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	return buf.Bytes(), nil
}

// ExportFilename suggests "<table>_<YYYY-MM-DD>.csv".
func ExportFilename(table string, now time.Time) string {
	return fmt.Sprintf("%s_%s.csv", table, now.Format(DateLayout))
}

func saveExport(sink DownloadSink, data []byte, filename string) error {
	if err := sink.Save(data, filename); err != nil {
		return fmt.Errorf("%w: save %s: %w", ErrExportFailed, filename, err)
	}
	return nil
}

// DownloadSink receives finished export bytes.
type DownloadSink interface {
	Save(data []byte, filename string) error
}

// SinkFunc adapts a function to DownloadSink.
type SinkFunc func(data []byte, filename string) error

// Save calls f.
func (f SinkFunc) Save(data []byte, filename string) error {
	return f(data, filename)
}

// WriterSink streams exports to W and ignores the filename.
type WriterSink struct {
	W io.Writer
}

// Save writes data to W.
func (s WriterSink) Save(data []byte, _ string) error {
	_, err := s.W.Write(data)
	return err
}

// FileSink writes exports into Dir, replacing any file of the same name.
type FileSink struct {
	Dir string
}

// Save writes to a temp file and renames it into place so readers never see
// a partial export.
func (s FileSink) Save(data []byte, filename string) error {
	if filename != filepath.Base(filename) {
		return fmt.Errorf("invalid export filename %q", filename)
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.Dir, ".export-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close export: %w", err)
	}
	return os.Rename(tmp.Name(), filepath.Join(s.Dir, filename))
}
