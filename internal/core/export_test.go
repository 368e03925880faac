package core

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

func TestExport_RoundTripsSpecialCharacters(t *testing.T) {
	def := rosterDef()
	records := []Record{
		{"id": 1, "name": "Smith, Jr.", "email": `a"b@example.com`, "hours": 12.5, "role": "staff", "joined": "2024-01-15"},
		{"id": 2, "name": "Line\nBreak", "role": "volunteer"},
	}

	data, err := Export(records, ExportFields(def))
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("parse export: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}

	wantHeader := []string{"ID", "Name", "Email", "Attendance", "Hours", "Role", "Join Date"}
	if !slices.Equal(rows[0], wantHeader) {
		t.Errorf("header = %v, want %v", rows[0], wantHeader)
	}
	if rows[1][1] != "Smith, Jr." {
		t.Errorf("name = %q, want %q", rows[1][1], "Smith, Jr.")
	}
	if rows[1][2] != `a"b@example.com` {
		t.Errorf("email = %q", rows[1][2])
	}
	if rows[1][4] != "12.5" || rows[1][6] != "2024-01-15" {
		t.Errorf("row = %v", rows[1])
	}
	if rows[2][1] != "Line\nBreak" {
		t.Errorf("multiline name = %q", rows[2][1])
	}
	if rows[2][3] != "" {
		t.Errorf("missing attendance = %q, want empty cell", rows[2][3])
	}
}

func TestExport_EmptyInputIsHeaderOnly(t *testing.T) {
	data, err := Export(nil, ExportFields(rosterDef()))
	if err != nil {
		t.Fatalf("Export(nil) error = %v", err)
	}
	want := "ID,Name,Email,Attendance,Hours,Role,Join Date\n"
	if string(data) != want {
		t.Errorf("Export(nil) = %q, want %q", data, want)
	}
}

func TestExport_LineEndingsAndOrder(t *testing.T) {
	fields := []ExportField{{Name: "name", Label: "Name"}}
	records := []Record{{"name": "Zed"}, {"name": "Amy"}, {"name": "Max"}}

	data, err := Export(records, fields)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "\r\n") {
		t.Error("export uses CRLF, want LF")
	}
	if got, want := string(data), "Name\nZed\nAmy\nMax\n"; got != want {
		t.Errorf("Export() = %q, want %q (input order kept)", got, want)
	}
}

func TestExport_CRLFInCellWrittenAsLF(t *testing.T) {
	fields := []ExportField{{Name: "notes", Label: "Notes"}}

	data, err := Export([]Record{{"notes": "first\r\nsecond"}}, fields)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(data), "Notes\n\"first\nsecond\"\n"; got != want {
		t.Errorf("Export() = %q, want %q", got, want)
	}

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if rows[1][0] != "first\nsecond" {
		t.Errorf("read back %q", rows[1][0])
	}
}

func TestExport_Pure(t *testing.T) {
	def := rosterDef()
	a, err := Export(volunteers(), ExportFields(def))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Export(volunteers(), ExportFields(def))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("two exports of the same input differ")
	}
}

func TestExport_DateLayout(t *testing.T) {
	fields := []ExportField{{Name: "start", Label: "Start", Type: FieldDate, Layout: "2006-01-02 15:04"}}
	at := time.Date(2025, 3, 9, 14, 30, 0, 0, time.UTC)

	data, err := Export([]Record{{"start": at}}, fields)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(data), "Start\n2025-03-09 14:30\n"; got != want {
		t.Errorf("Export() = %q, want %q", got, want)
	}
}

func TestExportFilename(t *testing.T) {
	now := time.Date(2025, 7, 4, 23, 59, 0, 0, time.UTC)
	if got, want := ExportFilename("users", now), "users_2025-07-04.csv"; got != want {
		t.Errorf("ExportFilename() = %q, want %q", got, want)
	}
}

func TestFileSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	sink := FileSink{Dir: dir}

	if err := sink.Save([]byte("a\n"), "users_2025-07-04.csv"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := sink.Save([]byte("b\n"), "users_2025-07-04.csv"); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "users_2025-07-04.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "b\n" {
		t.Errorf("file = %q, want replaced content", got)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("dir has %d entries, want 1 (temp files cleaned up)", len(entries))
	}
}

func TestFileSink_RejectsPaths(t *testing.T) {
	sink := FileSink{Dir: t.TempDir()}
	if err := sink.Save([]byte("x"), "../escape.csv"); err == nil {
		t.Error("Save() with a path filename should fail")
	}
}

func TestWriterSinkAndSinkFunc(t *testing.T) {
	var buf bytes.Buffer
	if err := (WriterSink{W: &buf}).Save([]byte("data"), "ignored.csv"); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "data" {
		t.Errorf("WriterSink wrote %q", buf.String())
	}

	boom := errors.New("boom")
	var gotName string
	err := SinkFunc(func(_ []byte, name string) error {
		gotName = name
		return boom
	}).Save(nil, "x.csv")
	if !errors.Is(err, boom) || gotName != "x.csv" {
		t.Errorf("SinkFunc: err = %v, name = %q", err, gotName)
	}
}
