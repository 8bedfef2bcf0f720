package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cleanser/internal/artist"
)

// Row builds one CSV data line with sensible defaults for every column.
// Overrides are keyed by column index.
func Row(id string, overrides map[int]string) []string {
	fields := []string{
		"2024-01-01",
		id,
		"artist " + id,
		"1000",
		"50",
		"2000",
		"['pop']",
		"2015",
		"2024",
		"3",
		"30",
		"Top Hits",
		"[]",
	}
	for idx, value := range overrides {
		fields[idx] = value
	}
	return fields
}

// WriteSourceCSV writes the canonical header followed by rows to path. Fields
// are quoted when they contain a comma, quote, or newline.
func WriteSourceCSV(t testing.TB, path string, rows ...[]string) {
	t.Helper()

	var b strings.Builder
	b.WriteString(artist.HeaderString())
	b.WriteByte('\n')
	for _, row := range rows {
		for i, field := range row {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(quoteField(field))
		}
		b.WriteByte('\n')
	}
	WriteFile(t, path, b.String())
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func quoteField(field string) string {
	if !strings.ContainsAny(field, ",\"\n\r") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}
