package scraper

import (
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/pfrederiksen/rota-merge/internal/rota"
)

func extract(t *testing.T, html string) []rota.RawRow {
	t.Helper()
	rows, err := NewExtractor("").ExtractReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("ExtractReader() error: %v", err)
	}
	return rows
}

func TestExtract_Fixture(t *testing.T) {
	data, err := os.ReadFile("../../testdata/fixtures/sample_rota.html")
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}

	rows := extract(t, string(data))

	if len(rows) != 3 {
		t.Fatalf("expected 3 rows (spacer row dropped), got %d", len(rows))
	}

	wantKeys := []string{"Date", "Clinic", "Shift Instructions", "Volunteers Confirmed", "Column_4"}
	for i, row := range rows {
		if got := row.Keys(); !reflect.DeepEqual(got, wantKeys) {
			t.Errorf("rows[%d] keys = %v, want %v", i, got, wantKeys)
		}
	}

	if got := rows[0].Value("Volunteers Confirmed"); got != "Dr. Patel (Optometrist), Sam (Assistant)" {
		t.Errorf("rows[0] volunteers = %q", got)
	}
	if got := rows[0].Value("Column_4"); got != "Sign up" {
		t.Errorf("rows[0] Column_4 = %q, want 'Sign up'", got)
	}
	// short row is padded
	if got, ok := rows[2].Get("Column_4"); !ok || got != "" {
		t.Errorf("rows[2] Column_4 = %q (present %v), want empty string", got, ok)
	}
	// only the first table is read
	for _, row := range rows {
		if _, ok := row.Get("Phone"); ok {
			t.Error("row contains a column from the second table")
		}
	}
}

func TestExtract_EdgeCases(t *testing.T) {
	tests := []struct {
		name string
		html string
		want [][]string // alternating key/value pairs per row
	}{
		{
			name: "no table",
			html: `<html><body><p>Rota coming soon</p></body></html>`,
			want: nil,
		},
		{
			name: "header fallback with th first row",
			html: `<table>
				<tr><th>Date</th><th>Clinic</th></tr>
				<tr><td>Mon</td><td>North</td></tr>
				<tr><td>Tue</td><td>South</td></tr>
			</table>`,
			want: [][]string{
				{"Date", "Mon", "Clinic", "North"},
				{"Date", "Tue", "Clinic", "South"},
			},
		},
		{
			name: "header fallback with td first row",
			html: `<table>
				<tr><td>Date</td><td>Clinic</td></tr>
				<tr><td>Mon</td><td>North</td></tr>
			</table>`,
			want: [][]string{
				{"Date", "Mon", "Clinic", "North"},
			},
		},
		{
			name: "explicit thead",
			html: `<table>
				<thead><tr><th>Date</th><th>Clinic</th></tr></thead>
				<tbody>
					<tr><td>Mon</td><td>North</td></tr>
					<tr><td>Tue</td><td>South</td></tr>
				</tbody>
			</table>`,
			want: [][]string{
				{"Date", "Mon", "Clinic", "North"},
				{"Date", "Tue", "Clinic", "South"},
			},
		},
		{
			name: "extra cells ignored and missing cells padded",
			html: `<table>
				<tr><th>A</th><th>B</th></tr>
				<tr><td>1</td><td>2</td><td>3</td></tr>
				<tr><td>4</td></tr>
			</table>`,
			want: [][]string{
				{"A", "1", "B", "2"},
				{"A", "4", "B", ""},
			},
		},
		{
			name: "blank header gets synthetic name",
			html: `<table>
				<tr><th>Date</th><th> </th></tr>
				<tr><td>Mon</td><td>x</td></tr>
			</table>`,
			want: [][]string{
				{"Date", "Mon", "Column_1", "x"},
			},
		},
		{
			name: "empty rows dropped",
			html: `<table>
				<tr><th>A</th></tr>
				<tr></tr>
				<tr><td>1</td></tr>
			</table>`,
			want: [][]string{
				{"A", "1"},
			},
		},
		{
			name: "nested markup and whitespace trimmed",
			html: `<table>
				<tr><th>
					Volunteers
				</th></tr>
				<tr><td>  <span>Ann</span> <em>(Optometrist)</em>  </td></tr>
			</table>`,
			want: [][]string{
				{"Volunteers", "Ann (Optometrist)"},
			},
		},
		{
			name: "header only",
			html: `<table><tr><th>A</th><th>B</th></tr></table>`,
			want: nil,
		},
		{
			name: "nested table rows not read",
			html: `<table>
				<tr><th>A</th></tr>
				<tr><td><table><tr><td>inner</td></tr></table></td></tr>
			</table>`,
			want: [][]string{
				{"A", "inner"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := extract(t, tt.html)

			if len(rows) != len(tt.want) {
				t.Fatalf("Extract() returned %d rows, want %d", len(rows), len(tt.want))
			}
			for i, pairs := range tt.want {
				want := rota.NewRawRow(pairs...)
				if !rows[i].Equal(want) || !reflect.DeepEqual(rows[i].Keys(), want.Keys()) {
					t.Errorf("rows[%d] = %v, want %v", i, rowPairs(rows[i]), pairs)
				}
			}
		})
	}
}

func TestExtract_Idempotent(t *testing.T) {
	data, err := os.ReadFile("../../testdata/fixtures/sample_rota.html")
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}

	first := extract(t, string(data))
	second := extract(t, string(data))

	if len(first) != len(second) {
		t.Fatalf("row counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].Equal(second[i]) {
			t.Errorf("rows[%d] differ between runs", i)
		}
	}
}

func TestExtract_CustomSelector(t *testing.T) {
	data, err := os.ReadFile("../../testdata/fixtures/sample_rota.html")
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}

	rows, err := NewExtractor("table.contacts").ExtractReader(strings.NewReader(string(data)))
	if err != nil {
		t.Fatalf("ExtractReader() error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if got := rows[0].Value("Phone"); got != "0123" {
		t.Errorf("Phone = %q, want 0123", got)
	}
}

func TestNewExtractor_DefaultSelector(t *testing.T) {
	if got := NewExtractor("  ").Selector(); got != DefaultTableSelector {
		t.Errorf("Selector() = %q, want %q", got, DefaultTableSelector)
	}
}

func rowPairs(r rota.RawRow) []string {
	var pairs []string
	for _, k := range r.Keys() {
		pairs = append(pairs, k, r.Value(k))
	}
	return pairs
}
