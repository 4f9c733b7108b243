package rota

import (
	"encoding/json"
	"strings"
)

// Column names the pipeline reads or rewrites.
const (
	ColumnShiftInstructions   = "Shift Instructions"
	ColumnVolunteersConfirmed = "Volunteers Confirmed"
	ColumnStatus              = "Status"
)

// Status is the derived staffing state of a shift.
type Status string

const (
	StatusRunning    Status = "Running"
	StatusInProgress Status = "In Progress"
	StatusRecruiting Status = "Recruiting"
)

// Classify derives a Status from the "Volunteers Confirmed" text.
// A shift needs both an optometrist and an assistant to run.
func Classify(volunteers string) Status {
	lower := strings.ToLower(volunteers)
	hasOptometrist := strings.Contains(lower, "optometrist")
	hasAssistant := strings.Contains(lower, "assistant")

	switch {
	case hasOptometrist && hasAssistant:
		return StatusRunning
	case hasOptometrist || hasAssistant:
		return StatusInProgress
	default:
		return StatusRecruiting
	}
}

// Record is a rota row as exposed downstream: shift instructions removed and
// a Status column appended.
type Record struct {
	Row    RawRow
	Status Status
}

// NewRecord builds a Record from a deduplicated row. The input row is not modified.
func NewRecord(row RawRow) Record {
	out := row.Clone()
	out.Delete(ColumnShiftInstructions)

	status := Classify(row.Value(ColumnVolunteersConfirmed))
	out.Set(ColumnStatus, string(status))

	return Record{Row: out, Status: status}
}

// MarshalJSON encodes the record as a single flat object, Status included.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Row)
}

// Columns returns the union of column names across records in first-seen order.
func Columns(records []Record) []string {
	seen := make(map[string]bool)
	var cols []string
	for _, rec := range records {
		for _, k := range rec.Row.keys {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	return cols
}
