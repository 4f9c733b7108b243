package cli

import (
	"sort"

	"github.com/pfrederiksen/rota-merge/internal/rota"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortBySource SortOrder = "source"
	SortByStatus SortOrder = "status"
)

// statusRank puts shifts that still need volunteers first.
var statusRank = map[rota.Status]int{
	rota.StatusRecruiting: 0,
	rota.StatusInProgress: 1,
	rota.StatusRunning:    2,
}

// sortRecords reorders records for display. SortBySource keeps merge order;
// SortByStatus is stable, so merge order is kept within each status.
func sortRecords(records []rota.Record, order SortOrder) {
	if order != SortByStatus {
		return
	}
	sort.SliceStable(records, func(i, j int) bool {
		return statusRank[records[i].Status] < statusRank[records[j].Status]
	})
}
