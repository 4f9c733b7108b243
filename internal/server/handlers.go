package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/pfrederiksen/rota-merge/internal/logger"
	"github.com/pfrederiksen/rota-merge/internal/rota"
	"github.com/prometheus/common/expfmt"
)

const (
	msgNoData        = "No data available. Check logs."
	msgNotFound      = "Endpoint not found"
	msgInternalError = "Internal server error"
)

// StatusResponse is returned by / and /api.
type StatusResponse struct {
	Message   string    `json:"message"`
	Endpoints Endpoints `json:"endpoints"`
}

// Endpoints lists the public paths of the service.
type Endpoints struct {
	Home       string `json:"home"`
	MergedRota string `json:"mergedRota"`
	Frontend   string `json:"frontend"`
}

// MergedRotaResponse is the success body of the merged-rota endpoints.
type MergedRotaResponse struct {
	Success bool          `json:"success"`
	Data    []rota.Record `json:"data"`
	Count   int           `json:"count"`
}

// ErrorResponse is the body of every JSON error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/api" {
		logger.Debug("Unknown endpoint", logger.Fields{"path": r.URL.Path, "method": r.Method})
		jsonResp(w, http.StatusNotFound, ErrorResponse{Error: msgNotFound})
		return
	}

	logger.Info("Home page accessed", logger.Fields{"path": r.URL.Path})
	jsonResp(w, http.StatusOK, StatusResponse{
		Message: "Rota Merge API is Running!",
		Endpoints: Endpoints{
			Home:       "/",
			MergedRota: "/api/merged-rota",
			Frontend:   "/" + staticPage,
		},
	})
}

func (s *Server) handleMergedRota(w http.ResponseWriter, r *http.Request) {
	logger.Info("Merged rota requested", logger.Fields{"path": r.URL.Path})

	records, err := s.aggregator().Aggregate(r.Context())
	switch {
	case errors.Is(err, rota.ErrNoDataAvailable), err == nil && len(records) == 0:
		logger.Error("No rota data available", nil, err)
		jsonResp(w, http.StatusInternalServerError, ErrorResponse{Error: msgNoData})
		return
	case err != nil:
		logger.Error("Aggregation failed", nil, err)
		jsonResp(w, http.StatusInternalServerError, ErrorResponse{Error: msgInternalError, Message: err.Error()})
		return
	}

	if r.URL.Query().Get("format") == "html" {
		renderTable(w, records)
		return
	}

	jsonResp(w, http.StatusOK, MergedRotaResponse{
		Success: true,
		Data:    records,
		Count:   len(records),
	})
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if s.assets == nil {
		http.Error(w, "Error loading "+staticPage+": no static assets configured", http.StatusInternalServerError)
		return
	}

	content, err := fs.ReadFile(s.assets, staticPage)
	if err != nil {
		logger.Error("Failed to read static page", logger.Fields{"file": staticPage}, err)
		http.Error(w, fmt.Sprintf("Error loading %s: %v", staticPage, err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(content); err != nil {
		logger.Error("Failed to write static page", nil, err)
	}
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", string(expfmt.NewFormat(expfmt.TypeTextPlain)))
	if err := s.metrics.WritePrometheus(w); err != nil {
		logger.Error("Failed to write metrics", nil, err)
	}
}

var tableTemplate = template.Must(template.New("rota").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>Merged Rota</title>
    <style>
        table { border-collapse: collapse; width: 100%; }
        th, td { border: 1px solid black; padding: 8px; text-align: left; }
        th { background-color: #f2f2f2; }
    </style>
</head>
<body>
    <h2>Merged Rota</h2>
    <table>
        <thead><tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead>
        <tbody>
{{- range .Rows}}
            <tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{- end}}
        </tbody>
    </table>
</body>
</html>
`))

// renderTable writes records as a single HTML table over the union of their columns.
func renderTable(w http.ResponseWriter, records []rota.Record) {
	columns := rota.Columns(records)
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		cells := make([]string, len(columns))
		for i, c := range columns {
			cells[i] = rec.Row.Value(c)
		}
		rows = append(rows, cells)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := tableTemplate.Execute(w, struct {
		Columns []string
		Rows    [][]string
	}{columns, rows})
	if err != nil {
		logger.Error("Failed to render rota table", nil, err)
	}
}

// jsonResp writes v as JSON with the given status code.
func jsonResp(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", nil, err)
	}
}
