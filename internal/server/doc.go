// Package server exposes the merged rota over HTTP.
//
// Routes:
//   - GET / and /api: service status and endpoint index
//   - GET /api/merged-rota and /merged-rota: merged rota as JSON, or as an HTML
//     table with ?format=html
//   - GET /rota.html: static frontend
//   - GET /metrics: Prometheus text exposition of fetch and aggregation metrics
//
// Every response carries permissive CORS headers and OPTIONS requests are answered
// with an empty 200.
package server
