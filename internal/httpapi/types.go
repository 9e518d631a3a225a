// Package httpapi provides the JSON REST API of the screener dashboard,
// serving the same views as the gRPC service and the TUI client.
package httpapi

import "screener/internal/dashboard"

// DatesResponse lists available snapshot dates, most recent first.
type DatesResponse struct {
	Dates []string `json:"dates"`
}

// WatchlistResponse lists watched symbols.
type WatchlistResponse struct {
	Symbols []string `json:"symbols"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// The dashboard views are served as-is.
type (
	SnapshotsResponse = dashboard.SnapshotsView
	StockResponse     = dashboard.StockDetail
	HeatmapResponse   = dashboard.HeatmapView
	HistoryResponse   = dashboard.HistoryView
)
