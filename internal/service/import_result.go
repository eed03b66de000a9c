package service

import (
	"net/http"

	"github.com/noah-isme/sma-import-api/internal/models"
	"github.com/noah-isme/sma-import-api/pkg/spreadsheet"
)

// Row outcome labels used in metrics and reports.
const (
	outcomeImported = "imported"
	outcomeSkipped  = "skipped"
	outcomeError    = "error"
)

// importAggregator records exactly one outcome per row.
type importAggregator struct {
	result  *models.ImportResult
	metrics *MetricsService
}

func newImportAggregator(kind models.ImportType, totalRows int, metrics *MetricsService) *importAggregator {
	return &importAggregator{
		result: &models.ImportResult{
			ImportType: kind,
			TotalRows:  totalRows,
			Errors:     []models.RowError{},
			Skipped:    []models.SkippedRow{},
			Warnings:   []models.RowWarning{},
		},
		metrics: metrics,
	}
}

func (a *importAggregator) imported(row spreadsheet.Row, warnings []string) {
	a.result.SuccessfulImports++
	for _, w := range warnings {
		a.result.Warnings = append(a.result.Warnings, models.RowWarning{Row: row.Index, Message: w})
	}
	a.metrics.ObserveImportRow(string(a.result.ImportType), outcomeImported)
}

func (a *importAggregator) skipped(row spreadsheet.Row, reason string) {
	a.result.Skipped = append(a.result.Skipped, models.SkippedRow{Row: row.Index, Data: echoRow(row), Reason: reason})
	a.metrics.ObserveImportRow(string(a.result.ImportType), outcomeSkipped)
}

func (a *importAggregator) failed(row spreadsheet.Row, err error) {
	a.result.Errors = append(a.result.Errors, models.RowError{Row: row.Index, Data: echoRow(row), Error: err.Error()})
	a.metrics.ObserveImportRow(string(a.result.ImportType), outcomeError)
}

// ImportStatus maps a result to its HTTP status: 200 without row errors,
// 207 Multi-Status otherwise. Skips alone never downgrade the status.
func ImportStatus(result *models.ImportResult) int {
	if result == nil || len(result.Errors) == 0 {
		return http.StatusOK
	}
	return http.StatusMultiStatus
}

// HistoricalMarkStatus applies the same policy to a historical-marks result.
func HistoricalMarkStatus(result *models.HistoricalMarkImportResult) int {
	if result == nil || result.Stats.Errors == 0 {
		return http.StatusOK
	}
	return http.StatusMultiStatus
}
