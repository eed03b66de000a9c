package service

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-import-api/internal/models"
	appErrors "github.com/noah-isme/sma-import-api/pkg/errors"
	"github.com/noah-isme/sma-import-api/pkg/export"
)

// Supported problem-row report formats.
const (
	ReportFormatCSV = "csv"
	ReportFormatPDF = "pdf"
)

var reportHeaders = []string{"row", "outcome", "message", "data"}

type reportStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
}

type reportSigner interface {
	Generate(batchID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (batchID, relPath string, expiresAt time.Time, err error)
}

// ImportReportWriter renders the skipped and failed rows of a batch into a
// downloadable file behind a signed link.
type ImportReportWriter struct {
	storage   reportStorage
	signer    reportSigner
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	urlPrefix string
	logger    *zap.Logger
}

// NewImportReportWriter constructs a report writer. Links are built as
// urlPrefix + "/import/reports/" + token.
func NewImportReportWriter(storage reportStorage, signer reportSigner, urlPrefix string, logger *zap.Logger) *ImportReportWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportReportWriter{
		storage:   storage,
		signer:    signer,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
		logger:    logger,
	}
}

// ValidFormat reports whether format names a supported report format.
// The empty string selects CSV.
func ValidFormat(format string) bool {
	switch strings.ToLower(format) {
	case "", ReportFormatCSV, ReportFormatPDF:
		return true
	}
	return false
}

// Write stores the report for result and returns its download URL. Results
// without skipped or failed rows produce no report.
func (w *ImportReportWriter) Write(batchID, format string, result *models.ImportResult) (string, error) {
	if w == nil || result == nil || len(result.Errors)+len(result.Skipped) == 0 {
		return "", nil
	}
	format = strings.ToLower(format)
	if format == "" {
		format = ReportFormatCSV
	}

	dataset := problemDataset(result)
	var (
		body []byte
		err  error
	)
	switch format {
	case ReportFormatCSV:
		body, err = w.csv.Render(dataset)
	case ReportFormatPDF:
		body, err = w.pdf.Render(dataset, fmt.Sprintf("%s import problems", result.ImportType))
	default:
		return "", fmt.Errorf("unsupported report format %q", format)
	}
	if err != nil {
		return "", fmt.Errorf("render %s report: %w", format, err)
	}

	relPath, err := w.storage.Save(path.Join(batchID, "problems."+format), body)
	if err != nil {
		return "", err
	}
	token, expiresAt, err := w.signer.Generate(batchID, relPath)
	if err != nil {
		return "", fmt.Errorf("sign report link: %w", err)
	}
	w.logger.Debug("import report stored", zap.String("batch_id", batchID), zap.String("path", relPath), zap.Time("expires_at", expiresAt))
	return w.urlPrefix + "/import/reports/" + token, nil
}

// Open validates a download token and opens the referenced report.
func (w *ImportReportWriter) Open(token string) (*os.File, string, error) {
	if w == nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "import reports are disabled")
	}
	batchID, relPath, _, err := w.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "report link is invalid or expired")
	}
	file, err := w.storage.Open(relPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, "", appErrors.Internal(err, "failed to open report")
	}
	return file, batchID + "-" + path.Base(relPath), nil
}

func problemDataset(result *models.ImportResult) export.Dataset {
	rows := make([]map[string]string, 0, len(result.Errors)+len(result.Skipped))
	for _, e := range result.Errors {
		rows = append(rows, map[string]string{
			"row":     strconv.Itoa(e.Row),
			"outcome": outcomeError,
			"message": e.Error,
			"data":    flattenRow(e.Data),
		})
	}
	for _, s := range result.Skipped {
		rows = append(rows, map[string]string{
			"row":     strconv.Itoa(s.Row),
			"outcome": outcomeSkipped,
			"message": s.Reason,
			"data":    flattenRow(s.Data),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, _ := strconv.Atoi(rows[i]["row"])
		b, _ := strconv.Atoi(rows[j]["row"])
		return a < b
	})
	return export.Dataset{Headers: reportHeaders, Rows: rows}
}

func flattenRow(data map[string]string) string {
	keys := make([]string, 0, len(data))
	for k, v := range data {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+data[k])
	}
	return strings.Join(parts, "; ")
}
