package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/sma-import-api/pkg/errors"
)

const (
	xlsxMIME   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	legacyXLS  = "application/vnd.ms-excel"
	zipArchive = "application/zip"
)

// limitBody caps the request body before any multipart parsing happens.
func limitBody(c *gin.Context, maxBytes int64) {
	if maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	}
}

// readWorkbook loads the "file" form field and checks that it is an xlsx
// workbook. Legacy .xls files are refused.
func readWorkbook(c *gin.Context, maxBytes int64) ([]byte, error) {
	header, err := c.FormFile("file")
	if err != nil {
		if tooLarge(err) {
			return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("file exceeds %d bytes", maxBytes))
		}
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if maxBytes > 0 && header.Size > maxBytes {
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("file exceeds %d bytes", maxBytes))
	}

	src, err := header.Open()
	if err != nil {
		return nil, appErrors.Internal(err, "failed to open file")
	}
	defer src.Close() //nolint:errcheck

	body, err := io.ReadAll(src)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to read file")
	}

	detected := mimetype.Detect(body)
	switch {
	case detected.Is(xlsxMIME), detected.Is(zipArchive):
		return body, nil
	case detected.Is(legacyXLS):
		return nil, appErrors.Clone(appErrors.ErrUnsupportedMedia, "legacy .xls workbooks are not supported, save the file as .xlsx")
	default:
		return nil, appErrors.Clone(appErrors.ErrUnsupportedMedia, fmt.Sprintf("unsupported file type %s, expected an .xlsx workbook", detected.String()))
	}
}

func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large")
}
