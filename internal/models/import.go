package models

// ImportType selects the onboarding schema applied to an uploaded sheet.
type ImportType string

const (
	ImportTeachers ImportType = "teachers"
	ImportStudents ImportType = "students"
)

// Valid reports whether t names a supported import.
func (t ImportType) Valid() bool {
	return t == ImportTeachers || t == ImportStudents
}

// RowError records a row that failed validation or persistence.
type RowError struct {
	Row   int               `json:"row"`
	Data  map[string]string `json:"data"`
	Error string            `json:"error"`
}

// SkippedRow records a row left untouched because its identity already exists.
type SkippedRow struct {
	Row    int               `json:"row"`
	Data   map[string]string `json:"data"`
	Reason string            `json:"reason"`
}

// RowWarning records a non-fatal problem on an otherwise imported row.
type RowWarning struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// DeletedUsers holds the counts removed by clear-existing mode.
type DeletedUsers struct {
	Teachers int64 `json:"teachers"`
	Students int64 `json:"students"`
	Parents  int64 `json:"parents"`
}

// ImportResult is the report returned for one onboarding upload.
type ImportResult struct {
	ImportType        ImportType    `json:"importType"`
	TotalRows         int           `json:"totalRows"`
	SuccessfulImports int           `json:"successfulImports"`
	Errors            []RowError    `json:"errors"`
	Skipped           []SkippedRow  `json:"skipped"`
	Warnings          []RowWarning  `json:"warnings"`
	DeletedUsers      *DeletedUsers `json:"deletedUsers,omitempty"`
	ReportURL         string        `json:"reportUrl,omitempty"`
}

// ImportStats lists entity counts shown next to the import form.
type ImportStats struct {
	Teachers int64 `db:"teachers" json:"teachers"`
	Students int64 `db:"students" json:"students"`
	Parents  int64 `db:"parents" json:"parents"`
	Classes  int64 `db:"classes" json:"classes"`
	Grades   int64 `db:"grades" json:"grades"`
	Subjects int64 `db:"subjects" json:"subjects"`
}

// HistoricalMarkStats summarises a historical-marks upload.
type HistoricalMarkStats struct {
	TotalRows int `json:"totalRows"`
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
}

// HistoricalMarkImportResult is the report returned for a historical-marks upload.
type HistoricalMarkImportResult struct {
	Stats      HistoricalMarkStats `json:"stats"`
	Errors     []RowError          `json:"errors"`
	TermID     string              `json:"termId,omitempty"`
	MarksSaved int                 `json:"marksSaved"`
}

// HistoricalMarkImportRequest carries the form fields of a historical-marks upload.
type HistoricalMarkImportRequest struct {
	TermName        string `form:"termName" validate:"required,max=100"`
	ClassID         string `form:"classId" validate:"required"`
	HistoricalGrade int    `form:"historicalGrade" validate:"required,min=1,max=12"`
}

// HistoricalMarkTemplateRequest selects the roster rendered into a template.
type HistoricalMarkTemplateRequest struct {
	ClassID         string `form:"classId" validate:"required"`
	HistoricalGrade int    `form:"historicalGrade" validate:"required,min=1,max=12"`
}
