package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-import-api/internal/models"
	appErrors "github.com/noah-isme/sma-import-api/pkg/errors"
	"github.com/noah-isme/sma-import-api/pkg/spreadsheet"
)

const (
	markStudentIDColumn   = "studentId"
	markStudentNameColumn = "studentName"
	historicalMarksKind   = "historical_marks"
)

var (
	markMin = decimal.Zero
	markMax = decimal.NewFromInt(100)

	unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)
)

type classFinder interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type rosterReader interface {
	ListRoster(ctx context.Context, classID string) ([]models.RosterEntry, error)
}

type subjectLister interface {
	subjectStore
	ListAll(ctx context.Context) ([]models.Subject, error)
}

type markWriter interface {
	Upsert(ctx context.Context, mark *models.HistoricalMark) error
}

// HistoricalMarkRepositories groups the stores used by historical-mark imports.
type HistoricalMarkRepositories struct {
	Classes  classFinder
	Students rosterReader
	Subjects subjectLister
	Terms    termStore
	Marks    markWriter
}

// HistoricalMarkImportService imports marks earned in earlier grade levels
// for the students of one class, and renders the matching template.
type HistoricalMarkImportService struct {
	repos     HistoricalMarkRepositories
	lookups   *lookupResolver
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewHistoricalMarkImportService constructs the service.
func NewHistoricalMarkImportService(repos HistoricalMarkRepositories, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *HistoricalMarkImportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoricalMarkImportService{
		repos:     repos,
		lookups:   &lookupResolver{subjects: repos.Subjects, terms: repos.Terms},
		validator: validate,
		metrics:   metrics,
		logger:    logger,
	}
}

// Template renders an xlsx with one row per student of the class and one
// empty column per subject.
func (s *HistoricalMarkImportService) Template(ctx context.Context, req models.HistoricalMarkTemplateRequest) ([]byte, string, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "classId and historicalGrade (1-12) are required")
	}
	class, err := s.findClass(ctx, req.ClassID)
	if err != nil {
		return nil, "", err
	}
	roster, err := s.repos.Students.ListRoster(ctx, class.ID)
	if err != nil {
		return nil, "", appErrors.Internal(err, "failed to load class roster")
	}
	subjects, err := s.repos.Subjects.ListAll(ctx)
	if err != nil {
		return nil, "", appErrors.Internal(err, "failed to load subjects")
	}

	headers := []string{markStudentIDColumn, markStudentNameColumn}
	for _, subject := range subjects {
		headers = append(headers, subject.Name)
	}
	rows := make([][]interface{}, 0, len(roster))
	for _, student := range roster {
		rows = append(rows, []interface{}{student.StudentID, strings.TrimSpace(student.Name + " " + student.Surname)})
	}

	body, err := spreadsheet.Write("Marks", headers, rows)
	if err != nil {
		return nil, "", appErrors.Internal(err, "failed to build template")
	}
	filename := fmt.Sprintf("historical-marks-%s-grade-%d.xlsx", unsafeFileChars.ReplaceAllString(class.Name, "_"), req.HistoricalGrade)
	return body, filename, nil
}

// Import reads a filled template. Each row must name a student of the
// class; every non-blank subject cell must hold a mark between 0 and 100.
// Rows without marks are skipped.
func (s *HistoricalMarkImportService) Import(ctx context.Context, req models.HistoricalMarkImportRequest, file io.Reader) (*models.HistoricalMarkImportResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "termName, classId and historicalGrade (1-12) are required")
	}
	if file == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	class, err := s.findClass(ctx, req.ClassID)
	if err != nil {
		return nil, err
	}
	sheet, err := spreadsheet.Read(file)
	if err != nil {
		if spreadsheet.IsNoData(err) {
			return nil, appErrors.Wrap(err, appErrors.ErrNoData.Code, appErrors.ErrNoData.Status, appErrors.ErrNoData.Message)
		}
		return nil, appErrors.Internal(err, "failed to read spreadsheet")
	}

	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	term, err := s.lookups.term(ctx, strings.TrimSpace(req.TermName))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to resolve term")
	}
	roster, err := s.repos.Students.ListRoster(ctx, class.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load class roster")
	}
	members := make(map[string]struct{}, len(roster))
	for _, student := range roster {
		members[student.StudentID] = struct{}{}
	}

	logger := s.logger.With(zap.String("class_id", class.ID), zap.String("term_id", term.ID), zap.Int("grade_level", req.HistoricalGrade))
	logger.Info("historical marks import started", zap.Int("rows", len(sheet.Rows)))

	result := &models.HistoricalMarkImportResult{
		Stats:  models.HistoricalMarkStats{TotalRows: len(sheet.Rows)},
		Errors: []models.RowError{},
		TermID: term.ID,
	}
	subjectColumns := markColumns(sheet.Headers)
	subjects := make(map[string]*models.Subject, len(subjectColumns))

	for _, row := range sheet.Rows {
		saved, skipped, err := s.importRow(ctx, row, members, subjectColumns, subjects, term.ID, req.HistoricalGrade)
		switch {
		case err != nil:
			logger.Warn("historical marks row failed", zap.Int("row", row.Index), zap.Error(err))
			result.Errors = append(result.Errors, models.RowError{Row: row.Index, Data: row.Raw(), Error: err.Error()})
			result.Stats.Errors++
			s.metrics.ObserveImportRow(historicalMarksKind, outcomeError)
		case skipped:
			result.Stats.Skipped++
			s.metrics.ObserveImportRow(historicalMarksKind, outcomeSkipped)
		default:
			result.Stats.Processed++
			s.metrics.ObserveImportRow(historicalMarksKind, outcomeImported)
		}
		result.MarksSaved += saved
	}

	s.metrics.ObserveImportBatch(historicalMarksKind, time.Since(start))
	logger.Info("historical marks import finished",
		zap.Int("processed", result.Stats.Processed),
		zap.Int("skipped", result.Stats.Skipped),
		zap.Int("errors", result.Stats.Errors),
		zap.Int("marks", result.MarksSaved),
	)
	return result, nil
}

func (s *HistoricalMarkImportService) importRow(ctx context.Context, row spreadsheet.Row, members map[string]struct{}, columns []string, subjects map[string]*models.Subject, termID string, grade int) (int, bool, error) {
	studentID := strings.TrimSpace(row.Get(markStudentIDColumn).String())
	if studentID == "" {
		return 0, false, errors.New("studentId: is required")
	}
	if _, ok := members[studentID]; !ok {
		return 0, false, fmt.Errorf("studentId: student %q is not in this class", studentID)
	}

	marks := make(map[string]decimal.Decimal, len(columns))
	var problems []string
	for _, column := range columns {
		cell := row.Get(column)
		if cell.IsEmpty() {
			continue
		}
		value, err := decimal.NewFromString(cell.String())
		if err != nil || value.LessThan(markMin) || value.GreaterThan(markMax) {
			problems = append(problems, fmt.Sprintf("%s: mark must be a number between 0 and 100 %q", column, cell.String()))
			continue
		}
		marks[column] = value.Round(2)
	}
	if len(problems) > 0 {
		return 0, false, errors.New(strings.Join(problems, "; "))
	}
	if len(marks) == 0 {
		return 0, true, nil
	}

	saved := 0
	for _, column := range columns {
		value, ok := marks[column]
		if !ok {
			continue
		}
		subject, err := s.subject(ctx, column, subjects)
		if err != nil {
			return saved, false, fmt.Errorf("%s: %w", column, err)
		}
		mark := &models.HistoricalMark{StudentID: studentID, SubjectID: subject.ID, TermID: termID, GradeLevel: grade, Mark: value}
		if err := s.repos.Marks.Upsert(ctx, mark); err != nil {
			return saved, false, fmt.Errorf("%s: %w", column, err)
		}
		saved++
	}
	return saved, false, nil
}

// subject resolves a column header once per batch.
func (s *HistoricalMarkImportService) subject(ctx context.Context, name string, cache map[string]*models.Subject) (*models.Subject, error) {
	if subject, ok := cache[name]; ok {
		return subject, nil
	}
	subject, err := s.lookups.subject(ctx, name)
	if err != nil {
		return nil, err
	}
	cache[name] = subject
	return subject, nil
}

func (s *HistoricalMarkImportService) findClass(ctx context.Context, id string) (*models.Class, error) {
	class, err := s.repos.Classes.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Internal(err, "failed to load class")
	}
	return class, nil
}

func markColumns(headers []string) []string {
	columns := make([]string, 0, len(headers))
	for _, h := range headers {
		if h == markStudentIDColumn || h == markStudentNameColumn {
			continue
		}
		columns = append(columns, h)
	}
	return columns
}
