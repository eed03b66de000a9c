package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-import-api/internal/models"
	appErrors "github.com/noah-isme/sma-import-api/pkg/errors"
	"github.com/noah-isme/sma-import-api/pkg/jobs"
	"github.com/noah-isme/sma-import-api/pkg/spreadsheet"
)

type teacherWriter interface {
	CreateWithIdentity(ctx context.Context, teacher *models.Teacher, identity *models.Identity) error
	AttachSubject(ctx context.Context, teacherID, subjectID string) error
	DeleteAll(ctx context.Context) (int64, error)
}

type studentWriter interface {
	CreateWithIdentity(ctx context.Context, student *models.Student, identity *models.Identity) error
	DeleteAll(ctx context.Context) (int64, error)
}

type parentWriter interface {
	CreateWithIdentity(ctx context.Context, parent *models.Parent, identity *models.Identity) error
	DeleteAll(ctx context.Context) (int64, error)
}

type statsReader interface {
	Counts(ctx context.Context) (*models.ImportStats, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// ImportRepositories groups the stores touched by an onboarding import.
type ImportRepositories struct {
	Identities identityFinder
	Teachers   teacherWriter
	Students   studentWriter
	Parents    parentWriter
	Subjects   subjectStore
	Grades     gradeStore
	Classes    classStore
	Stats      statsReader
}

// ImportConfig tunes the onboarding import.
type ImportConfig struct {
	DefaultClassCapacity int
	LoginNameMaxLength   int
}

// ImportRequest is one uploaded onboarding sheet.
type ImportRequest struct {
	Type          models.ImportType
	ClearExisting bool
	ReportFormat  string
	File          io.Reader
}

type rowOutcome struct {
	skipReason string
	warnings   []string
	err        error
}

// ImportService reconciles teacher and student+parent sheets against the
// database, one row at a time in file order.
type ImportService struct {
	repos     ImportRepositories
	lookups   *lookupResolver
	resolver  *IdentityResolver
	validator *RowValidator
	reports   *ImportReportWriter
	stats     *StatsCache
	metrics   *MetricsService
	cleanup   jobEnqueuer
	logger    *zap.Logger
	config    ImportConfig
}

// NewImportService constructs an ImportService. reports, stats and metrics
// may be nil.
func NewImportService(repos ImportRepositories, rowValidator *RowValidator, reports *ImportReportWriter, stats *StatsCache, metrics *MetricsService, logger *zap.Logger, config ImportConfig) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rowValidator == nil {
		rowValidator = NewRowValidator()
	}
	if config.DefaultClassCapacity <= 0 {
		config.DefaultClassCapacity = 25
	}
	return &ImportService{
		repos: repos,
		lookups: &lookupResolver{
			subjects:             repos.Subjects,
			grades:               repos.Grades,
			classes:              repos.Classes,
			defaultClassCapacity: config.DefaultClassCapacity,
		},
		resolver:  NewIdentityResolver(repos.Identities, config.LoginNameMaxLength),
		validator: rowValidator,
		reports:   reports,
		stats:     stats,
		metrics:   metrics,
		logger:    logger,
		config:    config,
	}
}

// UseCleanupQueue schedules a report retention sweep after every stored report.
func (s *ImportService) UseCleanupQueue(queue jobEnqueuer) {
	s.cleanup = queue
}

// Import runs a whole upload. Request-level problems (bad type, unreadable
// or empty workbook, failed clear) return an error before any row is
// touched; row problems are reported inside the result.
func (s *ImportService) Import(ctx context.Context, req ImportRequest) (*models.ImportResult, error) {
	if !req.Type.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, `importType must be "teachers" or "students"`)
	}
	if !ValidFormat(req.ReportFormat) {
		return nil, appErrors.Clone(appErrors.ErrValidation, `reportFormat must be "csv" or "pdf"`)
	}
	if req.File == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}

	sheet, err := spreadsheet.Read(req.File)
	if err != nil {
		if spreadsheet.IsNoData(err) {
			return nil, appErrors.Wrap(err, appErrors.ErrNoData.Code, appErrors.ErrNoData.Status, appErrors.ErrNoData.Message)
		}
		return nil, appErrors.Internal(err, "failed to read spreadsheet")
	}

	// once started, a batch runs to completion even if the caller goes away
	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	batchID := uuid.NewString()
	logger := s.logger.With(zap.String("batch_id", batchID), zap.String("import_type", string(req.Type)))
	logger.Info("import started", zap.Int("rows", len(sheet.Rows)), zap.Bool("clear_existing", req.ClearExisting))

	agg := newImportAggregator(req.Type, len(sheet.Rows), s.metrics)
	if req.ClearExisting {
		deleted, err := s.clearExisting(ctx, req.Type)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to clear existing users")
		}
		agg.result.DeletedUsers = deleted
		logger.Warn("existing users cleared",
			zap.Int64("teachers", deleted.Teachers),
			zap.Int64("students", deleted.Students),
			zap.Int64("parents", deleted.Parents),
		)
	}

	for _, row := range sheet.Rows {
		var out rowOutcome
		if req.Type == models.ImportTeachers {
			out = s.importTeacher(ctx, row, req.ClearExisting)
		} else {
			out = s.importStudent(ctx, row, req.ClearExisting)
		}
		switch {
		case out.err != nil:
			logger.Warn("import row failed", zap.Int("row", row.Index), zap.Error(out.err))
			agg.failed(row, out.err)
		case out.skipReason != "":
			agg.skipped(row, out.skipReason)
		default:
			agg.imported(row, out.warnings)
		}
	}

	result := agg.result
	s.attachReport(batchID, req.ReportFormat, result, logger)
	s.stats.Invalidate(ctx)
	s.metrics.ObserveImportBatch(string(req.Type), time.Since(start))
	logger.Info("import finished",
		zap.Int("total", result.TotalRows),
		zap.Int("imported", result.SuccessfulImports),
		zap.Int("skipped", len(result.Skipped)),
		zap.Int("errors", len(result.Errors)),
		zap.Duration("duration", time.Since(start)),
	)
	return result, nil
}

// Stats returns entity counts, served from cache when possible. The bool
// reports a cache hit.
func (s *ImportService) Stats(ctx context.Context) (*models.ImportStats, bool, error) {
	stats, hit, err := s.stats.Fetch(ctx, s.repos.Stats.Counts)
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to load import stats")
	}
	return stats, hit, nil
}

func (s *ImportService) clearExisting(ctx context.Context, kind models.ImportType) (*models.DeletedUsers, error) {
	deleted := &models.DeletedUsers{}
	if kind == models.ImportTeachers {
		n, err := s.repos.Teachers.DeleteAll(ctx)
		if err != nil {
			return nil, err
		}
		deleted.Teachers = n
		return deleted, nil
	}

	n, err := s.repos.Students.DeleteAll(ctx)
	if err != nil {
		return nil, err
	}
	deleted.Students = n
	if n, err = s.repos.Parents.DeleteAll(ctx); err != nil {
		return nil, err
	}
	deleted.Parents = n
	return deleted, nil
}

func (s *ImportService) importTeacher(ctx context.Context, row spreadsheet.Row, clearing bool) rowOutcome {
	rec, err := s.validator.Teacher(row)
	if err != nil {
		return rowOutcome{err: err}
	}
	resolved, err := s.resolver.Resolve(ctx, rec.Email, rec.Password)
	if err != nil {
		return rowOutcome{err: err}
	}
	if resolved.Conflict != nil {
		return conflictOutcome("", resolved, clearing)
	}

	teacher := &models.Teacher{
		LoginName:          resolved.LoginName,
		PasswordHash:       resolved.PasswordHash,
		MustChangePassword: resolved.GeneratedPassword,
		Name:               rec.Name,
		Surname:            rec.Surname,
		Email:              resolved.Email,
		Phone:              optional(rec.Phone),
		Address:            optional(rec.Address),
		BloodType:          optional(rec.BloodType),
		Sex:                rec.Sex,
		Birthday:           rec.Birthday,
	}
	identity := &models.Identity{Email: resolved.Email, LoginName: resolved.LoginName}
	if err := s.repos.Teachers.CreateWithIdentity(ctx, teacher, identity); err != nil {
		return rowOutcome{err: err}
	}
	return rowOutcome{warnings: s.attachSubjects(ctx, teacher.ID, rec.Subjects)}
}

// attachSubjects links every listed subject, creating missing ones. A
// failing subject becomes a warning and never stops its siblings.
func (s *ImportService) attachSubjects(ctx context.Context, teacherID string, names []string) []string {
	var warnings []string
	for _, name := range names {
		subject, err := s.lookups.subject(ctx, name)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("subject %q not attached: %v", name, err))
			continue
		}
		if err := s.repos.Teachers.AttachSubject(ctx, teacherID, subject.ID); err != nil {
			warnings = append(warnings, fmt.Sprintf("subject %q not attached: %v", name, err))
		}
	}
	return warnings
}

func (s *ImportService) importStudent(ctx context.Context, row spreadsheet.Row, clearing bool) rowOutcome {
	rec, err := s.validator.Student(row)
	if err != nil {
		return rowOutcome{err: err}
	}
	resolved, err := s.resolver.Resolve(ctx, rec.StudentEmail, rec.StudentPassword)
	if err != nil {
		return rowOutcome{err: err}
	}
	if resolved.Conflict != nil {
		return conflictOutcome("", resolved, clearing)
	}

	// every conflict is settled before any lookup entity or parent is written
	parent, out := s.planParent(ctx, rec, resolved.LoginName, clearing)
	if out != nil {
		return *out
	}

	class, err := s.lookups.class(ctx, rec.GradeLevel, rec.ClassName)
	if err != nil {
		return rowOutcome{err: fmt.Errorf("class %q: %w", rec.ClassName, err)}
	}

	parentID := parent.existingID
	if parentID == "" {
		if parentID, err = s.createParent(ctx, rec, parent.resolved); err != nil {
			return rowOutcome{err: err}
		}
	}

	student := &models.Student{
		LoginName:          resolved.LoginName,
		PasswordHash:       resolved.PasswordHash,
		MustChangePassword: resolved.GeneratedPassword,
		Name:               rec.StudentName,
		Surname:            rec.StudentSurname,
		Email:              resolved.Email,
		Phone:              optional(rec.StudentPhone),
		Address:            optional(rec.StudentAddress),
		BloodType:          optional(rec.StudentBloodType),
		Sex:                rec.StudentSex,
		Birthday:           rec.StudentBirthday,
		ParentID:           parentID,
		ClassID:            class.ID,
		GradeID:            class.GradeID,
	}
	identity := &models.Identity{Email: resolved.Email, LoginName: resolved.LoginName}
	if err := s.repos.Students.CreateWithIdentity(ctx, student, identity); err != nil {
		return rowOutcome{err: err}
	}
	return rowOutcome{}
}

type parentPlan struct {
	existingID string
	resolved   *ResolvedIdentity
}

// planParent decides how the row's parent is satisfied without writing
// anything. A parent already registered under the same email is shared
// between siblings; any other holder of the email or login name is a
// conflict for the whole row.
func (s *ImportService) planParent(ctx context.Context, rec *StudentImportRecord, studentLogin string, clearing bool) (*parentPlan, *rowOutcome) {
	resolved, err := s.resolver.Resolve(ctx, rec.ParentEmail, rec.ParentPassword)
	if err != nil {
		return nil, &rowOutcome{err: err}
	}
	if c := resolved.Conflict; c != nil {
		if c.Kind == models.IdentityParent && strings.EqualFold(c.Email, resolved.Email) {
			return &parentPlan{existingID: c.EntityID}, nil
		}
		out := conflictOutcome("parent ", resolved, clearing)
		return nil, &out
	}
	if resolved.LoginName == studentLogin {
		return nil, &rowOutcome{err: fmt.Errorf("studentEmail and parentEmail produce the same login name %q", studentLogin)}
	}
	return &parentPlan{resolved: resolved}, nil
}

func (s *ImportService) createParent(ctx context.Context, rec *StudentImportRecord, resolved *ResolvedIdentity) (string, error) {
	parent := &models.Parent{
		LoginName:          resolved.LoginName,
		PasswordHash:       resolved.PasswordHash,
		MustChangePassword: resolved.GeneratedPassword,
		Name:               rec.ParentName,
		Surname:            rec.ParentSurname,
		Email:              resolved.Email,
		Phone:              rec.ParentPhone,
		Address:            optional(rec.ParentAddress),
	}
	identity := &models.Identity{Email: resolved.Email, LoginName: resolved.LoginName}
	if err := s.repos.Parents.CreateWithIdentity(ctx, parent, identity); err != nil {
		return "", fmt.Errorf("parent: %w", err)
	}
	return parent.ID, nil
}

func (s *ImportService) attachReport(batchID, format string, result *models.ImportResult, logger *zap.Logger) {
	url, err := s.reports.Write(batchID, format, result)
	if err != nil {
		logger.Warn("failed to write import report", zap.Error(err))
		return
	}
	if url == "" {
		return
	}
	result.ReportURL = url
	if s.cleanup == nil {
		return
	}
	job := jobs.Job{ID: batchID, Type: jobs.TypeReportCleanup, Enqueued: time.Now().UTC()}
	if err := s.cleanup.Enqueue(job); err != nil {
		logger.Debug("report cleanup not scheduled", zap.Error(err))
	}
}

// conflictOutcome skips the row, or fails it in clear-existing mode where
// the holder survived the clear or came from an earlier row of the file.
func conflictOutcome(who string, resolved *ResolvedIdentity, clearing bool) rowOutcome {
	reason := who + resolved.ConflictReason()
	if clearing {
		return rowOutcome{err: fmt.Errorf("%s: email or login name is still taken after clearExisting", reason)}
	}
	return rowOutcome{skipReason: reason}
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
