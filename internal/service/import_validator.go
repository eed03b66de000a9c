package service

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/sma-import-api/pkg/spreadsheet"
)

var (
	teacherColumns = []string{"name", "surname", "email", "phone", "address", "bloodType", "sex", "birthday", "subjects", "password"}
	studentColumns = []string{
		"studentName", "studentSurname", "studentEmail", "studentPhone", "studentAddress", "studentBloodType",
		"studentSex", "studentBirthday", "studentPassword", "gradeLevel", "className",
		"parentName", "parentSurname", "parentEmail", "parentPhone", "parentAddress", "parentPassword",
	}

	// never echoed back in reports
	secretColumns = map[string]struct{}{"password": {}, "studentPassword": {}, "parentPassword": {}}

	dateLayouts = []string{"2006-01-02", "02/01/2006", "02-01-2006", "2006/01/02", time.RFC3339}
)

// TeacherImportRecord is a teacher row after coercion and validation.
type TeacherImportRecord struct {
	Name      string    `json:"name" validate:"required,max=100"`
	Surname   string    `json:"surname" validate:"required,max=100"`
	Email     string    `json:"email" validate:"required,email,max=255"`
	Phone     string    `json:"phone" validate:"omitempty,max=30"`
	Address   string    `json:"address" validate:"omitempty,max=255"`
	BloodType string    `json:"bloodType" validate:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	Sex       string    `json:"sex" validate:"required,oneof=MALE FEMALE"`
	Birthday  time.Time `json:"birthday" validate:"-"`
	Subjects  []string  `json:"subjects" validate:"dive,max=100"`
	Password  string    `json:"password" validate:"-"`
}

// StudentImportRecord is a student row with its parent after coercion and
// validation.
type StudentImportRecord struct {
	StudentName      string    `json:"studentName" validate:"required,max=100"`
	StudentSurname   string    `json:"studentSurname" validate:"required,max=100"`
	StudentEmail     string    `json:"studentEmail" validate:"required,email,max=255"`
	StudentPhone     string    `json:"studentPhone" validate:"omitempty,max=30"`
	StudentAddress   string    `json:"studentAddress" validate:"omitempty,max=255"`
	StudentBloodType string    `json:"studentBloodType" validate:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	StudentSex       string    `json:"studentSex" validate:"required,oneof=MALE FEMALE"`
	StudentBirthday  time.Time `json:"studentBirthday" validate:"-"`
	StudentPassword  string    `json:"studentPassword" validate:"-"`
	GradeLevel       int       `json:"gradeLevel" validate:"required,min=1,max=12"`
	ClassName        string    `json:"className" validate:"required,max=20"`
	ParentName       string    `json:"parentName" validate:"required,max=100"`
	ParentSurname    string    `json:"parentSurname" validate:"required,max=100"`
	ParentEmail      string    `json:"parentEmail" validate:"required,email,max=255"`
	ParentPhone      string    `json:"parentPhone" validate:"required,max=30"`
	ParentAddress    string    `json:"parentAddress" validate:"omitempty,max=255"`
	ParentPassword   string    `json:"parentPassword" validate:"-"`
}

// FieldError is one rejected column of a row.
type FieldError struct {
	Field   string `json:"field"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

// RowValidationError lists every failing column of a row.
type RowValidationError struct {
	Fields []FieldError
}

func (e *RowValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f.Value == "" {
			parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s %q", f.Field, f.Message, f.Value))
	}
	return strings.Join(parts, "; ")
}

// RowValidator coerces raw sheet rows into typed records.
type RowValidator struct {
	validate   *validator.Validate
	translator ut.Translator
	now        func() time.Time
}

// NewRowValidator builds a validator whose messages name columns by their
// sheet header.
func NewRowValidator() *RowValidator {
	locale := en.New()
	uni := ut.New(locale, locale)
	translator, _ := uni.GetTranslator("en")

	validate := validator.New()
	_ = enTranslations.RegisterDefaultTranslations(validate, translator)
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerRowTranslation(validate, translator, "required", "is required", nil)
	registerRowTranslation(validate, translator, "email", "must be a valid email address", nil)
	registerRowTranslation(validate, translator, "oneof", "must be one of [{0}]", func(fe validator.FieldError) string { return fe.Param() })
	registerRowTranslation(validate, translator, "max", "must be at most {0}", lengthParam)
	registerRowTranslation(validate, translator, "min", "must be at least {0}", lengthParam)

	return &RowValidator{validate: validate, translator: translator, now: time.Now}
}

func registerRowTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, param func(validator.FieldError) string) {
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			if param == nil {
				s, _ := t.T(tag)
				return s
			}
			s, _ := t.T(tag, param(fe))
			return s
		},
	)
}

func lengthParam(fe validator.FieldError) string {
	switch fe.Kind() {
	case reflect.String:
		return fe.Param() + " characters"
	default:
		return fe.Param()
	}
}

// Teacher validates a row against the teacher schema.
func (v *RowValidator) Teacher(row spreadsheet.Row) (*TeacherImportRecord, error) {
	var fields []FieldError
	rec := &TeacherImportRecord{
		Name:      text(row, "name"),
		Surname:   text(row, "surname"),
		Email:     strings.ToLower(text(row, "email")),
		Phone:     text(row, "phone"),
		Address:   text(row, "address"),
		BloodType: strings.ToUpper(text(row, "bloodType")),
		Sex:       strings.ToUpper(text(row, "sex")),
		Subjects:  splitSubjects(text(row, "subjects")),
		Password:  row.Get("password").String(),
	}
	rec.Birthday, fields = v.date(row, "birthday", fields)

	return rec, v.finish(row, rec, fields, teacherColumns)
}

// Student validates a row against the student and parent schema.
func (v *RowValidator) Student(row spreadsheet.Row) (*StudentImportRecord, error) {
	var fields []FieldError
	rec := &StudentImportRecord{
		StudentName:      text(row, "studentName"),
		StudentSurname:   text(row, "studentSurname"),
		StudentEmail:     strings.ToLower(text(row, "studentEmail")),
		StudentPhone:     text(row, "studentPhone"),
		StudentAddress:   text(row, "studentAddress"),
		StudentBloodType: strings.ToUpper(text(row, "studentBloodType")),
		StudentSex:       strings.ToUpper(text(row, "studentSex")),
		StudentPassword:  row.Get("studentPassword").String(),
		ClassName:        text(row, "className"),
		ParentName:       text(row, "parentName"),
		ParentSurname:    text(row, "parentSurname"),
		ParentEmail:      strings.ToLower(text(row, "parentEmail")),
		ParentPhone:      text(row, "parentPhone"),
		ParentAddress:    text(row, "parentAddress"),
		ParentPassword:   row.Get("parentPassword").String(),
	}
	rec.StudentBirthday, fields = v.date(row, "studentBirthday", fields)

	if level := row.Get("gradeLevel"); !level.IsEmpty() {
		n, err := strconv.Atoi(level.String())
		if err != nil {
			fields = append(fields, FieldError{Field: "gradeLevel", Value: level.String(), Message: "must be a whole number"})
		} else {
			rec.GradeLevel = n
		}
	}

	return rec, v.finish(row, rec, fields, studentColumns)
}

// finish merges coercion failures with struct validation and orders them by
// column position.
func (v *RowValidator) finish(row spreadsheet.Row, rec interface{}, fields []FieldError, columns []string) error {
	coerced := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		coerced[f.Field] = struct{}{}
	}

	if err := v.validate.Struct(rec); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			column := fe.Field()
			if i := strings.IndexByte(column, '['); i >= 0 {
				column = column[:i]
			}
			if _, done := coerced[column]; done {
				continue
			}
			fields = append(fields, FieldError{Field: column, Value: row.Get(column).String(), Message: fe.Translate(v.translator)})
		}
	}
	if len(fields) == 0 {
		return nil
	}

	order := make(map[string]int, len(columns))
	for i, c := range columns {
		order[c] = i
	}
	sort.SliceStable(fields, func(i, j int) bool { return order[fields[i].Field] < order[fields[j].Field] })
	return &RowValidationError{Fields: fields}
}

func (v *RowValidator) date(row spreadsheet.Row, column string, fields []FieldError) (time.Time, []FieldError) {
	cell := row.Get(column)
	if cell.IsEmpty() {
		return time.Time{}, append(fields, FieldError{Field: column, Message: "is required"})
	}
	parsed, ok := parseDate(cell)
	if !ok {
		return time.Time{}, append(fields, FieldError{Field: column, Value: cell.String(), Message: "invalid date"})
	}
	now := v.now()
	if parsed.Year() < 1900 || parsed.After(now) {
		return time.Time{}, append(fields, FieldError{Field: column, Value: cell.String(), Message: "date out of range"})
	}
	return parsed, fields
}

// parseDate accepts the text layouts in dateLayouts and Excel serial numbers.
func parseDate(cell spreadsheet.Cell) (time.Time, bool) {
	if cell.Kind == spreadsheet.CellNumber {
		if cell.Number < 1 {
			return time.Time{}, false
		}
		t, err := excelize.ExcelDateToTime(cell.Number, false)
		if err != nil {
			return time.Time{}, false
		}
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cell.Raw); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

func text(row spreadsheet.Row, column string) string {
	return strings.TrimSpace(row.Get(column).String())
}

// splitSubjects parses a comma separated list, dropping blanks and repeats.
func splitSubjects(raw string) []string {
	if raw == "" {
		return nil
	}
	seen := make(map[string]struct{})
	var names []string
	for _, part := range strings.Split(raw, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// echoRow returns the raw row with password columns masked.
func echoRow(row spreadsheet.Row) map[string]string {
	data := row.Raw()
	for column := range secretColumns {
		if v, ok := data[column]; ok && v != "" {
			data[column] = "********"
		}
	}
	return data
}
