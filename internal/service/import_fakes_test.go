package service

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-import-api/internal/models"
	"github.com/noah-isme/sma-import-api/pkg/jobs"
	"github.com/noah-isme/sma-import-api/pkg/spreadsheet"
)

// memoryStore is an in-memory stand-in for the Postgres schema used by the
// import services.
type memoryStore struct {
	mu sync.Mutex

	seq             int
	identities      []models.Identity
	teachers        map[string]*models.Teacher
	students        map[string]*models.Student
	parents         map[string]*models.Parent
	teacherSubjects map[string][]string
	subjects        map[string]*models.Subject
	grades          map[int]*models.Grade
	classes         map[string]*models.Class
	terms           map[string]*models.Term
	marks           map[string]*models.HistoricalMark

	subjectCreates int
	subjectErr     map[string]error
	deletions      []string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		teachers:        map[string]*models.Teacher{},
		students:        map[string]*models.Student{},
		parents:         map[string]*models.Parent{},
		teacherSubjects: map[string][]string{},
		subjects:        map[string]*models.Subject{},
		grades:          map[int]*models.Grade{},
		classes:         map[string]*models.Class{},
		terms:           map[string]*models.Term{},
		marks:           map[string]*models.HistoricalMark{},
		subjectErr:      map[string]error{},
	}
}

func (m *memoryStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memoryStore) importRepos() ImportRepositories {
	return ImportRepositories{
		Identities: fakeIdentities{m},
		Teachers:   fakeTeachers{m},
		Students:   fakeStudents{m},
		Parents:    fakeParents{m},
		Subjects:   fakeSubjects{m},
		Grades:     fakeGrades{m},
		Classes:    fakeClasses{m},
		Stats:      fakeStats{m},
	}
}

func (m *memoryStore) markRepos() HistoricalMarkRepositories {
	return HistoricalMarkRepositories{
		Classes:  fakeClasses{m},
		Students: fakeStudents{m},
		Subjects: fakeSubjects{m},
		Terms:    fakeTerms{m},
		Marks:    fakeMarks{m},
	}
}

func (m *memoryStore) addIdentity(identity *models.Identity, kind models.IdentityKind, entityID string) {
	identity.ID = m.nextID("identity")
	identity.Kind = kind
	identity.EntityID = entityID
	identity.CreatedAt = time.Now().UTC()
	m.identities = append(m.identities, *identity)
}

func (m *memoryStore) dropIdentities(kind models.IdentityKind) {
	kept := m.identities[:0]
	for _, identity := range m.identities {
		if identity.Kind != kind {
			kept = append(kept, identity)
		}
	}
	m.identities = kept
}

type fakeIdentities struct{ m *memoryStore }

func (f fakeIdentities) FindConflict(ctx context.Context, email, loginName string) (*models.Identity, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	for _, identity := range f.m.identities {
		if strings.EqualFold(identity.Email, email) {
			found := identity
			return &found, nil
		}
	}
	for _, identity := range f.m.identities {
		if identity.LoginName == loginName {
			found := identity
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

type fakeTeachers struct{ m *memoryStore }

func (f fakeTeachers) CreateWithIdentity(ctx context.Context, teacher *models.Teacher, identity *models.Identity) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	teacher.ID = f.m.nextID("teacher")
	f.m.teachers[teacher.ID] = teacher
	f.m.addIdentity(identity, models.IdentityTeacher, teacher.ID)
	return nil
}

func (f fakeTeachers) AttachSubject(ctx context.Context, teacherID, subjectID string) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	for _, id := range f.m.teacherSubjects[teacherID] {
		if id == subjectID {
			return nil
		}
	}
	f.m.teacherSubjects[teacherID] = append(f.m.teacherSubjects[teacherID], subjectID)
	return nil
}

func (f fakeTeachers) DeleteAll(ctx context.Context) (int64, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	n := int64(len(f.m.teachers))
	f.m.dropIdentities(models.IdentityTeacher)
	f.m.deletions = append(f.m.deletions, "teachers")
	f.m.teachers = map[string]*models.Teacher{}
	f.m.teacherSubjects = map[string][]string{}
	return n, nil
}

type fakeStudents struct{ m *memoryStore }

func (f fakeStudents) CreateWithIdentity(ctx context.Context, student *models.Student, identity *models.Identity) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	student.ID = f.m.nextID("student")
	f.m.students[student.ID] = student
	f.m.addIdentity(identity, models.IdentityStudent, student.ID)
	return nil
}

func (f fakeStudents) DeleteAll(ctx context.Context) (int64, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	n := int64(len(f.m.students))
	f.m.dropIdentities(models.IdentityStudent)
	f.m.deletions = append(f.m.deletions, "students")
	f.m.students = map[string]*models.Student{}
	f.m.marks = map[string]*models.HistoricalMark{}
	return n, nil
}

func (f fakeStudents) ListRoster(ctx context.Context, classID string) ([]models.RosterEntry, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	var roster []models.RosterEntry
	for _, s := range f.m.students {
		if s.ClassID == classID {
			roster = append(roster, models.RosterEntry{StudentID: s.ID, Name: s.Name, Surname: s.Surname})
		}
	}
	sort.Slice(roster, func(i, j int) bool { return roster[i].StudentID < roster[j].StudentID })
	return roster, nil
}

type fakeParents struct{ m *memoryStore }

func (f fakeParents) CreateWithIdentity(ctx context.Context, parent *models.Parent, identity *models.Identity) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	parent.ID = f.m.nextID("parent")
	f.m.parents[parent.ID] = parent
	f.m.addIdentity(identity, models.IdentityParent, parent.ID)
	return nil
}

func (f fakeParents) DeleteAll(ctx context.Context) (int64, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	n := int64(len(f.m.parents))
	f.m.dropIdentities(models.IdentityParent)
	f.m.deletions = append(f.m.deletions, "parents")
	f.m.parents = map[string]*models.Parent{}
	return n, nil
}

type fakeSubjects struct{ m *memoryStore }

func (f fakeSubjects) FindByName(ctx context.Context, name string) (*models.Subject, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if s, ok := f.m.subjects[name]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (f fakeSubjects) Create(ctx context.Context, subject *models.Subject) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if err := f.m.subjectErr[subject.Name]; err != nil {
		return err
	}
	if existing, ok := f.m.subjects[subject.Name]; ok {
		subject.ID = existing.ID
		return nil
	}
	subject.ID = f.m.nextID("subject")
	f.m.subjects[subject.Name] = subject
	f.m.subjectCreates++
	return nil
}

func (f fakeSubjects) ListAll(ctx context.Context) ([]models.Subject, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	out := make([]models.Subject, 0, len(f.m.subjects))
	for _, s := range f.m.subjects {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type fakeGrades struct{ m *memoryStore }

func (f fakeGrades) FindByLevel(ctx context.Context, level int) (*models.Grade, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if g, ok := f.m.grades[level]; ok {
		return g, nil
	}
	return nil, sql.ErrNoRows
}

func (f fakeGrades) Create(ctx context.Context, grade *models.Grade) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	grade.ID = f.m.nextID("grade")
	f.m.grades[grade.Level] = grade
	return nil
}

type fakeClasses struct{ m *memoryStore }

func (f fakeClasses) FindByID(ctx context.Context, id string) (*models.Class, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	for _, c := range f.m.classes {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f fakeClasses) FindByNames(ctx context.Context, composite, label string) (*models.Class, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if c, ok := f.m.classes[composite]; ok {
		return c, nil
	}
	if c, ok := f.m.classes[label]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func (f fakeClasses) Create(ctx context.Context, class *models.Class) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	class.ID = f.m.nextID("class")
	f.m.classes[class.Name] = class
	return nil
}

type fakeTerms struct{ m *memoryStore }

func (f fakeTerms) FindByName(ctx context.Context, name string) (*models.Term, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if t, ok := f.m.terms[name]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func (f fakeTerms) Create(ctx context.Context, term *models.Term) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	term.ID = f.m.nextID("term")
	f.m.terms[term.Name] = term
	return nil
}

type fakeMarks struct{ m *memoryStore }

func (f fakeMarks) Upsert(ctx context.Context, mark *models.HistoricalMark) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	key := fmt.Sprintf("%s/%s/%s/%d", mark.StudentID, mark.SubjectID, mark.TermID, mark.GradeLevel)
	f.m.marks[key] = mark
	return nil
}

type fakeStats struct{ m *memoryStore }

func (f fakeStats) Counts(ctx context.Context) (*models.ImportStats, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	return &models.ImportStats{
		Teachers: int64(len(f.m.teachers)),
		Students: int64(len(f.m.students)),
		Parents:  int64(len(f.m.parents)),
		Classes:  int64(len(f.m.classes)),
		Grades:   int64(len(f.m.grades)),
		Subjects: int64(len(f.m.subjects)),
	}, nil
}

type recordingQueue struct {
	jobs []jobs.Job
}

func (q *recordingQueue) Enqueue(job jobs.Job) error {
	q.jobs = append(q.jobs, job)
	return nil
}

// workbook renders headers and rows into an xlsx reader.
func workbook(t *testing.T, headers []string, rows ...[]interface{}) *bytes.Reader {
	t.Helper()
	body, err := spreadsheet.Write("Import", headers, rows)
	require.NoError(t, err)
	return bytes.NewReader(body)
}

// sheetRow builds a parsed row from column/value pairs.
func sheetRow(values map[string]string) spreadsheet.Row {
	cells := make(map[string]spreadsheet.Cell, len(values))
	for column, value := range values {
		cells[column] = spreadsheet.NewCell(value)
	}
	return spreadsheet.Row{Index: 1, Cells: cells}
}
