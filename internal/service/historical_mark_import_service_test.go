package service

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-import-api/internal/models"
	appErrors "github.com/noah-isme/sma-import-api/pkg/errors"
	"github.com/noah-isme/sma-import-api/pkg/spreadsheet"
)

func seedClass(t *testing.T, store *memoryStore) (*models.Class, []string) {
	t.Helper()
	ctx := context.Background()
	class := &models.Class{Name: "11-A", Capacity: 25}
	require.NoError(t, fakeClasses{store}.Create(ctx, class))
	other := &models.Class{Name: "11-B", Capacity: 25}
	require.NoError(t, fakeClasses{store}.Create(ctx, other))

	var ids []string
	for _, name := range []string{"Rizky", "Rani"} {
		student := &models.Student{Name: name, Surname: "Pratama", ClassID: class.ID}
		require.NoError(t, fakeStudents{store}.CreateWithIdentity(ctx, student, &models.Identity{Email: name + "@school.test", LoginName: name}))
		ids = append(ids, student.ID)
	}
	outsider := &models.Student{Name: "Dewi", ClassID: other.ID}
	require.NoError(t, fakeStudents{store}.CreateWithIdentity(ctx, outsider, &models.Identity{Email: "dewi@school.test", LoginName: "dewi"}))
	ids = append(ids, outsider.ID)

	for _, name := range []string{"Math", "Physics"} {
		require.NoError(t, fakeSubjects{store}.Create(ctx, &models.Subject{Name: name}))
	}
	return class, ids
}

func TestHistoricalMarkTemplateListsRosterAndSubjects(t *testing.T) {
	store := newMemoryStore()
	class, ids := seedClass(t, store)
	svc := NewHistoricalMarkImportService(store.markRepos(), nil, nil, nil)

	body, filename, err := svc.Template(context.Background(), models.HistoricalMarkTemplateRequest{ClassID: class.ID, HistoricalGrade: 10})
	require.NoError(t, err)
	assert.Equal(t, "historical-marks-11-A-grade-10.xlsx", filename)

	sheet, err := spreadsheet.Read(bytes.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, []string{"studentId", "studentName", "Math", "Physics"}, sheet.Headers)
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, ids[0], sheet.Rows[0].Get("studentId").String())
	assert.Equal(t, "Rizky Pratama", sheet.Rows[0].Get("studentName").String())
}

func TestHistoricalMarkTemplateUnknownClass(t *testing.T) {
	svc := NewHistoricalMarkImportService(newMemoryStore().markRepos(), nil, nil, nil)

	_, _, err := svc.Template(context.Background(), models.HistoricalMarkTemplateRequest{ClassID: "missing", HistoricalGrade: 10})
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
}

func TestHistoricalMarkImport(t *testing.T) {
	store := newMemoryStore()
	class, ids := seedClass(t, store)
	metrics := NewMetricsService()
	svc := NewHistoricalMarkImportService(store.markRepos(), nil, metrics, nil)

	file := workbook(t, []string{"studentId", "studentName", "Math", "Physics", "Art"},
		[]interface{}{ids[0], "Rizky Pratama", 87.456, "", 90},
		[]interface{}{ids[1], "Rani Pratama", 101, "abc"},
		[]interface{}{ids[2], "Dewi", 70},
		[]interface{}{ids[1], "Rani Pratama"},
	)

	result, err := svc.Import(context.Background(), models.HistoricalMarkImportRequest{
		TermName: "2023/2024 Ganjil", ClassID: class.ID, HistoricalGrade: 10,
	}, file)
	require.NoError(t, err)

	assert.Equal(t, models.HistoricalMarkStats{TotalRows: 4, Processed: 1, Skipped: 1, Errors: 2}, result.Stats)
	assert.Equal(t, 2, result.MarksSaved)
	assert.Equal(t, http.StatusMultiStatus, HistoricalMarkStatus(result))
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0].Error, `Math: mark must be a number between 0 and 100 "101"`)
	assert.Contains(t, result.Errors[0].Error, `Physics: mark must be a number between 0 and 100 "abc"`)
	assert.Contains(t, result.Errors[1].Error, "is not in this class")

	term, ok := store.terms["2023/2024 Ganjil"]
	require.True(t, ok)
	assert.Equal(t, term.ID, result.TermID)
	art, ok := store.subjects["Art"]
	require.True(t, ok)

	math := store.subjects["Math"]
	mark, ok := store.marks[ids[0]+"/"+math.ID+"/"+term.ID+"/10"]
	require.True(t, ok)
	assert.True(t, decimal.RequireFromString("87.46").Equal(mark.Mark))
	_, ok = store.marks[ids[0]+"/"+art.ID+"/"+term.ID+"/10"]
	assert.True(t, ok)
	assert.Equal(t, 2.0, metrics.ImportRowCount(historicalMarksKind, outcomeError))
}

func TestHistoricalMarkImportValidatesRequest(t *testing.T) {
	store := newMemoryStore()
	class, _ := seedClass(t, store)
	svc := NewHistoricalMarkImportService(store.markRepos(), nil, nil, nil)

	_, err := svc.Import(context.Background(), models.HistoricalMarkImportRequest{ClassID: class.ID, HistoricalGrade: 13}, workbook(t, []string{"studentId"}))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Import(context.Background(), models.HistoricalMarkImportRequest{TermName: "T1", ClassID: class.ID, HistoricalGrade: 10}, workbook(t, []string{"studentId", "Math"}))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNoData.Code, appErrors.FromError(err).Code)
}
