package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedValidator() *RowValidator {
	v := NewRowValidator()
	v.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	return v
}

func TestRowValidatorTeacherNormalises(t *testing.T) {
	rec, err := fixedValidator().Teacher(sheetRow(map[string]string{
		"name":      " Ana ",
		"surname":   "Lestari",
		"email":     "Ana.Lestari@School.TEST",
		"sex":       "female",
		"bloodType": "ab+",
		"birthday":  "12/04/1985",
		"subjects":  "Math, , Physics, Math",
	}))
	require.NoError(t, err)
	assert.Equal(t, "Ana", rec.Name)
	assert.Equal(t, "ana.lestari@school.test", rec.Email)
	assert.Equal(t, "FEMALE", rec.Sex)
	assert.Equal(t, "AB+", rec.BloodType)
	assert.Equal(t, time.Date(1985, 4, 12, 0, 0, 0, 0, time.UTC), rec.Birthday)
	assert.Equal(t, []string{"Math", "Physics"}, rec.Subjects)
}

func TestRowValidatorReportsEveryFieldInColumnOrder(t *testing.T) {
	_, err := fixedValidator().Teacher(sheetRow(map[string]string{
		"name":      "Ana",
		"sex":       "X",
		"bloodType": "Z",
		"birthday":  "2030-01-01",
	}))
	require.Error(t, err)

	var verr *RowValidationError
	require.True(t, errors.As(err, &verr))
	fields := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		fields = append(fields, f.Field)
	}
	assert.Equal(t, []string{"surname", "email", "bloodType", "sex", "birthday"}, fields)
	assert.Contains(t, err.Error(), "surname: is required")
	assert.Contains(t, err.Error(), `sex: must be one of [MALE FEMALE] "X"`)
	assert.Contains(t, err.Error(), `birthday: date out of range "2030-01-01"`)
}

func TestRowValidatorStudentGradeLevel(t *testing.T) {
	row := map[string]string{
		"studentName": "Rizky", "studentSurname": "Pratama", "studentEmail": "rizky@school.test",
		"studentSex": "MALE", "studentBirthday": "2009-03-14", "className": "11-a",
		"parentName": "Siti", "parentSurname": "Rahma", "parentEmail": "siti@mail.test", "parentPhone": "0812",
	}

	row["gradeLevel"] = "eleven"
	_, err := fixedValidator().Student(sheetRow(row))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `gradeLevel: must be a whole number "eleven"`)

	row["gradeLevel"] = "13"
	_, err = fixedValidator().Student(sheetRow(row))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gradeLevel: must be at most 12")

	row["gradeLevel"] = "11"
	rec, err := fixedValidator().Student(sheetRow(row))
	require.NoError(t, err)
	assert.Equal(t, 11, rec.GradeLevel)
	assert.Equal(t, "11-a", rec.ClassName, "class labels keep their case")
	assert.Equal(t, "0812", rec.ParentPhone)
}

func TestParseDateAcceptsExcelSerials(t *testing.T) {
	rec, err := fixedValidator().Teacher(sheetRow(map[string]string{
		"name": "Ana", "surname": "Lestari", "email": "ana@school.test", "sex": "FEMALE", "birthday": "40000",
	}))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2009, 7, 6, 0, 0, 0, 0, time.UTC), rec.Birthday)
}

func TestEchoRowMasksPasswords(t *testing.T) {
	data := echoRow(sheetRow(map[string]string{"email": "ana@school.test", "password": "hunter22", "parentPassword": ""}))
	assert.Equal(t, "********", data["password"])
	assert.Equal(t, "", data["parentPassword"])
	assert.Equal(t, "ana@school.test", data["email"])
}
