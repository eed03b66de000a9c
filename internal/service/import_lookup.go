package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/noah-isme/sma-import-api/internal/models"
)

type subjectStore interface {
	FindByName(ctx context.Context, name string) (*models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
}

type gradeStore interface {
	FindByLevel(ctx context.Context, level int) (*models.Grade, error)
	Create(ctx context.Context, grade *models.Grade) error
}

type classStore interface {
	FindByNames(ctx context.Context, composite, label string) (*models.Class, error)
	Create(ctx context.Context, class *models.Class) error
}

type termStore interface {
	FindByName(ctx context.Context, name string) (*models.Term, error)
	Create(ctx context.Context, term *models.Term) error
}

// lookupResolver finds referenced-by-name entities and creates them when
// missing. Each create commits on its own.
type lookupResolver struct {
	subjects subjectStore
	grades   gradeStore
	classes  classStore
	terms    termStore

	defaultClassCapacity int
}

func (l *lookupResolver) subject(ctx context.Context, name string) (*models.Subject, error) {
	subject, err := l.subjects.FindByName(ctx, name)
	if err == nil {
		return subject, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find subject: %w", err)
	}
	subject = &models.Subject{Name: name}
	if err := l.subjects.Create(ctx, subject); err != nil {
		return nil, err
	}
	return subject, nil
}

func (l *lookupResolver) grade(ctx context.Context, level int) (*models.Grade, error) {
	grade, err := l.grades.FindByLevel(ctx, level)
	if err == nil {
		return grade, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find grade: %w", err)
	}
	grade = &models.Grade{Level: level}
	if err := l.grades.Create(ctx, grade); err != nil {
		return nil, err
	}
	return grade, nil
}

// class resolves "<level>-<section>". A class named after the bare section
// label also matches; otherwise the grade is found or created and a new
// class is opened under it.
func (l *lookupResolver) class(ctx context.Context, level int, section string) (*models.Class, error) {
	composite, label := classNames(level, section)
	class, err := l.classes.FindByNames(ctx, composite, label)
	if err == nil {
		return class, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find class: %w", err)
	}

	grade, err := l.grade(ctx, level)
	if err != nil {
		return nil, err
	}
	class = &models.Class{Name: composite, Capacity: l.defaultClassCapacity, GradeID: grade.ID}
	if err := l.classes.Create(ctx, class); err != nil {
		return nil, err
	}
	return class, nil
}

func (l *lookupResolver) term(ctx context.Context, name string) (*models.Term, error) {
	term, err := l.terms.FindByName(ctx, name)
	if err == nil {
		return term, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find term: %w", err)
	}
	term = &models.Term{Name: name}
	if err := l.terms.Create(ctx, term); err != nil {
		return nil, err
	}
	return term, nil
}

// classNames accepts both "A" and "11-A" as the section of grade 11.
func classNames(level int, section string) (composite, label string) {
	prefix := strconv.Itoa(level) + "-"
	label = strings.TrimPrefix(section, prefix)
	return prefix + label, label
}
