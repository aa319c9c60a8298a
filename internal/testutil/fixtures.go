package testutil

import (
	"fmt"
	"testing"
	"time"

	"adaptive_tutor/internal/model"

	"gorm.io/gorm"
)

func SeedStudent(tb testing.TB, db *gorm.DB, name string, baselines map[model.Area]int) *model.Student {
	tb.Helper()
	s := &model.Student{Name: name}
	if err := db.Create(s).Error; err != nil {
		tb.Fatalf("seed student: %v", err)
	}
	for area, score := range baselines {
		b := model.StudentBaseline{StudentID: s.ID, Area: area, Score: score}
		if err := db.Create(&b).Error; err != nil {
			tb.Fatalf("seed baseline: %v", err)
		}
		s.Baselines = append(s.Baselines, b)
	}
	return s
}

func SeedCompetency(tb testing.TB, db *gorm.DB, name string, area model.Area, tier int) *model.Competency {
	tb.Helper()
	c := &model.Competency{Name: name, Area: area, Tier: tier}
	if err := db.Create(c).Error; err != nil {
		tb.Fatalf("seed competency: %v", err)
	}
	return c
}

// SeedExercise creates an exercise with options A, B, C...; correct lists the
// indexes of the correct options.
func SeedExercise(tb testing.TB, db *gorm.DB, competencyID uint, options int, correct ...int) *model.Exercise {
	tb.Helper()
	e := &model.Exercise{
		CompetencyID: competencyID,
		Body:         fmt.Sprintf("exercise of competency %d", competencyID),
		Hint:         "look at the units",
	}
	if err := db.Create(e).Error; err != nil {
		tb.Fatalf("seed exercise: %v", err)
	}

	isCorrect := make(map[int]bool, len(correct))
	for _, i := range correct {
		isCorrect[i] = true
	}
	for i := 0; i < options; i++ {
		o := model.Option{
			ExerciseID: e.ID,
			Label:      string(rune('A' + i)),
			Text:       fmt.Sprintf("option %d", i),
			IsCorrect:  isCorrect[i],
		}
		if err := db.Create(&o).Error; err != nil {
			tb.Fatalf("seed option: %v", err)
		}
		e.Options = append(e.Options, o)
	}
	return e
}

// CorrectOption returns the first correct option of e, or the first option.
func CorrectOption(e *model.Exercise) model.Option {
	for _, o := range e.Options {
		if o.IsCorrect {
			return o
		}
	}
	return e.Options[0]
}

// WrongOption returns the first incorrect option of e.
func WrongOption(e *model.Exercise) model.Option {
	for _, o := range e.Options {
		if !o.IsCorrect {
			return o
		}
	}
	return e.Options[0]
}

// SeedAttempt appends an attempt without going through the tutor service.
func SeedAttempt(tb testing.TB, db *gorm.DB, studentID uint, e *model.Exercise, correct bool) *model.Attempt {
	tb.Helper()
	opt := WrongOption(e)
	if correct {
		opt = CorrectOption(e)
	}
	a := &model.Attempt{
		StudentID:    studentID,
		ExerciseID:   e.ID,
		CompetencyID: e.CompetencyID,
		OptionID:     opt.ID,
		Correct:      correct,
		Score:        model.ScoreFor(correct),
		AnsweredAt:   time.Now(),
	}
	if err := db.Create(a).Error; err != nil {
		tb.Fatalf("seed attempt: %v", err)
	}
	return a
}
