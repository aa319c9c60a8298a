package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"adaptive_tutor/internal/config"
	"adaptive_tutor/internal/ml"
	"adaptive_tutor/internal/model"
	"adaptive_tutor/internal/repository"
	"adaptive_tutor/pkg/lock"

	"gorm.io/gorm"
)

type stubClassifier struct {
	level model.MasteryLevel
	err   error
	panic bool
	calls int
}

func (c *stubClassifier) Predict(ctx context.Context, f ml.Features) (ml.Prediction, error) {
	c.calls++
	if c.panic {
		panic("index out of range in tree")
	}
	if c.err != nil {
		return ml.Prediction{}, c.err
	}
	return ml.Prediction{Level: c.level, Version: "stub-1"}, nil
}

var errShapeMismatch = errors.New("X has 4 features, but classifier is expecting 5")

func testConfig() *config.Config {
	cfg := &config.Config{Tutor: config.DefaultTutorConfig()}
	cfg.Assets.BaseURL = "http://assets.test"
	return cfg
}

func newTutor(t *testing.T, db *gorm.DB, classifier Classifier) *TutorService {
	t.Helper()
	cfg := testConfig()

	attempts := repository.NewAttemptRepository(db)
	students := repository.NewStudentRepository(db)
	competencies := repository.NewCompetencyRepository(db)
	exercises := repository.NewExerciseRepository(db)
	scores := repository.NewScoreRepository(db)
	masteryRepo := repository.NewMasteryRepository(db)

	mastery := NewMasteryService(attempts, students, competencies, masteryRepo, classifier, cfg.Tutor)
	progress := NewProgressService(db, attempts, exercises, competencies, scores, students, cfg.Tutor)
	selector := NewSelectorService(attempts, exercises, NewRandPicker(7), cfg.Tutor)

	return NewTutorService(db, students, competencies, exercises, attempts, scores,
		mastery, progress, selector, lock.NewLocalLocker(time.Second), cfg)
}
