package service

import (
	"context"
	"path/filepath"
	"testing"

	"adaptive_tutor/internal/ml"
	"adaptive_tutor/internal/model"
	"adaptive_tutor/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateFromLegacyBaseline(t *testing.T) {
	db := testutil.DB(t)
	classifier := &stubClassifier{level: model.MasteryLow}
	tutor := newTutor(t, db, classifier)

	area, ok := model.ParseArea("ecuaciones")
	require.True(t, ok)
	require.Equal(t, model.AreaRegularity, area)

	student := testutil.SeedStudent(t, db, "luis", map[model.Area]int{area: 75})
	c := testutil.SeedCompetency(t, db, "equations", model.AreaRegularity, 1)

	est, err := tutor.Mastery.Estimate(context.Background(), student.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MasteryHigh, est.Level)
	assert.Equal(t, model.SourceBaseline, est.Source)
	assert.Zero(t, est.AttemptCount)
	// 没有作答时不调用分类器
	assert.Zero(t, classifier.calls)
}

func TestEstimateUnknownWithoutBaseline(t *testing.T) {
	db := testutil.DB(t)
	tutor := newTutor(t, db, nil)

	student := testutil.SeedStudent(t, db, "eva", nil)
	c := testutil.SeedCompetency(t, db, "data", model.AreaDataChance, 1)

	est, err := tutor.Mastery.Estimate(context.Background(), student.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MasteryUnknown, est.Level)
	assert.Equal(t, model.SourceNone, est.Source)
}

func TestEstimateFallsBackWhenClassifierFails(t *testing.T) {
	for name, classifier := range map[string]*stubClassifier{
		"error": {err: errShapeMismatch},
		"panic": {panic: true},
	} {
		t.Run(name, func(t *testing.T) {
			db := testutil.DB(t)
			tutor := newTutor(t, db, classifier)

			student := testutil.SeedStudent(t, db, "rosa", map[model.Area]int{model.AreaQuantity: 50})
			c := testutil.SeedCompetency(t, db, "numbers", model.AreaQuantity, 1)
			e := testutil.SeedExercise(t, db, c.ID, 3, 0)
			testutil.SeedAttempt(t, db, student.ID, e, true)

			est, err := tutor.Mastery.Estimate(context.Background(), student.ID, c.ID)
			require.NoError(t, err)
			assert.Equal(t, 1, classifier.calls)
			assert.Equal(t, model.MasteryMedium, est.Level)
			assert.Equal(t, model.SourceBaseline, est.Source)
			assert.Equal(t, int64(1), est.AttemptCount)
		})
	}
}

func TestEstimateUsesShippedModel(t *testing.T) {
	db := testutil.DB(t)
	registry := ml.NewRegistry(&ml.FileSource{Path: filepath.Join("..", "..", "configs", "model", "tutor_model.json")})
	require.NoError(t, registry.Reload(context.Background()))
	tutor := newTutor(t, db, registry)

	student := testutil.SeedStudent(t, db, "juan", map[model.Area]int{model.AreaQuantity: 10})
	c := testutil.SeedCompetency(t, db, "numbers", model.AreaQuantity, 1)
	e1 := testutil.SeedExercise(t, db, c.ID, 3, 0)
	e2 := testutil.SeedExercise(t, db, c.ID, 3, 0)
	testutil.SeedAttempt(t, db, student.ID, e1, true)
	testutil.SeedAttempt(t, db, student.ID, e2, true)

	est, err := tutor.Mastery.Estimate(context.Background(), student.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MasteryHigh, est.Level)
	assert.Equal(t, model.SourceModel, est.Source)
	assert.Equal(t, "2025.11-dtree-1", est.ModelVersion)
	assert.Equal(t, 100.0, est.Features.MeanScore)
	assert.Equal(t, 1.0, est.Features.PassRate)
}

func TestEstimateNotFound(t *testing.T) {
	db := testutil.DB(t)
	tutor := newTutor(t, db, nil)
	student := testutil.SeedStudent(t, db, "ana", nil)

	_, err := tutor.Mastery.Estimate(context.Background(), 999, 1)
	assert.ErrorContains(t, err, "student not found")

	_, err = tutor.Mastery.Estimate(context.Background(), student.ID, 999)
	assert.ErrorContains(t, err, "competency not found")
}

func TestOverallMastery(t *testing.T) {
	recs := func(levels ...model.MasteryLevel) []model.MasteryRecord {
		out := make([]model.MasteryRecord, len(levels))
		for i, l := range levels {
			out[i] = model.MasteryRecord{Level: l}
		}
		return out
	}

	assert.Equal(t, model.MasteryUnknown, OverallMastery(nil))
	assert.Equal(t, model.MasteryLow, OverallMastery(recs(model.MasteryLow, model.MasteryLow, model.MasteryMedium)))
	// (2 + 4) / 2 = 3
	assert.Equal(t, model.MasteryMedium, OverallMastery(recs(model.MasteryLow, model.MasteryMedium)))
	// (4 + 6) / 2 = 5
	assert.Equal(t, model.MasteryHigh, OverallMastery(recs(model.MasteryMedium, model.MasteryHigh)))
}
