package service

import (
	"context"
	"testing"

	"adaptive_tutor/internal/model"
	"adaptive_tutor/internal/repository"
	"adaptive_tutor/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeProgressWeightsRepeatedCorrect(t *testing.T) {
	competencies := []model.Competency{{BaseModel: model.BaseModel{ID: 1}, Area: model.AreaQuantity}}
	totals := map[uint]int64{1: 10}
	outcomes := []repository.ExerciseOutcome{
		{ExerciseID: 1, CompetencyID: 1, Attempts: 2, Correct: 2},
		{ExerciseID: 2, CompetencyID: 1, Attempts: 1, Correct: 1},
		{ExerciseID: 3, CompetencyID: 1, Attempts: 3, Correct: 1},
		{ExerciseID: 4, CompetencyID: 1, Attempts: 1, Correct: 1},
		{ExerciseID: 5, CompetencyID: 1, Attempts: 3, Correct: 0},
	}

	res := ComputeProgress(9, competencies, totals, outcomes, 1.0, 0.30)

	require.Len(t, res.Scores, 1)
	sc := res.Scores[0]
	assert.Equal(t, 4, sc.DistinctCorrect)
	assert.Equal(t, 1, sc.RepeatedCorrect)
	assert.Equal(t, 43, sc.Percentage)
	assert.Equal(t, 10, sc.Attempts)
	assert.Equal(t, 43, res.Overall)
	// 基线取每次作答的平均分：5 次正确 / 10 次作答
	assert.Equal(t, map[model.Area]int{model.AreaQuantity: 50}, res.Baselines)
}

func TestComputeProgressSkipsCompetenciesWithoutExercises(t *testing.T) {
	competencies := []model.Competency{
		{BaseModel: model.BaseModel{ID: 1}, Area: model.AreaQuantity},
		{BaseModel: model.BaseModel{ID: 2}, Area: model.AreaRegularity},
		{BaseModel: model.BaseModel{ID: 3}, Area: model.AreaDataChance},
	}
	totals := map[uint]int64{1: 2, 2: 4}
	outcomes := []repository.ExerciseOutcome{
		{ExerciseID: 1, CompetencyID: 1, Attempts: 1, Correct: 1},
		{ExerciseID: 2, CompetencyID: 1, Attempts: 1, Correct: 1},
	}

	res := ComputeProgress(1, competencies, totals, outcomes, 1.0, 0.30)

	require.Len(t, res.Scores, 3)
	assert.Equal(t, 100, res.Scores[0].Percentage)
	assert.Equal(t, 0, res.Scores[1].Percentage)
	assert.Equal(t, 0, res.Scores[2].Percentage)
	// (100 + 0) / 2, competency 3 has no exercises
	assert.Equal(t, 50, res.Overall)
	// 无作答的领域不刷新基线
	assert.Equal(t, map[model.Area]int{model.AreaQuantity: 100}, res.Baselines)
}

func TestComputeProgressClampsAndHandlesEmptyCatalog(t *testing.T) {
	competencies := []model.Competency{{BaseModel: model.BaseModel{ID: 1}, Area: model.AreaQuantity}}
	outcomes := []repository.ExerciseOutcome{
		{ExerciseID: 1, CompetencyID: 1, Attempts: 5, Correct: 5},
		{ExerciseID: 2, CompetencyID: 1, Attempts: 5, Correct: 5},
	}

	// 目录里练习数少于已作答数时截断到 100
	res := ComputeProgress(1, competencies, map[uint]int64{1: 1}, outcomes, 1.0, 0.30)
	assert.Equal(t, 100, res.Scores[0].Percentage)

	res = ComputeProgress(1, nil, nil, nil, 1.0, 0.30)
	assert.Zero(t, res.Overall)
	assert.Empty(t, res.Scores)
}

func TestRecomputeIsIdempotent(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	tutor := newTutor(t, db, nil)

	student := testutil.SeedStudent(t, db, "ana", map[model.Area]int{model.AreaShapeMovement: 35})
	c1 := testutil.SeedCompetency(t, db, "numbers", model.AreaQuantity, 1)
	c2 := testutil.SeedCompetency(t, db, "shapes", model.AreaShapeMovement, 2)
	e1 := testutil.SeedExercise(t, db, c1.ID, 3, 0)
	e2 := testutil.SeedExercise(t, db, c1.ID, 3, 1)
	testutil.SeedExercise(t, db, c2.ID, 3, 2)

	testutil.SeedAttempt(t, db, student.ID, e1, true)
	testutil.SeedAttempt(t, db, student.ID, e1, true)
	testutil.SeedAttempt(t, db, student.ID, e2, false)

	first, err := tutor.Progress.Recompute(ctx, student.ID)
	require.NoError(t, err)
	second, err := tutor.Progress.Recompute(ctx, student.ID)
	require.NoError(t, err)

	assert.Equal(t, first.Overall, second.Overall)
	assert.Equal(t, first.Baselines, second.Baselines)

	scores, err := tutor.ScoreRepo.ListByStudent(student.ID)
	require.NoError(t, err)
	require.Len(t, scores, 2)
	// (1*1.0 + 1*0.30) / 2 * 100 = 65
	assert.Equal(t, 65, scores[0].Percentage)
	assert.Equal(t, 0, scores[1].Percentage)

	reloaded, err := tutor.StudentRepo.FindByID(student.ID)
	require.NoError(t, err)
	assert.Equal(t, 33, reloaded.OverallProgress)
	baselines := reloaded.BaselineMap()
	// 2 次正确 / 3 次作答
	assert.Equal(t, 67, baselines[model.AreaQuantity])
	// 该领域没有作答，保留人工基线
	assert.Equal(t, 35, baselines[model.AreaShapeMovement])
}
