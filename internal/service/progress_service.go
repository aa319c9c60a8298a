package service

import (
	"context"
	"fmt"
	"math"

	"adaptive_tutor/internal/config"
	"adaptive_tutor/internal/model"
	"adaptive_tutor/internal/repository"
	"adaptive_tutor/internal/util"
	"adaptive_tutor/pkg/tracing"

	"gorm.io/gorm"
)

// ProgressResult 一次重算的结果
type ProgressResult struct {
	Scores    []model.Score
	Overall   int
	Baselines map[model.Area]int
}

type ProgressService struct {
	DB             *gorm.DB
	AttemptRepo    *repository.AttemptRepository
	ExerciseRepo   *repository.ExerciseRepository
	CompetencyRepo *repository.CompetencyRepository
	ScoreRepo      *repository.ScoreRepository
	StudentRepo    *repository.StudentRepository
	Config         config.TutorConfig
}

func NewProgressService(
	db *gorm.DB,
	attemptRepo *repository.AttemptRepository,
	exerciseRepo *repository.ExerciseRepository,
	competencyRepo *repository.CompetencyRepository,
	scoreRepo *repository.ScoreRepository,
	studentRepo *repository.StudentRepository,
	cfg config.TutorConfig,
) *ProgressService {
	return &ProgressService{
		DB:             db,
		AttemptRepo:    attemptRepo,
		ExerciseRepo:   exerciseRepo,
		CompetencyRepo: competencyRepo,
		ScoreRepo:      scoreRepo,
		StudentRepo:    studentRepo,
		Config:         cfg,
	}
}

// Recompute rebuilds the student's scores in its own transaction.
func (s *ProgressService) Recompute(ctx context.Context, studentID uint) (*ProgressResult, error) {
	var result *ProgressResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = s.recompute(ctx, tx, studentID)
		return err
	})
	return result, err
}

// recompute is a pure function of the attempt log and the catalog, so running
// it twice yields the same rows.
func (s *ProgressService) recompute(ctx context.Context, tx *gorm.DB, studentID uint) (*ProgressResult, error) {
	_, span := tracing.Tracer.Start(ctx, "ProgressService.recompute")
	defer span.End()

	competencies, err := s.CompetencyRepo.WithTx(tx).List()
	if err != nil {
		return nil, fmt.Errorf("list competencies: %w", err)
	}
	totals, err := s.ExerciseRepo.WithTx(tx).CountByCompetency()
	if err != nil {
		return nil, fmt.Errorf("count exercises: %w", err)
	}
	outcomes, err := s.AttemptRepo.WithTx(tx).ExerciseOutcomes(studentID)
	if err != nil {
		return nil, fmt.Errorf("exercise outcomes: %w", err)
	}

	result := ComputeProgress(studentID, competencies, totals, outcomes, s.Config.WeightNew, s.Config.WeightRepeat)

	scoreRepo := s.ScoreRepo.WithTx(tx)
	for i := range result.Scores {
		if err := scoreRepo.Upsert(&result.Scores[i]); err != nil {
			return nil, fmt.Errorf("upsert score: %w", err)
		}
	}

	studentRepo := s.StudentRepo.WithTx(tx)
	for area, score := range result.Baselines {
		if err := studentRepo.UpsertBaseline(studentID, area, score); err != nil {
			return nil, fmt.Errorf("upsert baseline: %w", err)
		}
	}
	if err := studentRepo.UpdateProgress(studentID, result.Overall); err != nil {
		return nil, fmt.Errorf("update progress: %w", err)
	}
	return result, nil
}

// ComputeProgress derives per-competency scores, the overall progress and the
// refreshed area baselines. Competencies without exercises get a zero score and
// are left out of the overall mean. An area baseline is the mean per-attempt
// score over the area's attempts; areas with no attempts are left out of
// Baselines so the stored manual baseline survives.
func ComputeProgress(studentID uint, competencies []model.Competency, totals map[uint]int64, outcomes []repository.ExerciseOutcome, weightNew, weightRepeat float64) *ProgressResult {
	type agg struct {
		attempts, correctAttempts int64
		distinct, repeated        int
	}
	byCompetency := make(map[uint]*agg)
	for _, o := range outcomes {
		a := byCompetency[o.CompetencyID]
		if a == nil {
			a = &agg{}
			byCompetency[o.CompetencyID] = a
		}
		a.attempts += o.Attempts
		a.correctAttempts += o.Correct
		if o.Correct >= 1 {
			a.distinct++
		}
		if o.Correct >= 2 {
			a.repeated++
		}
	}

	result := &ProgressResult{Baselines: make(map[model.Area]int)}
	areaCorrect := make(map[model.Area]int64)
	areaAttempts := make(map[model.Area]int64)
	overallSum, overallCount := 0, 0

	for _, c := range competencies {
		total := totals[c.ID]
		a := byCompetency[c.ID]
		if a == nil {
			a = &agg{}
		}

		score := model.Score{
			StudentID:       studentID,
			CompetencyID:    c.ID,
			Attempts:        int(a.attempts),
			CorrectAttempts: int(a.correctAttempts),
			DistinctCorrect: a.distinct,
			RepeatedCorrect: a.repeated,
			TotalExercises:  int(total),
		}
		if a.attempts > 0 {
			score.MeanScore = float64(a.correctAttempts*model.ScoreCorrect) / float64(a.attempts)
		}
		if total > 0 {
			raw := (float64(a.distinct)*weightNew + float64(a.repeated)*weightRepeat) / float64(total) * 100
			score.Percentage = util.Clamp(int(math.Round(raw)), 0, 100)

			overallSum += score.Percentage
			overallCount++
		}
		if a.attempts > 0 && c.Area.Valid() {
			areaCorrect[c.Area] += a.correctAttempts
			areaAttempts[c.Area] += a.attempts
		}
		result.Scores = append(result.Scores, score)
	}

	if overallCount > 0 {
		result.Overall = int(math.Round(float64(overallSum) / float64(overallCount)))
	}
	for area, n := range areaAttempts {
		mean := float64(areaCorrect[area]*model.ScoreCorrect) / float64(n)
		result.Baselines[area] = util.Clamp(int(math.Round(mean)), 0, 100)
	}
	return result
}
