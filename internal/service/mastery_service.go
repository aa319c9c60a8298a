package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"adaptive_tutor/internal/config"
	"adaptive_tutor/internal/ml"
	"adaptive_tutor/internal/model"
	"adaptive_tutor/internal/repository"
	"adaptive_tutor/internal/util"
	"adaptive_tutor/pkg/logger"
	"adaptive_tutor/pkg/monitoring"
	"adaptive_tutor/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Classifier predicts a mastery level from aggregated attempt features.
type Classifier interface {
	Predict(ctx context.Context, f ml.Features) (ml.Prediction, error)
}

// MasteryEstimate 单个能力的掌握度估计
type MasteryEstimate struct {
	StudentID    uint                `json:"student_id"`
	CompetencyID uint                `json:"competency_id"`
	Level        model.MasteryLevel  `json:"mastery_level"`
	Source       model.MasterySource `json:"source"`
	AttemptCount int64               `json:"attempt_count"`
	MeanScore    float64             `json:"mean_score"`
	Features     ml.Features         `json:"-"`
	ModelVersion string              `json:"model_version,omitempty"`
}

type MasteryService struct {
	AttemptRepo    *repository.AttemptRepository
	StudentRepo    *repository.StudentRepository
	CompetencyRepo *repository.CompetencyRepository
	MasteryRepo    *repository.MasteryRepository
	Classifier     Classifier
	Config         config.TutorConfig
	now            func() time.Time
}

func NewMasteryService(
	attemptRepo *repository.AttemptRepository,
	studentRepo *repository.StudentRepository,
	competencyRepo *repository.CompetencyRepository,
	masteryRepo *repository.MasteryRepository,
	classifier Classifier,
	cfg config.TutorConfig,
) *MasteryService {
	return &MasteryService{
		AttemptRepo:    attemptRepo,
		StudentRepo:    studentRepo,
		CompetencyRepo: competencyRepo,
		MasteryRepo:    masteryRepo,
		Classifier:     classifier,
		Config:         cfg,
		now:            time.Now,
	}
}

// Estimate is the read-only estimate for one (student, competency).
func (s *MasteryService) Estimate(ctx context.Context, studentID, competencyID uint) (*MasteryEstimate, error) {
	student, err := s.StudentRepo.FindByID(studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrStudentNotFound
		}
		return nil, err
	}
	competency, err := s.CompetencyRepo.FindByID(competencyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCompetencyNotFound
		}
		return nil, err
	}
	return s.estimate(ctx, s.AttemptRepo, student, competency)
}

func (s *MasteryService) estimate(ctx context.Context, attempts *repository.AttemptRepository, student *model.Student, competency *model.Competency) (*MasteryEstimate, error) {
	ctx, span := tracing.Tracer.Start(ctx, "MasteryService.estimate")
	defer span.End()

	stats, err := attempts.Stats(student.ID, competency.ID, s.Config.PassingScore)
	if err != nil {
		return nil, fmt.Errorf("attempt stats: %w", err)
	}

	est := &MasteryEstimate{
		StudentID:    student.ID,
		CompetencyID: competency.ID,
		Level:        model.MasteryUnknown,
		Source:       model.SourceNone,
		AttemptCount: stats.Count,
		MeanScore:    stats.Mean,
		Features: ml.Features{
			AttemptCount: float64(stats.Count),
			MeanScore:    stats.Mean,
			MinScore:     stats.Min,
			MaxScore:     stats.Max,
			PassRate:     stats.PassRate(),
		},
	}

	if stats.Count > 0 && s.Classifier != nil {
		pred, err := s.predict(ctx, est.Features)
		if err == nil && pred.Level != model.MasteryUnknown {
			est.Level = pred.Level
			est.Source = model.SourceModel
			est.ModelVersion = pred.Version
		} else if err != nil && !errors.Is(err, ml.ErrModelUnavailable) {
			monitoring.ClassifierFailures.Inc()
			logger.Log.Warn("Classifier prediction failed, using baseline",
				zap.Uint("studentID", student.ID),
				zap.Uint("competencyID", competency.ID),
				zap.Error(err))
		}
	}

	if est.Source == model.SourceNone {
		if baseline, ok := student.BaselineMap()[competency.Area]; ok {
			est.Level = model.BucketScore(float64(baseline))
			est.Source = model.SourceBaseline
		}
	}

	span.SetAttributes(
		attribute.String("mastery.level", string(est.Level)),
		attribute.String("mastery.source", string(est.Source)),
	)
	monitoring.MasteryEstimates.WithLabelValues(string(est.Source)).Inc()
	return est, nil
}

// predict 捕获分类器中的 panic，任何失败都交给基线兜底
func (s *MasteryService) predict(ctx context.Context, f ml.Features) (pred ml.Prediction, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("classifier panic: %v", r)
		}
	}()
	return s.Classifier.Predict(ctx, f)
}

// persist upserts the record and refreshes the student's overall mastery.
// Unknown estimates are not stored.
func (s *MasteryService) persist(tx *gorm.DB, est *MasteryEstimate) (model.MasteryLevel, error) {
	masteryRepo := s.MasteryRepo.WithTx(tx)

	if est.Level != model.MasteryUnknown {
		features, err := json.Marshal(est.Features)
		if err != nil {
			return model.MasteryUnknown, err
		}
		rec := &model.MasteryRecord{
			StudentID:          est.StudentID,
			CompetencyID:       est.CompetencyID,
			Level:              est.Level,
			LevelValue:         est.Level.Value(),
			MeanScore:          est.MeanScore,
			AttemptsConsidered: int(est.AttemptCount),
			Source:             est.Source,
			ModelVersion:       est.ModelVersion,
			Features:           features,
			EvaluatedAt:        s.now(),
		}
		if err := masteryRepo.Upsert(rec); err != nil {
			return model.MasteryUnknown, fmt.Errorf("upsert mastery: %w", err)
		}
	}

	recs, err := masteryRepo.ListByStudent(est.StudentID)
	if err != nil {
		return model.MasteryUnknown, err
	}
	overall := OverallMastery(recs)
	if overall == model.MasteryUnknown {
		return overall, nil
	}
	if err := s.StudentRepo.WithTx(tx).UpdateOverallMastery(est.StudentID, overall); err != nil {
		return model.MasteryUnknown, fmt.Errorf("update overall mastery: %w", err)
	}
	return overall, nil
}

// OverallMastery buckets the mean numeric level of the records.
func OverallMastery(recs []model.MasteryRecord) model.MasteryLevel {
	sum, n := 0, 0
	for _, r := range recs {
		if v := r.Level.Value(); v > 0 {
			sum += v
			n++
		}
	}
	if n == 0 {
		return model.MasteryUnknown
	}
	mean := float64(sum) / float64(n)
	// 数值等级均值保留两位，避免浮点边界抖动
	return model.BucketLevelValue(math.Round(mean*100) / 100)
}
