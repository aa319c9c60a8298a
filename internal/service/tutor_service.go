package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"adaptive_tutor/internal/config"
	"adaptive_tutor/internal/i18n"
	"adaptive_tutor/internal/model"
	"adaptive_tutor/internal/repository"
	"adaptive_tutor/internal/util"
	"adaptive_tutor/pkg/lock"
	"adaptive_tutor/pkg/logger"
	"adaptive_tutor/pkg/monitoring"
	"adaptive_tutor/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type OptionView struct {
	ID    uint   `json:"id"`
	Label string `json:"label"`
	Text  string `json:"text"`
}

// ExerciseView 下发给学生的练习，不包含正确答案
type ExerciseView struct {
	ID           uint         `json:"id"`
	CompetencyID uint         `json:"competency_id"`
	Body         string       `json:"body"`
	ImageURL     string       `json:"image_url,omitempty"`
	Hint         string       `json:"hint,omitempty"`
	Options      []OptionView `json:"options"`
}

type NextExerciseResponse struct {
	Exhausted bool          `json:"exhausted"`
	Exercise  *ExerciseView `json:"exercise,omitempty"`
	Message   string        `json:"message,omitempty"`
}

type AnswerRequest struct {
	StudentID      uint     `json:"student_id"`
	ExerciseID     uint     `json:"exercise_id"`
	OptionID       uint     `json:"option_id"`
	ElapsedSeconds *float64 `json:"elapsed_seconds"`
	UsedHint       bool     `json:"used_hint"`
}

type AnswerResponse struct {
	Correct              bool                `json:"correct"`
	ShowHint             bool                `json:"show_hint"`
	Hint                 string              `json:"hint,omitempty"`
	Message              string              `json:"message"`
	NextSteering         model.Steering      `json:"next_steering"`
	MasteryLevel         model.MasteryLevel  `json:"mastery_level"`
	MasterySource        model.MasterySource `json:"mastery_source"`
	AttemptID            uint                `json:"attempt_id"`
	OverallMastery       model.MasteryLevel  `json:"overall_mastery,omitempty"`
	OverallProgress      int                 `json:"overall_progress"`
	CompetencyPercentage int                 `json:"competency_percentage"`
}

type SuggestionsResponse struct {
	MasteryLevel model.MasteryLevel `json:"mastery_level"`
	Exercises    []ExerciseView     `json:"exercises"`
	Message      string             `json:"message,omitempty"`
}

type CompetencyProgress struct {
	CompetencyID    uint       `json:"competency_id"`
	Name            string     `json:"name"`
	Area            model.Area `json:"area"`
	Tier            int        `json:"tier"`
	Attempts        int        `json:"attempts"`
	DistinctCorrect int        `json:"distinct_correct"`
	TotalExercises  int        `json:"total_exercises"`
	Percentage      int        `json:"percentage"`
}

type ProgressResponse struct {
	AttemptCount    int64                `json:"attempt_count"`
	Percentage      int                  `json:"percentage"`
	Summary         string               `json:"summary"`
	OverallProgress int                  `json:"overall_progress"`
	OverallMastery  string               `json:"overall_mastery,omitempty"`
	Baselines       map[model.Area]int   `json:"baselines"`
	Competencies    []CompetencyProgress `json:"competencies"`
}

type HistoryItem struct {
	AttemptID      uint      `json:"attempt_id"`
	ExerciseID     uint      `json:"exercise_id"`
	CompetencyID   uint      `json:"competency_id"`
	Body           string    `json:"body"`
	Correct        bool      `json:"correct"`
	Score          int       `json:"score"`
	UsedHint       bool      `json:"used_hint"`
	ElapsedSeconds *float64  `json:"elapsed_seconds,omitempty"`
	AnsweredAt     time.Time `json:"answered_at"`
}

type TutorService struct {
	DB             *gorm.DB
	StudentRepo    *repository.StudentRepository
	CompetencyRepo *repository.CompetencyRepository
	ExerciseRepo   *repository.ExerciseRepository
	AttemptRepo    *repository.AttemptRepository
	ScoreRepo      *repository.ScoreRepository
	Mastery        *MasteryService
	Progress       *ProgressService
	Selector       *SelectorService
	Policy         DifficultyPolicy
	Locker         lock.Locker
	Config         config.TutorConfig
	AssetBaseURL   string
}

func NewTutorService(
	db *gorm.DB,
	studentRepo *repository.StudentRepository,
	competencyRepo *repository.CompetencyRepository,
	exerciseRepo *repository.ExerciseRepository,
	attemptRepo *repository.AttemptRepository,
	scoreRepo *repository.ScoreRepository,
	mastery *MasteryService,
	progress *ProgressService,
	selector *SelectorService,
	locker lock.Locker,
	cfg *config.Config,
) *TutorService {
	return &TutorService{
		DB:             db,
		StudentRepo:    studentRepo,
		CompetencyRepo: competencyRepo,
		ExerciseRepo:   exerciseRepo,
		AttemptRepo:    attemptRepo,
		ScoreRepo:      scoreRepo,
		Mastery:        mastery,
		Progress:       progress,
		Selector:       selector,
		Policy:         NewDifficultyPolicy(cfg.Tutor),
		Locker:         locker,
		Config:         cfg.Tutor,
		AssetBaseURL:   cfg.Assets.BaseURL,
	}
}

func notFound(err error, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

func (s *TutorService) exerciseView(e *model.Exercise) ExerciseView {
	v := ExerciseView{
		ID:           e.ID,
		CompetencyID: e.CompetencyID,
		Body:         e.Body,
		ImageURL:     util.AssetURL(s.AssetBaseURL, e.ImageURL),
		Hint:         e.Hint,
		Options:      make([]OptionView, 0, len(e.Options)),
	}
	for _, o := range e.Options {
		v.Options = append(v.Options, OptionView{ID: o.ID, Label: o.Label, Text: o.Text})
	}
	return v
}

func (s *TutorService) ensureStudent(studentID uint) (*model.Student, error) {
	student, err := s.StudentRepo.FindByID(studentID)
	if err != nil {
		return nil, notFound(err, util.ErrStudentNotFound)
	}
	return student, nil
}

func (s *TutorService) ensureCompetency(competencyID uint) (*model.Competency, error) {
	competency, err := s.CompetencyRepo.FindByID(competencyID)
	if err != nil {
		return nil, notFound(err, util.ErrCompetencyNotFound)
	}
	return competency, nil
}

// NextExercise 选出下一道练习；competencyID 为 0 时不限能力
func (s *TutorService) NextExercise(ctx context.Context, studentID, competencyID uint, steering model.Steering) (*NextExerciseResponse, error) {
	if _, err := s.ensureStudent(studentID); err != nil {
		return nil, err
	}
	if competencyID != 0 {
		if _, err := s.ensureCompetency(competencyID); err != nil {
			return nil, err
		}
	}

	sel, err := s.Selector.Next(ctx, studentID, competencyID, steering)
	if err != nil {
		return nil, err
	}
	if sel.Exhausted {
		return &NextExerciseResponse{Exhausted: true, Message: i18n.T(ctx, i18n.MsgSelectorExhausted)}, nil
	}
	view := s.exerciseView(sel.Exercise)
	return &NextExerciseResponse{Exercise: &view}, nil
}

// SubmitAnswer records the attempt and updates score, mastery and student
// progress atomically, serialized per student.
func (s *TutorService) SubmitAnswer(ctx context.Context, req AnswerRequest) (*AnswerResponse, error) {
	ctx, span := tracing.Tracer.Start(ctx, "TutorService.SubmitAnswer")
	defer span.End()
	span.SetAttributes(
		attribute.Int("student.id", int(req.StudentID)),
		attribute.Int("exercise.id", int(req.ExerciseID)),
	)

	release, err := s.Locker.Acquire(ctx, "student:"+strconv.FormatUint(uint64(req.StudentID), 10))
	if err != nil {
		if errors.Is(err, lock.ErrLockTimeout) {
			return nil, util.ErrStudentBusy
		}
		return nil, fmt.Errorf("acquire student lock: %w", err)
	}
	defer release()

	var (
		resp     AnswerResponse
		decision Decision
	)
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		student, err := s.StudentRepo.WithTx(tx).LockForUpdate(req.StudentID)
		if err != nil {
			return notFound(err, util.ErrStudentNotFound)
		}

		exerciseRepo := s.ExerciseRepo.WithTx(tx)
		exercise, err := exerciseRepo.FindByID(req.ExerciseID)
		if err != nil {
			return notFound(err, util.ErrExerciseNotFound)
		}
		option, err := exerciseRepo.FindOption(req.OptionID)
		if err != nil {
			return notFound(err, util.ErrOptionNotFound)
		}
		if option.ExerciseID != exercise.ID {
			return util.ErrOptionMismatch
		}
		if exercise.CorrectOptionCount() > 1 {
			return util.ErrAmbiguousCorrectOption
		}

		attemptRepo := s.AttemptRepo.WithTx(tx)
		priorIncorrect, err := attemptRepo.CountIncorrect(student.ID, exercise.ID)
		if err != nil {
			return err
		}

		attempt := &model.Attempt{
			StudentID:      student.ID,
			ExerciseID:     exercise.ID,
			CompetencyID:   exercise.CompetencyID,
			OptionID:       option.ID,
			Correct:        option.IsCorrect,
			Score:          model.ScoreFor(option.IsCorrect),
			ElapsedSeconds: req.ElapsedSeconds,
			UsedHint:       req.UsedHint,
			AnsweredAt:     time.Now(),
		}
		if err := attemptRepo.Create(attempt); err != nil {
			return fmt.Errorf("create attempt: %w", err)
		}

		progress, err := s.Progress.recompute(ctx, tx, student.ID)
		if err != nil {
			return err
		}
		for i := range student.Baselines {
			if v, ok := progress.Baselines[student.Baselines[i].Area]; ok {
				student.Baselines[i].Score = v
			}
		}
		for area, v := range progress.Baselines {
			if _, ok := student.BaselineMap()[area]; !ok {
				student.Baselines = append(student.Baselines, model.StudentBaseline{StudentID: student.ID, Area: area, Score: v})
			}
		}

		competency := exercise.Competency
		if competency == nil {
			if competency, err = s.CompetencyRepo.WithTx(tx).FindByID(exercise.CompetencyID); err != nil {
				return notFound(err, util.ErrCompetencyNotFound)
			}
		}
		est, err := s.Mastery.estimate(ctx, attemptRepo, student, competency)
		if err != nil {
			return err
		}
		overall, err := s.Mastery.persist(tx, est)
		if err != nil {
			return err
		}

		decision = s.Policy.Decide(Outcome{
			Correct:        attempt.Correct,
			UsedHint:       attempt.UsedHint,
			ElapsedSeconds: attempt.ElapsedSeconds,
		}, priorIncorrect, est.Level)

		resp = AnswerResponse{
			Correct:         attempt.Correct,
			ShowHint:        decision.ShowHint,
			NextSteering:    decision.Steering,
			MasteryLevel:    est.Level,
			MasterySource:   est.Source,
			AttemptID:       attempt.ID,
			OverallProgress: progress.Overall,
		}
		if overall != model.MasteryUnknown {
			resp.OverallMastery = overall
		}
		if decision.ShowHint {
			resp.Hint = exercise.Hint
		}
		for _, sc := range progress.Scores {
			if sc.CompetencyID == exercise.CompetencyID {
				resp.CompetencyPercentage = sc.Percentage
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp.Message = i18n.T(ctx, decision.MessageID)
	monitoring.AnswersSubmitted.WithLabelValues(strconv.FormatBool(resp.Correct), string(resp.NextSteering)).Inc()
	logger.Log.Debug("Answer recorded",
		zap.Uint("studentID", req.StudentID),
		zap.Uint("exerciseID", req.ExerciseID),
		zap.Uint("attemptID", resp.AttemptID),
		zap.Bool("correct", resp.Correct),
		zap.String("mastery", string(resp.MasteryLevel)),
		zap.String("steering", string(resp.NextSteering)))
	return &resp, nil
}

func (s *TutorService) MasteryLevel(ctx context.Context, studentID, competencyID uint) (*MasteryEstimate, error) {
	return s.Mastery.Estimate(ctx, studentID, competencyID)
}

func (s *TutorService) Suggestions(ctx context.Context, studentID, competencyID uint, limit int) (*SuggestionsResponse, error) {
	est, err := s.Mastery.Estimate(ctx, studentID, competencyID)
	if err != nil {
		return nil, err
	}
	exercises, err := s.Selector.Suggestions(ctx, studentID, competencyID, est.Level, limit)
	if err != nil {
		return nil, err
	}

	resp := &SuggestionsResponse{MasteryLevel: est.Level, Exercises: make([]ExerciseView, 0, len(exercises))}
	for i := range exercises {
		resp.Exercises = append(resp.Exercises, s.exerciseView(&exercises[i]))
	}
	if len(resp.Exercises) == 0 {
		resp.Message = i18n.T(ctx, i18n.MsgSuggestionsEmpty)
	}
	return resp, nil
}

func summaryMessageID(percentage int) string {
	switch {
	case percentage >= 80:
		return i18n.MsgSummaryExcellent
	case percentage >= 50:
		return i18n.MsgSummaryGood
	default:
		return i18n.MsgSummaryReinforce
	}
}

// ProgressSummary 进度概览，基于已持久化的分数
func (s *TutorService) ProgressSummary(ctx context.Context, studentID uint) (*ProgressResponse, error) {
	student, err := s.ensureStudent(studentID)
	if err != nil {
		return nil, err
	}

	count, mean, err := s.AttemptRepo.Summary(studentID)
	if err != nil {
		return nil, err
	}
	percentage := util.Clamp(int(math.Round(mean)), 0, 100)

	competencies, err := s.CompetencyRepo.List()
	if err != nil {
		return nil, err
	}
	scores, err := s.ScoreRepo.ListByStudent(studentID)
	if err != nil {
		return nil, err
	}
	byCompetency := make(map[uint]model.Score, len(scores))
	for _, sc := range scores {
		byCompetency[sc.CompetencyID] = sc
	}

	resp := &ProgressResponse{
		AttemptCount:    count,
		Percentage:      percentage,
		Summary:         i18n.T(ctx, summaryMessageID(percentage)),
		OverallProgress: student.OverallProgress,
		OverallMastery:  student.OverallMastery,
		Baselines:       student.BaselineMap(),
		Competencies:    make([]CompetencyProgress, 0, len(competencies)),
	}
	for _, c := range competencies {
		sc := byCompetency[c.ID]
		resp.Competencies = append(resp.Competencies, CompetencyProgress{
			CompetencyID:    c.ID,
			Name:            c.Name,
			Area:            c.Area,
			Tier:            c.Tier,
			Attempts:        sc.Attempts,
			DistinctCorrect: sc.DistinctCorrect,
			TotalExercises:  sc.TotalExercises,
			Percentage:      sc.Percentage,
		})
	}
	return resp, nil
}

func (s *TutorService) History(ctx context.Context, studentID uint, limit int) ([]HistoryItem, error) {
	if _, err := s.ensureStudent(studentID); err != nil {
		return nil, err
	}
	attempts, err := s.AttemptRepo.History(studentID, limit)
	if err != nil {
		return nil, err
	}
	items := make([]HistoryItem, 0, len(attempts))
	for _, a := range attempts {
		item := HistoryItem{
			AttemptID:      a.ID,
			ExerciseID:     a.ExerciseID,
			CompetencyID:   a.CompetencyID,
			Correct:        a.Correct,
			Score:          a.Score,
			UsedHint:       a.UsedHint,
			ElapsedSeconds: a.ElapsedSeconds,
			AnsweredAt:     a.AnsweredAt,
		}
		if a.Exercise != nil {
			item.Body = a.Exercise.Body
		}
		items = append(items, item)
	}
	return items, nil
}
