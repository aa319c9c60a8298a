package service

import (
	"context"
	"errors"
	"fmt"

	"adaptive_tutor/internal/config"
	"adaptive_tutor/internal/model"
	"adaptive_tutor/internal/repository"
	"adaptive_tutor/internal/util"
	"adaptive_tutor/pkg/monitoring"
	"adaptive_tutor/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// Selection 选题结果，Exhausted 为正常结果而非错误
type Selection struct {
	Exercise  *model.Exercise
	Exhausted bool
	Relaxed   bool
}

// exclusionSets 由作答记录推导出的排除集合
type exclusionSets struct {
	attempted map[uint]bool
	mastered  map[uint]bool
	blocked   map[uint]bool
	recent    []uint
}

type SelectorService struct {
	AttemptRepo  *repository.AttemptRepository
	ExerciseRepo *repository.ExerciseRepository
	Picker       Picker
	Config       config.TutorConfig
}

func NewSelectorService(attemptRepo *repository.AttemptRepository, exerciseRepo *repository.ExerciseRepository, picker Picker, cfg config.TutorConfig) *SelectorService {
	return &SelectorService{
		AttemptRepo:  attemptRepo,
		ExerciseRepo: exerciseRepo,
		Picker:       picker,
		Config:       cfg,
	}
}

func (s *SelectorService) exclusions(studentID uint) (*exclusionSets, error) {
	outcomes, err := s.AttemptRepo.ExerciseOutcomes(studentID)
	if err != nil {
		return nil, fmt.Errorf("exercise outcomes: %w", err)
	}
	recent, err := s.AttemptRepo.RecentExerciseIDs(studentID, s.Config.RecentWindow)
	if err != nil {
		return nil, fmt.Errorf("recent exercises: %w", err)
	}

	ex := &exclusionSets{
		attempted: make(map[uint]bool, len(outcomes)),
		mastered:  make(map[uint]bool),
		blocked:   make(map[uint]bool),
		recent:    recent,
	}
	for _, o := range outcomes {
		ex.attempted[o.ExerciseID] = true
		switch {
		case o.Correct > 0:
			ex.mastered[o.ExerciseID] = true
		case o.Incorrect() >= int64(s.Config.BlockAfterFailures):
			ex.blocked[o.ExerciseID] = true
		}
	}
	return ex, nil
}

func union(sets ...map[uint]bool) []uint {
	seen := make(map[uint]bool)
	var ids []uint
	for _, set := range sets {
		for id := range set {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func toSet(ids []uint) map[uint]bool {
	set := make(map[uint]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func (s *SelectorService) tierBounds(steering model.Steering) (lo, hi *int) {
	switch steering {
	case model.SteerEasier:
		v := s.Config.EasierMaxTier
		return nil, &v
	case model.SteerHarder:
		v := s.Config.HarderMinTier
		return &v, nil
	}
	return nil, nil
}

// Next picks a never-attempted exercise at random. When none is left it relaxes
// once to exercises attempted but never answered correctly, still skipping
// blocked and recently served ones.
func (s *SelectorService) Next(ctx context.Context, studentID, competencyID uint, steering model.Steering) (*Selection, error) {
	_, span := tracing.Tracer.Start(ctx, "SelectorService.Next")
	defer span.End()

	ex, err := s.exclusions(studentID)
	if err != nil {
		return nil, err
	}
	minTier, maxTier := s.tierBounds(steering)

	passes := []struct {
		relaxed bool
		exclude []uint
	}{
		{false, union(ex.attempted, toSet(ex.recent))},
		{true, union(ex.mastered, ex.blocked, toSet(ex.recent))},
	}
	for _, pass := range passes {
		ids, err := s.ExerciseRepo.CandidateIDs(repository.CandidateFilter{
			CompetencyID: competencyID,
			MinTier:      minTier,
			MaxTier:      maxTier,
			ExcludeIDs:   pass.exclude,
		})
		if err != nil {
			return nil, fmt.Errorf("candidate exercises: %w", err)
		}
		if len(ids) == 0 {
			continue
		}

		id := ids[s.Picker.Intn(len(ids))]
		exercise, err := s.ExerciseRepo.FindByID(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, util.ErrExerciseNotFound
			}
			return nil, err
		}

		outcome := "strict"
		if pass.relaxed {
			outcome = "relaxed"
		}
		monitoring.SelectorOutcomes.WithLabelValues(outcome).Inc()
		span.SetAttributes(attribute.Int("exercise.id", int(id)), attribute.Bool("selector.relaxed", pass.relaxed))
		return &Selection{Exercise: exercise, Relaxed: pass.relaxed}, nil
	}

	monitoring.SelectorOutcomes.WithLabelValues("exhausted").Inc()
	return &Selection{Exhausted: true}, nil
}

// suggestionTiers maps a mastery level onto a tier band; unknown is unfiltered.
func (s *SelectorService) suggestionTiers(level model.MasteryLevel) (lo, hi *int) {
	c := s.Config
	switch level {
	case model.MasteryLow:
		return nil, &c.SuggestionLowMaxTier
	case model.MasteryMedium:
		return &c.SuggestionMidMinTier, &c.SuggestionMidMaxTier
	case model.MasteryHigh:
		return &c.SuggestionHighMin, nil
	}
	return nil, nil
}

// Suggestions returns up to limit exercises of the competency in the tier band
// of the student's level, in random order. Mastered and blocked exercises are skipped.
func (s *SelectorService) Suggestions(ctx context.Context, studentID, competencyID uint, level model.MasteryLevel, limit int) ([]model.Exercise, error) {
	_, span := tracing.Tracer.Start(ctx, "SelectorService.Suggestions")
	defer span.End()

	ex, err := s.exclusions(studentID)
	if err != nil {
		return nil, err
	}
	minTier, maxTier := s.suggestionTiers(level)

	ids, err := s.ExerciseRepo.CandidateIDs(repository.CandidateFilter{
		CompetencyID: competencyID,
		MinTier:      minTier,
		MaxTier:      maxTier,
		ExcludeIDs:   union(ex.mastered, ex.blocked),
	})
	if err != nil {
		return nil, fmt.Errorf("candidate exercises: %w", err)
	}

	s.Picker.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	if len(ids) > limit {
		ids = ids[:limit]
	}

	exercises, err := s.ExerciseRepo.FindByIDs(ids)
	if err != nil {
		return nil, err
	}
	// 按随机顺序返回
	byID := make(map[uint]model.Exercise, len(exercises))
	for _, e := range exercises {
		byID[e.ID] = e
	}
	ordered := make([]model.Exercise, 0, len(ids))
	for _, id := range ids {
		if e, ok := byID[id]; ok {
			ordered = append(ordered, e)
		}
	}
	return ordered, nil
}
