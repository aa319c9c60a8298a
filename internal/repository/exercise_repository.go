package repository

import (
	"adaptive_tutor/internal/model"

	"gorm.io/gorm"
)

type ExerciseRepository struct {
	DB *gorm.DB
}

func NewExerciseRepository(db *gorm.DB) *ExerciseRepository {
	return &ExerciseRepository{DB: db}
}

func (r *ExerciseRepository) WithTx(tx *gorm.DB) *ExerciseRepository {
	return &ExerciseRepository{DB: tx}
}

func (r *ExerciseRepository) FindByID(id uint) (*model.Exercise, error) {
	var e model.Exercise
	err := r.DB.Preload("Options", func(db *gorm.DB) *gorm.DB {
		return db.Order("label ASC, id ASC")
	}).Preload("Competency").First(&e, id).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *ExerciseRepository) FindByIDs(ids []uint) ([]model.Exercise, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var exercises []model.Exercise
	err := r.DB.Preload("Options", func(db *gorm.DB) *gorm.DB {
		return db.Order("label ASC, id ASC")
	}).Where("id IN ?", ids).Find(&exercises).Error
	return exercises, err
}

func (r *ExerciseRepository) FindOption(id uint) (*model.Option, error) {
	var o model.Option
	if err := r.DB.First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// CandidateFilter 候选练习过滤条件，零值表示不过滤
type CandidateFilter struct {
	CompetencyID uint
	MinTier      *int
	MaxTier      *int
	ExcludeIDs   []uint
}

// CandidateIDs returns servable exercises: at least one option and at most one
// correct option, ordered by id.
func (r *ExerciseRepository) CandidateIDs(f CandidateFilter) ([]uint, error) {
	optionCount := r.DB.Model(&model.Option{}).
		Select("COUNT(*)").
		Where("exercise_options.exercise_id = exercises.id")
	correctCount := r.DB.Model(&model.Option{}).
		Select("COUNT(*)").
		Where("exercise_options.exercise_id = exercises.id AND exercise_options.is_correct = ?", true)

	q := r.DB.Model(&model.Exercise{}).
		Joins("JOIN competencies ON competencies.id = exercises.competency_id AND competencies.deleted_at IS NULL").
		Where("(?) > 0", optionCount).
		Where("(?) <= 1", correctCount)

	if f.CompetencyID != 0 {
		q = q.Where("exercises.competency_id = ?", f.CompetencyID)
	}
	if f.MinTier != nil {
		q = q.Where("competencies.tier >= ?", *f.MinTier)
	}
	if f.MaxTier != nil {
		q = q.Where("competencies.tier <= ?", *f.MaxTier)
	}
	if len(f.ExcludeIDs) > 0 {
		q = q.Where("exercises.id NOT IN ?", f.ExcludeIDs)
	}

	var ids []uint
	err := q.Order("exercises.id").Pluck("exercises.id", &ids).Error
	return ids, err
}

// CountByCompetency 每个能力下的练习数
func (r *ExerciseRepository) CountByCompetency() (map[uint]int64, error) {
	var rows []struct {
		CompetencyID uint
		Total        int64
	}
	err := r.DB.Model(&model.Exercise{}).
		Select("competency_id, COUNT(*) AS total").
		Group("competency_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.CompetencyID] = row.Total
	}
	return counts, nil
}
