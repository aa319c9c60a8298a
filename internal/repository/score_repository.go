package repository

import (
	"adaptive_tutor/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ScoreRepository struct {
	DB *gorm.DB
}

func NewScoreRepository(db *gorm.DB) *ScoreRepository {
	return &ScoreRepository{DB: db}
}

func (r *ScoreRepository) WithTx(tx *gorm.DB) *ScoreRepository {
	return &ScoreRepository{DB: tx}
}

// Upsert 每个 (student, competency) 一行，重算后整体覆盖
func (r *ScoreRepository) Upsert(score *model.Score) error {
	return r.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "student_id"}, {Name: "competency_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"attempts", "correct_attempts", "mean_score", "distinct_correct",
			"repeated_correct", "total_exercises", "percentage", "updated_at",
		}),
	}).Create(score).Error
}

func (r *ScoreRepository) ListByStudent(studentID uint) ([]model.Score, error) {
	var scores []model.Score
	err := r.DB.Where("student_id = ?", studentID).Order("competency_id ASC").Find(&scores).Error
	return scores, err
}
