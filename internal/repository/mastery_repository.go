package repository

import (
	"adaptive_tutor/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MasteryRepository struct {
	DB *gorm.DB
}

func NewMasteryRepository(db *gorm.DB) *MasteryRepository {
	return &MasteryRepository{DB: db}
}

func (r *MasteryRepository) WithTx(tx *gorm.DB) *MasteryRepository {
	return &MasteryRepository{DB: tx}
}

func (r *MasteryRepository) Upsert(rec *model.MasteryRecord) error {
	return r.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "student_id"}, {Name: "competency_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"level", "level_value", "mean_score", "attempts_considered", "source",
			"model_version", "features", "evaluated_at", "updated_at",
		}),
	}).Create(rec).Error
}

func (r *MasteryRepository) Find(studentID, competencyID uint) (*model.MasteryRecord, error) {
	var rec model.MasteryRecord
	err := r.DB.Where("student_id = ? AND competency_id = ?", studentID, competencyID).First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *MasteryRepository) ListByStudent(studentID uint) ([]model.MasteryRecord, error) {
	var recs []model.MasteryRecord
	err := r.DB.Where("student_id = ?", studentID).Order("competency_id ASC").Find(&recs).Error
	return recs, err
}
