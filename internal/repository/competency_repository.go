package repository

import (
	"adaptive_tutor/internal/model"

	"gorm.io/gorm"
)

type CompetencyRepository struct {
	DB *gorm.DB
}

func NewCompetencyRepository(db *gorm.DB) *CompetencyRepository {
	return &CompetencyRepository{DB: db}
}

func (r *CompetencyRepository) WithTx(tx *gorm.DB) *CompetencyRepository {
	return &CompetencyRepository{DB: tx}
}

func (r *CompetencyRepository) FindByID(id uint) (*model.Competency, error) {
	var c model.Competency
	if err := r.DB.First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CompetencyRepository) List() ([]model.Competency, error) {
	var competencies []model.Competency
	err := r.DB.Order("id ASC").Find(&competencies).Error
	return competencies, err
}
