package repository

import (
	"time"

	"adaptive_tutor/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StudentRepository struct {
	DB *gorm.DB
}

func NewStudentRepository(db *gorm.DB) *StudentRepository {
	return &StudentRepository{DB: db}
}

func (r *StudentRepository) WithTx(tx *gorm.DB) *StudentRepository {
	return &StudentRepository{DB: tx}
}

func (r *StudentRepository) FindByID(id uint) (*model.Student, error) {
	var s model.Student
	if err := r.DB.Preload("Baselines").First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// LockForUpdate 锁定学生行直到事务结束；sqlite 不支持行锁，依赖单连接串行化
func (r *StudentRepository) LockForUpdate(id uint) (*model.Student, error) {
	q := r.DB
	if r.DB.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var s model.Student
	if err := q.First(&s, id).Error; err != nil {
		return nil, err
	}
	if err := r.DB.Where("student_id = ?", id).Find(&s.Baselines).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StudentRepository) UpsertBaseline(studentID uint, area model.Area, score int) error {
	b := model.StudentBaseline{StudentID: studentID, Area: area, Score: score}
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "student_id"}, {Name: "area"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"score": score, "updated_at": time.Now()}),
	}).Create(&b).Error
}

func (r *StudentRepository) UpdateProgress(studentID uint, progress int) error {
	return r.DB.Model(&model.Student{}).
		Where("id = ?", studentID).
		Update("overall_progress", progress).Error
}

func (r *StudentRepository) UpdateOverallMastery(studentID uint, level model.MasteryLevel) error {
	return r.DB.Model(&model.Student{}).
		Where("id = ?", studentID).
		Update("overall_mastery", string(level)).Error
}

func (r *StudentRepository) Create(student *model.Student) error {
	return r.DB.Create(student).Error
}
