package repository

import (
	"adaptive_tutor/internal/model"

	"gorm.io/gorm"
)

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

func (r *AttemptRepository) WithTx(tx *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: tx}
}

func (r *AttemptRepository) Create(attempt *model.Attempt) error {
	return r.DB.Create(attempt).Error
}

// AttemptStats 某学生在某能力上的作答聚合
type AttemptStats struct {
	StudentID    uint
	CompetencyID uint
	Count        int64
	Mean         float64
	Min          float64
	Max          float64
	Passed       int64
}

func (s AttemptStats) PassRate() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.Passed) / float64(s.Count)
}

const statsColumns = `COUNT(*) AS count,
	COALESCE(AVG(score), 0) AS mean,
	COALESCE(MIN(score), 0) AS min,
	COALESCE(MAX(score), 0) AS max,
	COALESCE(SUM(CASE WHEN score >= ? THEN 1 ELSE 0 END), 0) AS passed`

func (r *AttemptRepository) Stats(studentID, competencyID uint, passingScore float64) (*AttemptStats, error) {
	stats := AttemptStats{StudentID: studentID, CompetencyID: competencyID}
	err := r.DB.Model(&model.Attempt{}).
		Select(statsColumns, passingScore).
		Where("student_id = ? AND competency_id = ?", studentID, competencyID).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	// Scan 会覆盖未选择的列
	stats.StudentID, stats.CompetencyID = studentID, competencyID
	return &stats, nil
}

// AllStats 按 (student, competency) 分组，用于导出训练数据
func (r *AttemptRepository) AllStats(passingScore float64) ([]AttemptStats, error) {
	var rows []AttemptStats
	err := r.DB.Model(&model.Attempt{}).
		Select("student_id, competency_id, "+statsColumns, passingScore).
		Group("student_id, competency_id").
		Order("student_id, competency_id").
		Scan(&rows).Error
	return rows, err
}

// ExerciseOutcome 某学生在单个练习上的作答次数
type ExerciseOutcome struct {
	ExerciseID   uint
	CompetencyID uint
	Attempts     int64
	Correct      int64
}

func (o ExerciseOutcome) Incorrect() int64 {
	return o.Attempts - o.Correct
}

func (r *AttemptRepository) ExerciseOutcomes(studentID uint) ([]ExerciseOutcome, error) {
	var rows []ExerciseOutcome
	err := r.DB.Model(&model.Attempt{}).
		Select("exercise_id, competency_id, COUNT(*) AS attempts, SUM(CASE WHEN correct = ? THEN 1 ELSE 0 END) AS correct", true).
		Where("student_id = ?", studentID).
		Group("exercise_id, competency_id").
		Scan(&rows).Error
	return rows, err
}

// RecentExerciseIDs returns the last n distinct exercises the student attempted, newest first.
func (r *AttemptRepository) RecentExerciseIDs(studentID uint, n int) ([]uint, error) {
	if n <= 0 {
		return nil, nil
	}
	var rows []struct {
		ExerciseID uint
		LastID     uint
	}
	err := r.DB.Model(&model.Attempt{}).
		Select("exercise_id, MAX(id) AS last_id").
		Where("student_id = ?", studentID).
		Group("exercise_id").
		Order("last_id DESC").
		Limit(n).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	ids := make([]uint, len(rows))
	for i, row := range rows {
		ids[i] = row.ExerciseID
	}
	return ids, nil
}

func (r *AttemptRepository) CountIncorrect(studentID, exerciseID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Attempt{}).
		Where("student_id = ? AND exercise_id = ? AND correct = ?", studentID, exerciseID, false).
		Count(&count).Error
	return count, err
}

// Summary 学生全部作答的次数和平均分
func (r *AttemptRepository) Summary(studentID uint) (count int64, mean float64, err error) {
	var row struct {
		Count int64
		Mean  float64
	}
	err = r.DB.Model(&model.Attempt{}).
		Select("COUNT(*) AS count, COALESCE(AVG(score), 0) AS mean").
		Where("student_id = ?", studentID).
		Scan(&row).Error
	return row.Count, row.Mean, err
}

func (r *AttemptRepository) History(studentID uint, limit int) ([]model.Attempt, error) {
	var attempts []model.Attempt
	err := r.DB.Preload("Exercise").
		Where("student_id = ?", studentID).
		Order("answered_at DESC, id DESC").
		Limit(limit).
		Find(&attempts).Error
	return attempts, err
}
