package model

import "time"

const (
	ScoreCorrect   = 100
	ScoreIncorrect = 0
)

// Attempt 作答记录，只追加不修改
// swagger:model Attempt
type Attempt struct {
	BaseModel
	StudentID      uint      `gorm:"index:idx_attempt_student_exercise;index:idx_attempt_student_competency;not null" json:"studentId"`
	ExerciseID     uint      `gorm:"index:idx_attempt_student_exercise;not null" json:"exerciseId"`
	Exercise       *Exercise `gorm:"foreignKey:ExerciseID" json:"exercise,omitempty"`
	CompetencyID   uint      `gorm:"index:idx_attempt_student_competency;not null" json:"competencyId"` // 冗余自 exercise，用于聚合
	OptionID       uint      `gorm:"not null" json:"optionId"`
	Correct        bool      `gorm:"default:false" json:"correct"`
	Score          int       `json:"score"`
	ElapsedSeconds *float64  `json:"elapsedSeconds,omitempty"`
	UsedHint       bool      `gorm:"default:false" json:"usedHint"`
	AnsweredAt     time.Time `json:"answeredAt"`
}

func (Attempt) TableName() string {
	return "attempts"
}

func ScoreFor(correct bool) int {
	if correct {
		return ScoreCorrect
	}
	return ScoreIncorrect
}
