package model

// Score 每个 (student, competency) 一行，每次作答后重写
// swagger:model Score
type Score struct {
	BaseModel
	StudentID       uint    `gorm:"uniqueIndex:idx_score_student_competency;not null" json:"studentId"`
	CompetencyID    uint    `gorm:"uniqueIndex:idx_score_student_competency;not null" json:"competencyId"`
	Attempts        int     `json:"attempts"`
	CorrectAttempts int     `json:"correctAttempts"`
	MeanScore       float64 `json:"meanScore"`
	DistinctCorrect int     `json:"distinctCorrect"`
	RepeatedCorrect int     `json:"repeatedCorrect"`
	TotalExercises  int     `json:"totalExercises"`
	Percentage      int     `json:"percentage"`
}

func (Score) TableName() string {
	return "scores"
}
