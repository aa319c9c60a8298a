package model

// swagger:model Student
type Student struct {
	BaseModel
	Name            string            `gorm:"size:100;not null" json:"name"`
	OverallProgress int               `gorm:"default:0" json:"overallProgress"`
	OverallMastery  string            `gorm:"size:20" json:"overallMastery,omitempty"`
	Baselines       []StudentBaseline `gorm:"foreignKey:StudentID" json:"baselines,omitempty"`
}

func (Student) TableName() string {
	return "students"
}

// StudentBaseline 每个领域的基线熟练度 (0-100)，在有作答记录之前使用
// swagger:model StudentBaseline
type StudentBaseline struct {
	BaseModel
	StudentID uint `gorm:"uniqueIndex:idx_baseline_student_area;not null" json:"studentId"`
	Area      Area `gorm:"uniqueIndex:idx_baseline_student_area;type:varchar(64);not null" json:"area"`
	Score     int  `json:"score"`
}

func (StudentBaseline) TableName() string {
	return "student_baselines"
}

// BaselineMap returns the baselines keyed by area.
func (s *Student) BaselineMap() map[Area]int {
	m := make(map[Area]int, len(s.Baselines))
	for _, b := range s.Baselines {
		m[b.Area] = b.Score
	}
	return m
}
