package model

// swagger:model Exercise
type Exercise struct {
	BaseModel
	CompetencyID uint        `gorm:"index;not null" json:"competencyId"`
	Competency   *Competency `gorm:"foreignKey:CompetencyID" json:"-"`
	Body         string      `gorm:"type:text;not null" json:"body"`
	ImageURL     string      `gorm:"size:512" json:"imageUrl,omitempty"`
	Hint         string      `gorm:"type:text" json:"hint,omitempty"`
	Options      []Option    `gorm:"foreignKey:ExerciseID" json:"options"`
}

func (Exercise) TableName() string {
	return "exercises"
}

// CorrectOptionCount 存储层不保证唯一正确选项，由业务层检查
func (e *Exercise) CorrectOptionCount() int {
	n := 0
	for _, o := range e.Options {
		if o.IsCorrect {
			n++
		}
	}
	return n
}

// swagger:model Option
type Option struct {
	BaseModel
	ExerciseID uint   `gorm:"index;not null" json:"exerciseId"`
	Label      string `gorm:"size:8" json:"label"`
	Text       string `gorm:"type:text" json:"text"`
	IsCorrect  bool   `gorm:"default:false" json:"-"`
}

func (Option) TableName() string {
	return "exercise_options"
}
