package model

// swagger:model Competency
type Competency struct {
	BaseModel
	Name        string     `gorm:"size:255;not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	Area        Area       `gorm:"type:varchar(64);index" json:"area"`
	Tier        int        `gorm:"default:1" json:"tier"`
	Exercises   []Exercise `gorm:"foreignKey:CompetencyID" json:"-"`
}

func (Competency) TableName() string {
	return "competencies"
}
