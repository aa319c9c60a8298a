package model

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

type MasteryLevel string

const (
	MasteryLow     MasteryLevel = "low"
	MasteryMedium  MasteryLevel = "medium"
	MasteryHigh    MasteryLevel = "high"
	MasteryUnknown MasteryLevel = "unknown"
)

// ParseMasteryLevel accepts english labels and the spanish labels the classifier was trained with.
func ParseMasteryLevel(s string) (MasteryLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "bajo":
		return MasteryLow, true
	case "medium", "medio":
		return MasteryMedium, true
	case "high", "alto":
		return MasteryHigh, true
	}
	return MasteryUnknown, false
}

// Value 数值等级：low=2, medium=4, high=6
func (l MasteryLevel) Value() int {
	switch l {
	case MasteryLow:
		return 2
	case MasteryMedium:
		return 4
	case MasteryHigh:
		return 6
	}
	return 0
}

// BucketScore buckets a 0-100 proficiency: <40 low, <70 medium, else high.
func BucketScore(v float64) MasteryLevel {
	switch {
	case v < 40:
		return MasteryLow
	case v < 70:
		return MasteryMedium
	default:
		return MasteryHigh
	}
}

// BucketLevelValue buckets a mean numeric level: <3 low, <5 medium, else high.
func BucketLevelValue(v float64) MasteryLevel {
	switch {
	case v < 3:
		return MasteryLow
	case v < 5:
		return MasteryMedium
	default:
		return MasteryHigh
	}
}

type MasterySource string

const (
	SourceModel    MasterySource = "model"
	SourceBaseline MasterySource = "baseline"
	SourceNone     MasterySource = "none"
)

// MasteryRecord 每个 (student, competency) 一行，upsert
// swagger:model MasteryRecord
type MasteryRecord struct {
	BaseModel
	StudentID          uint           `gorm:"uniqueIndex:idx_mastery_student_competency;not null" json:"studentId"`
	CompetencyID       uint           `gorm:"uniqueIndex:idx_mastery_student_competency;not null" json:"competencyId"`
	Level              MasteryLevel   `gorm:"type:varchar(20)" json:"level"`
	LevelValue         int            `json:"levelValue"`
	MeanScore          float64        `json:"meanScore"`
	AttemptsConsidered int            `json:"attemptsConsidered"`
	Source             MasterySource  `gorm:"type:varchar(20)" json:"source"`
	ModelVersion       string         `gorm:"size:64" json:"modelVersion,omitempty"`
	Features           datatypes.JSON `json:"features,omitempty"`
	EvaluatedAt        time.Time      `json:"evaluatedAt"`
}

func (MasteryRecord) TableName() string {
	return "mastery_records"
}
