package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"adaptive_tutor/internal/model"
	"adaptive_tutor/internal/repository"
	"adaptive_tutor/pkg/logger"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// SeedFile 初始数据文件：学生基线和能力题库
type SeedFile struct {
	Students     []SeedStudent    `yaml:"students"`
	Competencies []SeedCompetency `yaml:"competencies"`
}

type SeedStudent struct {
	Name      string         `yaml:"name"`
	Baselines map[string]int `yaml:"baselines"`
}

type SeedCompetency struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Area        string         `yaml:"area"`
	Tier        int            `yaml:"tier"`
	Exercises   []SeedExercise `yaml:"exercises"`
}

type SeedExercise struct {
	Body     string       `yaml:"body"`
	ImageURL string       `yaml:"image_url"`
	Hint     string       `yaml:"hint"`
	Options  []SeedOption `yaml:"options"`
}

type SeedOption struct {
	Label   string `yaml:"label"`
	Text    string `yaml:"text"`
	Correct bool   `yaml:"correct"`
}

type SeedResult struct {
	Students     int
	Competencies int
	Exercises    int
}

type SeedService struct {
	DB          *gorm.DB
	StudentRepo *repository.StudentRepository
}

func NewSeedService(db *gorm.DB, studentRepo *repository.StudentRepository) *SeedService {
	return &SeedService{DB: db, StudentRepo: studentRepo}
}

// Validate checks areas, baselines and the single correct option rule.
func (f *SeedFile) Validate() error {
	for _, s := range f.Students {
		if s.Name == "" {
			return fmt.Errorf("student without name")
		}
		for area, score := range s.Baselines {
			if _, ok := model.ParseArea(area); !ok {
				return fmt.Errorf("student %s: unknown area %q", s.Name, area)
			}
			if score < 0 || score > 100 {
				return fmt.Errorf("student %s: baseline %s out of range: %d", s.Name, area, score)
			}
		}
	}
	for _, c := range f.Competencies {
		if c.Name == "" {
			return fmt.Errorf("competency without name")
		}
		if _, ok := model.ParseArea(c.Area); !ok {
			return fmt.Errorf("competency %s: unknown area %q", c.Name, c.Area)
		}
		for i, e := range c.Exercises {
			correct := 0
			for _, o := range e.Options {
				if o.Correct {
					correct++
				}
			}
			if len(e.Options) == 0 || correct != 1 {
				return fmt.Errorf("competency %s exercise %d: need options with exactly one correct, got %d correct of %d",
					c.Name, i+1, correct, len(e.Options))
			}
		}
	}
	return nil
}

// Import loads a YAML seed file in one transaction. Students and competencies
// are matched by name, exercises by body within their competency, so the same
// file can be imported twice.
func (s *SeedService) Import(ctx context.Context, r io.Reader) (*SeedResult, error) {
	var file SeedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	if err := file.Validate(); err != nil {
		return nil, err
	}

	res := &SeedResult{}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		studentRepo := s.StudentRepo.WithTx(tx)
		for _, fs := range file.Students {
			var student model.Student
			err := tx.Where("name = ?", fs.Name).First(&student).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				student = model.Student{Name: fs.Name}
				err = studentRepo.Create(&student)
				res.Students++
			}
			if err != nil {
				return fmt.Errorf("student %s: %w", fs.Name, err)
			}
			for raw, score := range fs.Baselines {
				area, _ := model.ParseArea(raw)
				if err := studentRepo.UpsertBaseline(student.ID, area, score); err != nil {
					return fmt.Errorf("baseline %s/%s: %w", fs.Name, area, err)
				}
			}
		}

		for _, fc := range file.Competencies {
			area, _ := model.ParseArea(fc.Area)
			tier := fc.Tier
			if tier == 0 {
				tier = 1
			}
			var c model.Competency
			err := tx.Where("name = ?", fc.Name).First(&c).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				c = model.Competency{Name: fc.Name, Description: fc.Description, Area: area, Tier: tier}
				err = tx.Create(&c).Error
				res.Competencies++
			case err == nil:
				err = tx.Model(&c).Updates(map[string]interface{}{
					"description": fc.Description,
					"area":        area,
					"tier":        tier,
				}).Error
			}
			if err != nil {
				return fmt.Errorf("competency %s: %w", fc.Name, err)
			}

			for _, fe := range fc.Exercises {
				var count int64
				if err := tx.Model(&model.Exercise{}).
					Where("competency_id = ? AND body = ?", c.ID, fe.Body).
					Count(&count).Error; err != nil {
					return err
				}
				if count > 0 {
					continue
				}

				e := model.Exercise{CompetencyID: c.ID, Body: fe.Body, ImageURL: fe.ImageURL, Hint: fe.Hint}
				for i, fo := range fe.Options {
					label := fo.Label
					if label == "" {
						label = string(rune('A' + i))
					}
					e.Options = append(e.Options, model.Option{Label: label, Text: fo.Text, IsCorrect: fo.Correct})
				}
				if err := tx.Create(&e).Error; err != nil {
					return fmt.Errorf("exercise of %s: %w", fc.Name, err)
				}
				res.Exercises++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("Seed data imported",
		zap.Int("students", res.Students),
		zap.Int("competencies", res.Competencies),
		zap.Int("exercises", res.Exercises))
	return res, nil
}
