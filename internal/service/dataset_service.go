package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"adaptive_tutor/internal/config"
	"adaptive_tutor/internal/ml"
	"adaptive_tutor/internal/model"
	"adaptive_tutor/internal/repository"
)

// trainingLabels 训练流水线使用的标签
var trainingLabels = map[model.MasteryLevel]string{
	model.MasteryLow:    "bajo",
	model.MasteryMedium: "medio",
	model.MasteryHigh:   "alto",
}

type DatasetService struct {
	AttemptRepo *repository.AttemptRepository
	Config      config.TutorConfig
}

func NewDatasetService(attemptRepo *repository.AttemptRepository, cfg config.TutorConfig) *DatasetService {
	return &DatasetService{AttemptRepo: attemptRepo, Config: cfg}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Export writes one row per (student, competency) with the classifier features
// and the label derived from the mean score. It returns the number of rows.
func (s *DatasetService) Export(ctx context.Context, w io.Writer) (int, error) {
	rows, err := s.AttemptRepo.WithTx(s.AttemptRepo.DB.WithContext(ctx)).AllStats(s.Config.PassingScore)
	if err != nil {
		return 0, fmt.Errorf("load attempt stats: %w", err)
	}

	cw := csv.NewWriter(w)
	header := append([]string{"student_id", "competency_id"}, ml.FeatureNames...)
	header = append(header, "label")
	if err := cw.Write(header); err != nil {
		return 0, err
	}

	n := 0
	for _, r := range rows {
		if r.Count == 0 {
			continue
		}
		mean := r.Mean
		if mean < 0 {
			mean = 0
		} else if mean > 100 {
			mean = 100
		}
		record := []string{
			strconv.FormatUint(uint64(r.StudentID), 10),
			strconv.FormatUint(uint64(r.CompetencyID), 10),
			strconv.FormatInt(r.Count, 10),
			formatFloat(mean),
			formatFloat(r.Min),
			formatFloat(r.Max),
			formatFloat(r.PassRate()),
			trainingLabels[model.BucketScore(mean)],
		}
		if err := cw.Write(record); err != nil {
			return n, err
		}
		n++
	}
	cw.Flush()
	return n, cw.Error()
}
