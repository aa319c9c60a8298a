package ml

import (
	"context"
	"fmt"
	"sync/atomic"

	"adaptive_tutor/internal/model"
	"adaptive_tutor/pkg/logger"
	"adaptive_tutor/pkg/monitoring"

	"go.uber.org/zap"
)

// Prediction is a decoded classifier output.
type Prediction struct {
	Level   model.MasteryLevel
	Version string
}

// Registry holds the active artifact and swaps it atomically on reload.
type Registry struct {
	// PassingScore 引擎计算 pass_rate 使用的及格线，为 0 时不校验
	PassingScore float64

	source  Source
	current atomic.Pointer[Artifact]
}

func NewRegistry(source Source) *Registry {
	return &Registry{source: source}
}

// Reload 读取并替换当前模型，失败时保留旧模型
func (r *Registry) Reload(ctx context.Context) error {
	if r.source == nil {
		return ErrModelUnavailable
	}
	rc, err := r.source.Open(ctx)
	if err != nil {
		monitoring.ModelReloads.WithLabelValues("error").Inc()
		return fmt.Errorf("open %s: %w", r.source, err)
	}
	defer rc.Close()

	a, err := Decode(rc)
	if err != nil {
		monitoring.ModelReloads.WithLabelValues("error").Inc()
		return fmt.Errorf("decode %s: %w", r.source, err)
	}
	if !a.featuresMatch() {
		logger.Log.Warn("Classifier artifact feature names differ from engine features, predictions will fall back",
			zap.Strings("artifact", a.FeatureNames),
			zap.Strings("engine", FeatureNames))
	}
	if r.PassingScore > 0 && a.PassingScore != r.PassingScore {
		logger.Log.Warn("Classifier artifact was trained with a different passing score, pass_rate feature may be skewed",
			zap.Float64("artifact", a.PassingScore),
			zap.Float64("engine", r.PassingScore))
	}

	r.current.Store(a)
	monitoring.ModelReloads.WithLabelValues("ok").Inc()
	logger.Log.Info("Classifier artifact loaded",
		zap.String("source", r.source.String()),
		zap.String("version", a.Version))
	return nil
}

// Set 直接设置模型，供测试和离线工具使用
func (r *Registry) Set(a *Artifact) {
	r.current.Store(a)
}

func (r *Registry) Current() *Artifact {
	return r.current.Load()
}

// Predict implements the mastery classifier over the current artifact.
func (r *Registry) Predict(ctx context.Context, f Features) (Prediction, error) {
	a := r.current.Load()
	if a == nil {
		return Prediction{}, ErrModelUnavailable
	}
	level, err := a.Predict(f)
	if err != nil {
		return Prediction{}, err
	}
	return Prediction{Level: level, Version: a.Version}, nil
}
