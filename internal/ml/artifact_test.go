package ml

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"adaptive_tutor/internal/config"
	"adaptive_tutor/internal/model"
	"adaptive_tutor/internal/util"
	"adaptive_tutor/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const treeJSON = `{
  "version": "test-1",
  "feature_names": ["attempt_count", "mean_score", "min_score", "max_score", "pass_rate"],
  "passing_score": 60,
  "classes": ["alto", "bajo", "medio"],
  "nodes": [
    {"feature": 1, "threshold": 39.99, "left": 1, "right": 2, "class": -1},
    {"feature": -1, "threshold": 0, "left": -1, "right": -1, "class": 1},
    {"feature": 1, "threshold": 69.99, "left": 3, "right": 4, "class": -1},
    {"feature": -1, "threshold": 0, "left": -1, "right": -1, "class": 2},
    {"feature": -1, "threshold": 0, "left": -1, "right": -1, "class": 0}
  ]
}`

func TestArtifactPredict(t *testing.T) {
	a, err := Decode(strings.NewReader(treeJSON))
	require.NoError(t, err)

	tests := []struct {
		mean float64
		want model.MasteryLevel
	}{
		{0, model.MasteryLow},
		{39.5, model.MasteryLow},
		{50, model.MasteryMedium},
		{69, model.MasteryMedium},
		{100, model.MasteryHigh},
	}
	for _, tt := range tests {
		got, err := a.Predict(Features{AttemptCount: 3, MeanScore: tt.mean})
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "mean %v", tt.mean)
	}
}

func TestArtifactFeatureMismatch(t *testing.T) {
	a, err := Decode(strings.NewReader(treeJSON))
	require.NoError(t, err)
	a.FeatureNames = []string{"mean_score", "attempt_count", "min_score", "max_score", "pass_rate"}

	_, err = a.Predict(Features{MeanScore: 90})
	assert.ErrorIs(t, err, ErrFeatureMismatch)
}

func TestDecodeRejectsBrokenTrees(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{name: "garbage", body: `not json`},
		{name: "no nodes", body: `{"version":"x","feature_names":[],"classes":["alto"],"nodes":[]}`},
		{name: "unknown label", body: `{"version":"x","classes":["excelente"],"nodes":[{"feature":-1,"left":-1,"right":-1,"class":0}]}`},
		{name: "leaf out of range", body: `{"version":"x","classes":["alto"],"nodes":[{"feature":-1,"left":-1,"right":-1,"class":3}]}`},
		{name: "cycle", body: `{"version":"x","classes":["alto"],"nodes":[{"feature":0,"threshold":1,"left":0,"right":0,"class":-1}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tc.body))
			assert.ErrorIs(t, err, ErrInvalidArtifact)
		})
	}
}

func TestShippedArtifactLoads(t *testing.T) {
	a, err := LoadFile(filepath.Join("..", "..", "configs", "model", "tutor_model.json"))
	require.NoError(t, err)
	assert.Equal(t, FeatureNames, a.FeatureNames)
	assert.Equal(t, 60.0, a.PassingScore)
}

type failingSource struct{}

func (failingSource) Open(context.Context) (io.ReadCloser, error) {
	return nil, errors.New("bucket offline")
}
func (failingSource) String() string { return "failing" }

func TestRegistry(t *testing.T) {
	ctx := context.Background()

	r := NewRegistry(failingSource{})
	_, err := r.Predict(ctx, Features{})
	assert.ErrorIs(t, err, ErrModelUnavailable)
	assert.Error(t, r.Reload(ctx))
	assert.Nil(t, r.Current())

	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(treeJSON), 0o644))

	r = NewRegistry(&FileSource{Path: path})
	require.NoError(t, r.Reload(ctx))

	p, err := r.Predict(ctx, Features{AttemptCount: 2, MeanScore: 100, MinScore: 100, MaxScore: 100, PassRate: 1})
	require.NoError(t, err)
	assert.Equal(t, model.MasteryHigh, p.Level)
	assert.Equal(t, "test-1", p.Version)

	// 损坏的新文件不替换已加载的模型
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	assert.Error(t, r.Reload(ctx))
	assert.Equal(t, "test-1", r.Current().Version)
}

func TestRegistryWarnsOnPassingScoreMismatch(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	prev := logger.Log
	logger.Log = zap.New(core)
	t.Cleanup(func() { logger.Log = prev })

	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(treeJSON), 0o644))

	r := NewRegistry(&FileSource{Path: path})
	r.PassingScore = 60
	require.NoError(t, r.Reload(context.Background()))
	assert.Zero(t, logs.Len())

	r.PassingScore = 50
	require.NoError(t, r.Reload(context.Background()))
	entries := logs.FilterMessageSnippet("different passing score").All()
	require.Len(t, entries, 1)
	assert.Equal(t, float64(60), entries[0].ContextMap()["artifact"])
	assert.Equal(t, float64(50), entries[0].ContextMap()["engine"])
}

func TestNewSource(t *testing.T) {
	cfg := &config.Config{}
	cfg.Model.Source = util.StorageLocal
	cfg.Model.Path = "configs/model/tutor_model.json"

	src, err := NewSource(cfg)
	require.NoError(t, err)
	assert.Equal(t, &FileSource{Path: "configs/model/tutor_model.json"}, src)

	cfg.Model.Source = "ftp"
	_, err = NewSource(cfg)
	assert.Error(t, err)
}
