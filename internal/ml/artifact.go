package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"adaptive_tutor/internal/model"
)

var (
	ErrModelUnavailable = errors.New("classifier model not loaded")
	ErrFeatureMismatch  = errors.New("artifact feature names do not match the engine features")
	ErrInvalidArtifact  = errors.New("invalid classifier artifact")
)

// FeatureNames 引擎特征顺序，与训练时保持一致
var FeatureNames = []string{"attempt_count", "mean_score", "min_score", "max_score", "pass_rate"}

// Features 单个 (student, competency) 的聚合特征
type Features struct {
	AttemptCount float64 `json:"attempt_count"`
	MeanScore    float64 `json:"mean_score"`
	MinScore     float64 `json:"min_score"`
	MaxScore     float64 `json:"max_score"`
	PassRate     float64 `json:"pass_rate"`
}

func (f Features) Vector() []float64 {
	return []float64{f.AttemptCount, f.MeanScore, f.MinScore, f.MaxScore, f.PassRate}
}

// Node is one decision-tree node. Leaves have Feature < 0 and carry Class.
// Internal nodes route x[Feature] <= Threshold to Left, otherwise Right.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Class     int     `json:"class"`
}

// Artifact 训练流水线导出的版本化模型包
type Artifact struct {
	Version      string   `json:"version"`
	FeatureNames []string `json:"feature_names"`
	PassingScore float64  `json:"passing_score"`
	Classes      []string `json:"classes"`
	Nodes        []Node   `json:"nodes"`
}

func Decode(r io.Reader) (*Artifact, error) {
	var a Artifact
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

func LoadFile(path string) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Validate checks the tree structure and the label encoder. Feature names are
// checked at prediction time so a mismatched artifact degrades to the fallback.
func (a *Artifact) Validate() error {
	if len(a.Nodes) == 0 {
		return fmt.Errorf("%w: empty tree", ErrInvalidArtifact)
	}
	if len(a.Classes) == 0 {
		return fmt.Errorf("%w: no classes", ErrInvalidArtifact)
	}
	for i, c := range a.Classes {
		if _, ok := model.ParseMasteryLevel(c); !ok {
			return fmt.Errorf("%w: class %d has unknown label %q", ErrInvalidArtifact, i, c)
		}
	}
	for i, n := range a.Nodes {
		if n.Feature < 0 {
			if n.Class < 0 || n.Class >= len(a.Classes) {
				return fmt.Errorf("%w: leaf %d class %d out of range", ErrInvalidArtifact, i, n.Class)
			}
			continue
		}
		if n.Left <= i || n.Right <= i || n.Left >= len(a.Nodes) || n.Right >= len(a.Nodes) {
			return fmt.Errorf("%w: node %d has invalid children", ErrInvalidArtifact, i)
		}
	}
	return nil
}

func (a *Artifact) featuresMatch() bool {
	if len(a.FeatureNames) != len(FeatureNames) {
		return false
	}
	for i, name := range FeatureNames {
		if a.FeatureNames[i] != name {
			return false
		}
	}
	return true
}

// Predict walks the tree and decodes the leaf label.
func (a *Artifact) Predict(f Features) (model.MasteryLevel, error) {
	if !a.featuresMatch() {
		return model.MasteryUnknown, fmt.Errorf("%w: got %v", ErrFeatureMismatch, a.FeatureNames)
	}
	x := f.Vector()

	i := 0
	// 子节点下标严格递增，步数不会超过节点数
	for steps := 0; steps <= len(a.Nodes); steps++ {
		n := a.Nodes[i]
		if n.Feature < 0 {
			level, ok := model.ParseMasteryLevel(a.Classes[n.Class])
			if !ok {
				return model.MasteryUnknown, fmt.Errorf("%w: unknown label %q", ErrInvalidArtifact, a.Classes[n.Class])
			}
			return level, nil
		}
		if n.Feature >= len(x) {
			return model.MasteryUnknown, fmt.Errorf("%w: feature index %d", ErrFeatureMismatch, n.Feature)
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return model.MasteryUnknown, fmt.Errorf("%w: tree walk did not terminate", ErrInvalidArtifact)
}
