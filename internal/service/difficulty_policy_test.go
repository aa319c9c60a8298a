package service

import (
	"testing"

	"adaptive_tutor/internal/config"
	"adaptive_tutor/internal/i18n"
	"adaptive_tutor/internal/model"

	"github.com/stretchr/testify/assert"
)

func seconds(v float64) *float64 { return &v }

func TestDifficultyPolicyReinforcement(t *testing.T) {
	p := NewDifficultyPolicy(config.DefaultTutorConfig())
	wrong := Outcome{Correct: false, ElapsedSeconds: seconds(10)}

	for prior := int64(0); prior < 2; prior++ {
		d := p.Decide(wrong, prior, model.MasteryHigh)
		assert.Equal(t, model.SteerSame, d.Steering, "prior %d", prior)
		assert.True(t, d.ShowHint)
		assert.True(t, d.Reinforcement)
		assert.Equal(t, i18n.MsgPolicyRetry, d.MessageID)
	}

	// 第三次错误转入掌握度分支
	d := p.Decide(wrong, 2, model.MasteryLow)
	assert.False(t, d.Reinforcement)
	assert.Equal(t, model.SteerEasier, d.Steering)
	assert.True(t, d.ShowHint)

	d = p.Decide(wrong, 2, model.MasteryUnknown)
	assert.False(t, d.Reinforcement)
	assert.Equal(t, model.SteerSame, d.Steering)
	assert.Equal(t, i18n.MsgPolicySameWithHint, d.MessageID)
}

func TestDifficultyPolicyByMastery(t *testing.T) {
	p := NewDifficultyPolicy(config.DefaultTutorConfig())

	tests := []struct {
		name     string
		outcome  Outcome
		level    model.MasteryLevel
		steering model.Steering
		hint     bool
	}{
		{"high correct", Outcome{Correct: true}, model.MasteryHigh, model.SteerHarder, false},
		{"high correct with hint", Outcome{Correct: true, UsedHint: true}, model.MasteryHigh, model.SteerHarder, false},
		{"medium correct", Outcome{Correct: true}, model.MasteryMedium, model.SteerSame, false},
		{"medium correct with hint", Outcome{Correct: true, UsedHint: true}, model.MasteryMedium, model.SteerSame, true},
		{"low correct", Outcome{Correct: true}, model.MasteryLow, model.SteerEasier, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := p.Decide(tt.outcome, 0, tt.level)
			assert.Equal(t, tt.steering, d.Steering)
			assert.Equal(t, tt.hint, d.ShowHint)
		})
	}

	// 已用完重试次数的错误作答，中等掌握度显示提示
	d := p.Decide(Outcome{Correct: false}, 5, model.MasteryMedium)
	assert.Equal(t, model.SteerSame, d.Steering)
	assert.True(t, d.ShowHint)
}

func TestDifficultyPolicyFallback(t *testing.T) {
	p := NewDifficultyPolicy(config.DefaultTutorConfig())

	tests := []struct {
		name     string
		outcome  Outcome
		steering model.Steering
		hint     bool
		msg      string
	}{
		{"correct fast", Outcome{Correct: true, ElapsedSeconds: seconds(45)}, model.SteerHarder, false, i18n.MsgPolicyFastCorrect},
		{"correct no timing", Outcome{Correct: true}, model.SteerHarder, false, i18n.MsgPolicyFastCorrect},
		{"correct mid", Outcome{Correct: true, ElapsedSeconds: seconds(60)}, model.SteerHarder, false, i18n.MsgPolicyGoodCorrect},
		{"correct slow", Outcome{Correct: true, ElapsedSeconds: seconds(91)}, model.SteerSame, false, i18n.MsgPolicySteadyCorrect},
		{"correct hint", Outcome{Correct: true, UsedHint: true, ElapsedSeconds: seconds(5)}, model.SteerSame, false, i18n.MsgPolicySteadyCorrect},
		{"incorrect fast", Outcome{ElapsedSeconds: seconds(5)}, model.SteerSame, true, i18n.MsgPolicySameWithHint},
		{"incorrect slow", Outcome{ElapsedSeconds: seconds(120)}, model.SteerEasier, true, i18n.MsgPolicyEasierIncorrect},
		{"incorrect hint", Outcome{UsedHint: true, ElapsedSeconds: seconds(5)}, model.SteerEasier, true, i18n.MsgPolicyEasierIncorrect},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := p.Decide(tt.outcome, 2, model.MasteryUnknown)
			assert.Equal(t, tt.steering, d.Steering)
			assert.Equal(t, tt.hint, d.ShowHint)
			assert.Equal(t, tt.msg, d.MessageID)
		})
	}
}
