package service

import (
	"adaptive_tutor/internal/config"
	"adaptive_tutor/internal/i18n"
	"adaptive_tutor/internal/model"
)

// Outcome 本次作答的结果
type Outcome struct {
	Correct        bool
	UsedHint       bool
	ElapsedSeconds *float64
}

// Decision 难度策略输出，MessageID 由调用方本地化
type Decision struct {
	Steering      model.Steering
	ShowHint      bool
	MessageID     string
	Reinforcement bool
}

// DifficultyPolicy decides the next steering signal. It is pure: everything it
// needs arrives as arguments.
type DifficultyPolicy struct {
	MaxReinforcements int64
	FastSeconds       float64
	SlowSeconds       float64
}

func NewDifficultyPolicy(cfg config.TutorConfig) DifficultyPolicy {
	return DifficultyPolicy{
		MaxReinforcements: int64(cfg.MaxReinforcements),
		FastSeconds:       cfg.FastSeconds,
		SlowSeconds:       cfg.SlowSeconds,
	}
}

// Decide maps an outcome, the number of incorrect attempts on the same exercise
// before this one, and the current mastery estimate to a Decision.
func (p DifficultyPolicy) Decide(o Outcome, priorIncorrect int64, level model.MasteryLevel) Decision {
	if !o.Correct && priorIncorrect < p.MaxReinforcements {
		return Decision{
			Steering:      model.SteerSame,
			ShowHint:      true,
			MessageID:     i18n.MsgPolicyRetry,
			Reinforcement: true,
		}
	}

	switch level {
	case model.MasteryHigh:
		return Decision{Steering: model.SteerHarder, MessageID: i18n.MsgPolicyHighMastery}
	case model.MasteryMedium:
		return Decision{
			Steering:  model.SteerSame,
			ShowHint:  !o.Correct || o.UsedHint,
			MessageID: i18n.MsgPolicyMediumMastery,
		}
	case model.MasteryLow:
		return Decision{Steering: model.SteerEasier, ShowHint: true, MessageID: i18n.MsgPolicyLowMastery}
	}
	return p.fromAttempt(o)
}

// fromAttempt 无掌握度时只看本次作答的时间和提示
func (p DifficultyPolicy) fromAttempt(o Outcome) Decision {
	elapsed := 0.0
	if o.ElapsedSeconds != nil {
		elapsed = *o.ElapsedSeconds
	}
	slow := elapsed > p.SlowSeconds

	if o.Correct {
		switch {
		case !o.UsedHint && elapsed <= p.FastSeconds:
			return Decision{Steering: model.SteerHarder, MessageID: i18n.MsgPolicyFastCorrect}
		case o.UsedHint || slow:
			return Decision{Steering: model.SteerSame, MessageID: i18n.MsgPolicySteadyCorrect}
		default:
			return Decision{Steering: model.SteerHarder, MessageID: i18n.MsgPolicyGoodCorrect}
		}
	}

	if o.UsedHint || slow {
		return Decision{Steering: model.SteerEasier, ShowHint: true, MessageID: i18n.MsgPolicyEasierIncorrect}
	}
	return Decision{Steering: model.SteerSame, ShowHint: true, MessageID: i18n.MsgPolicySameWithHint}
}
