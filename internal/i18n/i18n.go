package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"adaptive_tutor/internal/util"
	"adaptive_tutor/pkg/logger"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// 消息 ID
const (
	MsgPolicyRetry           = "PolicyRetry"
	MsgPolicyHighMastery     = "PolicyHighMastery"
	MsgPolicyMediumMastery   = "PolicyMediumMastery"
	MsgPolicyLowMastery      = "PolicyLowMastery"
	MsgPolicyFastCorrect     = "PolicyFastCorrect"
	MsgPolicySteadyCorrect   = "PolicySteadyCorrect"
	MsgPolicyGoodCorrect     = "PolicyGoodCorrect"
	MsgPolicyEasierIncorrect = "PolicyEasierIncorrect"
	MsgPolicySameWithHint    = "PolicySameWithHint"
	MsgSelectorExhausted     = "SelectorExhausted"
	MsgSuggestionsEmpty      = "SuggestionsEmpty"
	MsgSummaryExcellent      = "SummaryExcellent"
	MsgSummaryGood           = "SummaryGood"
	MsgSummaryReinforce      = "SummaryReinforce"
)

//go:embed locales/*.json
var localeFS embed.FS

type ctxKey struct{}

var (
	mu          sync.RWMutex
	bundle      *i18n.Bundle
	defaultLang = util.DefaultLanguage
)

// Init loads the embedded locale files with lang as the default language.
func Init(lang string) error {
	tag, err := language.Parse(lang)
	if err != nil {
		return fmt.Errorf("parse language %q: %w", lang, err)
	}

	b := i18n.NewBundle(tag)
	b.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return fmt.Errorf("read locales dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := localeFS.ReadFile("locales/" + e.Name())
		if err != nil {
			return fmt.Errorf("read locale file %s: %w", e.Name(), err)
		}
		if _, err := b.ParseMessageFileBytes(data, e.Name()); err != nil {
			return fmt.Errorf("parse locale file %s: %w", e.Name(), err)
		}
	}

	mu.Lock()
	bundle = b
	defaultLang = lang
	mu.Unlock()
	return nil
}

func currentBundle() *i18n.Bundle {
	mu.RLock()
	b := bundle
	mu.RUnlock()
	if b != nil {
		return b
	}
	// 未显式初始化时使用默认语言
	if err := Init(defaultLang); err != nil {
		logger.Log.Error("Failed to init i18n bundle", zap.Error(err))
		return i18n.NewBundle(language.Spanish)
	}
	mu.RLock()
	defer mu.RUnlock()
	return bundle
}

// NewLocalizer accepts language tags or raw Accept-Language values, in order of preference.
func NewLocalizer(langs ...string) *i18n.Localizer {
	return i18n.NewLocalizer(currentBundle(), langs...)
}

func WithLocalizer(ctx context.Context, loc *i18n.Localizer) context.Context {
	return context.WithValue(ctx, ctxKey{}, loc)
}

func localizerFromCtx(ctx context.Context) *i18n.Localizer {
	if loc, ok := ctx.Value(ctxKey{}).(*i18n.Localizer); ok {
		return loc
	}
	return NewLocalizer()
}

// T translates a message by ID, returning the ID when no translation exists.
func T(ctx context.Context, msgID string) string {
	s, err := localizerFromCtx(ctx).Localize(&i18n.LocalizeConfig{MessageID: msgID})
	if err != nil {
		logger.Log.Warn("Missing translation", zap.String("id", msgID), zap.Error(err))
		return msgID
	}
	return s
}
