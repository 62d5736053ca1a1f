package translate

import (
	"context"
	"strings"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/chatrizz/backend/internal/logger"
	"github.com/chatrizz/backend/internal/metrics"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a single provider call when the gateway is
// constructed without an explicit timeout.
const DefaultTimeout = 5 * time.Second

// Gateway wraps a Provider with identity short-circuiting, source-language
// detection and original-text fallback. Translate never returns an error;
// callers always get usable text.
type Gateway struct {
	provider Provider
	timeout  time.Duration
}

// NewGateway creates a translation gateway. provider may be nil, in which
// case every call falls back to the original text.
func NewGateway(provider Provider, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Gateway{provider: provider, timeout: timeout}
}

// DetectLanguage returns the ISO 639-1 code for text, or "" when
// detection is unreliable.
func DetectLanguage(text string) string {
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return ""
	}
	return info.Lang.Iso6391()
}

// Translate returns text translated into targetLang. sourceLang may be
// empty; the gateway then detects it. On identical languages no provider
// call is made. On any provider failure the original text is returned and
// the failure is logged, never raised.
func (g *Gateway) Translate(ctx context.Context, text, targetLang, sourceLang string) string {
	targetLang = strings.ToLower(strings.TrimSpace(targetLang))
	sourceLang = strings.ToLower(strings.TrimSpace(sourceLang))

	if text == "" || targetLang == "" {
		return text
	}

	if sourceLang == "" {
		sourceLang = DetectLanguage(text)
	}

	if sourceLang == targetLang {
		metrics.Get().TranslationSkips.Inc()
		return text
	}

	if g.provider == nil {
		return text
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	translated, err := g.provider.Translate(callCtx, text, sourceLang, targetLang)
	if err != nil {
		metrics.Get().TranslationFailures.Inc()
		metrics.Get().TranslationsTotal.WithLabelValues("fallback").Inc()
		logger.Log.Warn("Translation failed, returning original text",
			zap.String("source_lang", sourceLang),
			zap.String("target_lang", targetLang),
			zap.Error(err))
		return text
	}

	metrics.Get().TranslationsTotal.WithLabelValues("ok").Inc()
	return translated
}
