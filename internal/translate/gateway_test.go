package translate

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/chatrizz/backend/internal/logger"
	"github.com/chatrizz/backend/internal/metrics"
)

func TestMain(m *testing.M) {
	_ = logger.Initialize("error", "")
	metrics.Initialize()
	os.Exit(m.Run())
}

func TestGatewayIdentityLanguage(t *testing.T) {
	var calls int32
	provider := ProviderFunc(func(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "translated", nil
	})

	gw := NewGateway(provider, time.Second)

	// Same source and target language must short-circuit without a provider call
	out := gw.Translate(context.Background(), "hola", "es", "es")
	assert.Equal(t, "hola", out)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))

	// Case and whitespace in language tags should not defeat the check
	out = gw.Translate(context.Background(), "hola", " ES ", "es")
	assert.Equal(t, "hola", out)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestGatewayTranslates(t *testing.T) {
	provider := ProviderFunc(func(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
		assert.Equal(t, "hola", text)
		assert.Equal(t, "es", sourceLang)
		assert.Equal(t, "en", targetLang)
		return "hello", nil
	})

	gw := NewGateway(provider, time.Second)
	out := gw.Translate(context.Background(), "hola", "en", "es")
	assert.Equal(t, "hello", out)
}

func TestGatewayFallbackOnProviderError(t *testing.T) {
	provider := ProviderFunc(func(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
		return "", errors.New("provider down")
	})

	gw := NewGateway(provider, time.Second)
	out := gw.Translate(context.Background(), "hola", "en", "es")
	assert.Equal(t, "hola", out, "failed translation must return the original text")
}

func TestGatewayNilProvider(t *testing.T) {
	gw := NewGateway(nil, time.Second)
	out := gw.Translate(context.Background(), "bonjour", "en", "fr")
	assert.Equal(t, "bonjour", out)
}

func TestGatewayEmptyTargetLanguage(t *testing.T) {
	var calls int32
	provider := ProviderFunc(func(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "x", nil
	})

	gw := NewGateway(provider, time.Second)
	out := gw.Translate(context.Background(), "hola", "", "es")
	assert.Equal(t, "hola", out)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestGatewayTimeout(t *testing.T) {
	provider := ProviderFunc(func(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(5 * time.Second):
			return "too late", nil
		}
	})

	gw := NewGateway(provider, 50*time.Millisecond)

	start := time.Now()
	out := gw.Translate(context.Background(), "hola", "en", "es")
	assert.Equal(t, "hola", out)
	assert.Less(t, time.Since(start), 2*time.Second, "slow provider must be cut off by the gateway timeout")
}

func TestDetectLanguage(t *testing.T) {
	lang := DetectLanguage("The quick brown fox jumps over the lazy dog and keeps on running")
	assert.Equal(t, "en", lang)

	// Ambiguous short strings report unknown rather than guessing
	assert.Equal(t, "", DetectLanguage(""))
}
