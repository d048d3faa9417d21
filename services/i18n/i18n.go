package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"e_mairie_go/logger"
)

//go:embed *.json
var fs embed.FS

// DefaultLang is the portal language when nothing else is requested
const DefaultLang = "fr"

// translations stores flattened keys: "fr" -> "nav.home" -> "Accueil"
var (
	translations = make(map[string]map[string]string)
	mutex        sync.RWMutex
)

// Load reads every embedded locale file
func Load() error {
	mutex.Lock()
	defer mutex.Unlock()

	entries, err := fs.ReadDir(".")
	if err != nil {
		return fmt.Errorf("failed to read embedded locales: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		lang := strings.TrimSuffix(entry.Name(), ".json")
		content, err := fs.ReadFile(entry.Name())
		if err != nil {
			return fmt.Errorf("failed to read locale file %s: %w", entry.Name(), err)
		}

		var result map[string]interface{}
		if err := json.Unmarshal(content, &result); err != nil {
			return fmt.Errorf("failed to unmarshal locale %s: %w", entry.Name(), err)
		}

		flat := make(map[string]string)
		flatten("", result, flat)
		translations[lang] = flat
		logger.L().Debug("Loaded locale", "lang", lang, "keys", len(flat))
	}

	return nil
}

// IsSupported reports whether a locale file exists for lang
func IsSupported(lang string) bool {
	mutex.RLock()
	defer mutex.RUnlock()
	_, ok := translations[lang]
	return ok
}

// flatten recursively flattens a nested map into dot-notation keys.
func flatten(prefix string, nested map[string]interface{}, result map[string]string) {
	for k, v := range nested {
		newKey := k
		if prefix != "" {
			newKey = prefix + "." + k
		}

		switch child := v.(type) {
		case map[string]interface{}:
			flatten(newKey, child, result)
		case string:
			result[newKey] = child
		default:
			result[newKey] = fmt.Sprintf("%v", child)
		}
	}
}

// T translates key into the language stored in ctx
func T(ctx context.Context, key string, args ...map[string]interface{}) string {
	return Translate(GetLocale(ctx), key, args...)
}

// Translate looks key up in lang, then in the default language, then returns the key itself.
// {name} placeholders are replaced from args.
func Translate(lang, key string, args ...map[string]interface{}) string {
	mutex.RLock()
	defer mutex.RUnlock()

	if trans, ok := translations[lang]; ok {
		if val, ok := trans[key]; ok {
			return format(val, args...)
		}
	}
	if lang != DefaultLang {
		if val, ok := translations[DefaultLang][key]; ok {
			return format(val, args...)
		}
	}
	return key
}

func format(text string, args ...map[string]interface{}) string {
	if len(args) == 0 {
		return text
	}
	for k, v := range args[0] {
		text = strings.ReplaceAll(text, "{"+k+"}", fmt.Sprintf("%v", v))
	}
	return text
}

type contextKey string

// LocaleContextKey stores the request language in a context.Context
const LocaleContextKey contextKey = "locale"

// WithLocale returns a copy of ctx carrying lang
func WithLocale(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, LocaleContextKey, lang)
}

// GetLocale extracts the locale set by the locale middleware, defaulting to French
func GetLocale(ctx context.Context) string {
	if ctx == nil {
		return DefaultLang
	}
	if val, ok := ctx.Value(LocaleContextKey).(string); ok && val != "" {
		return val
	}
	return DefaultLang
}
