package i18n

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatten(t *testing.T) {
	nested := map[string]interface{}{
		"nav": map[string]interface{}{
			"home": "Accueil",
			"services": map[string]interface{}{
				"title": "Services",
			},
		},
		"count": 4,
	}

	flat := make(map[string]string)
	flatten("", nested, flat)

	assert.Equal(t, "Accueil", flat["nav.home"])
	assert.Equal(t, "Services", flat["nav.services.title"])
	assert.Equal(t, "4", flat["count"])
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "Bonjour", format("Bonjour"))
	assert.Equal(t, "Bonjour Awa", format("Bonjour {name}", map[string]interface{}{"name": "Awa"}))
	assert.Equal(t, "NAIS-2025-00001 : 3", format("{ref} : {n}", map[string]interface{}{"ref": "NAIS-2025-00001", "n": 3}))
}

func TestTranslate(t *testing.T) {
	require.NoError(t, Load())

	t.Run("Default language", func(t *testing.T) {
		assert.Equal(t, "Accueil", Translate("fr", "nav.home"))
	})

	t.Run("English", func(t *testing.T) {
		assert.Equal(t, "Home", Translate("en", "nav.home"))
	})

	t.Run("Unknown language falls back to French", func(t *testing.T) {
		assert.Equal(t, "Accueil", Translate("de", "nav.home"))
	})

	t.Run("Missing key returns the key", func(t *testing.T) {
		assert.Equal(t, "no.such.key", Translate("fr", "no.such.key"))
	})

	t.Run("Supported languages", func(t *testing.T) {
		assert.True(t, IsSupported("fr"))
		assert.True(t, IsSupported("en"))
		assert.False(t, IsSupported("de"))
	})
}

func TestGetLocale(t *testing.T) {
	assert.Equal(t, DefaultLang, GetLocale(context.Background()))
	assert.Equal(t, "en", GetLocale(WithLocale(context.Background(), "en")))
	assert.Equal(t, "Home", T(WithLocale(context.Background(), "en"), "nav.home"))
}
