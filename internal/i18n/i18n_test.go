package i18n

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLocale(t *testing.T, dir, filename, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644))
}

func TestNewTranslations(t *testing.T) {
	t.Run("embedded locales load without extra directories", func(t *testing.T) {
		trans, err := NewTranslations("es")
		require.NoError(t, err)
		assert.Equal(t, "Caché limpiada", trans.GetMessage("cache.cleaned", 0, nil))
	})

	t.Run("extra directories add messages", func(t *testing.T) {
		dir := t.TempDir()
		writeLocale(t, dir, "active.es.toml", `HelloWorld = "¡Hola Mundo!"`)

		trans, err := NewTranslations("es", dir)

		require.NoError(t, err)
		assert.Equal(t, "¡Hola Mundo!", trans.GetMessage("HelloWorld", 0, nil))
	})

	t.Run("empty language fails", func(t *testing.T) {
		trans, err := NewTranslations("")
		assert.Error(t, err)
		assert.Nil(t, trans)
	})

	t.Run("unknown language fails", func(t *testing.T) {
		_, err := NewTranslations("fr")
		assert.Error(t, err)
	})

	t.Run("invalid file in an extra directory fails", func(t *testing.T) {
		dir := t.TempDir()
		writeLocale(t, dir, "active.en.toml", `[broken`)

		_, err := NewTranslations("en", dir)
		assert.Error(t, err)
	})
}

func TestSetLanguage(t *testing.T) {
	trans, err := NewTranslations("en")
	require.NoError(t, err)

	require.NoError(t, trans.SetLanguage("es"))
	assert.Equal(t, "Caché limpiada", trans.GetMessage("cache.cleaned", 0, nil))

	assert.Error(t, trans.SetLanguage("de"))
	assert.Equal(t, "Caché limpiada", trans.GetMessage("cache.cleaned", 0, nil), "failed switch keeps the current language")
}

func TestGetMessage(t *testing.T) {
	trans, err := NewTranslations("en")
	require.NoError(t, err)

	t.Run("template data", func(t *testing.T) {
		got := trans.GetMessage("factory_already_registered", 0, map[string]interface{}{"FactoryName": "generate"})
		assert.Equal(t, "a command named 'generate' is already registered", got)
	})

	t.Run("plural forms", func(t *testing.T) {
		assert.Equal(t, "1 commit", trans.GetMessage("analyze.contributor_commits", 1, map[string]interface{}{"Count": 1}))
		assert.Equal(t, "3 commits", trans.GetMessage("analyze.contributor_commits", 3, map[string]interface{}{"Count": 3}))
	})

	t.Run("missing message", func(t *testing.T) {
		assert.Equal(t, "Translation missing: nope", trans.GetMessage("nope", 0, nil))
	})
}

func TestLocalesHaveTheSameKeys(t *testing.T) {
	en := localeKeys(t, "locales/active.en.toml")
	es := localeKeys(t, "locales/active.es.toml")
	assert.Equal(t, en, es)
}

func localeKeys(t *testing.T, path string) []string {
	t.Helper()
	var raw map[string]any
	_, err := toml.DecodeFile(path, &raw)
	require.NoError(t, err)

	var keys []string
	var walk func(prefix string, m map[string]any)
	walk = func(prefix string, m map[string]any) {
		if _, plural := m["other"]; plural {
			keys = append(keys, prefix)
			return
		}
		for k, v := range m {
			id := k
			if prefix != "" {
				id = prefix + "." + k
			}
			if child, ok := v.(map[string]any); ok {
				walk(id, child)
				continue
			}
			keys = append(keys, id)
		}
	}
	walk("", raw)
	sort.Strings(keys)
	return keys
}
