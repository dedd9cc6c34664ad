package i18n

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbedded(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"en", "ru"}, c.Languages())
	assert.Equal(t, "Готов", c.T("ru", "Ready"))
	assert.Equal(t, "Готов", c.T("ru-RU", "Ready"))
	assert.Equal(t, "Готов", c.T("ru_RU", "Ready"))
	assert.Equal(t, "Ready", c.T("en", "Ready"))
	assert.Equal(t, "Ready", c.T("de", "Ready"))
	assert.Equal(t, "no such key", c.T("ru", "no such key"))
}

func TestFunc(t *testing.T) {
	tr := Default().Func("RU")
	assert.Equal(t, "Проверка завершена", tr("Check complete"))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "ru", Normalize("ru-RU"))
	assert.Equal(t, "ru", Normalize("ru_RU"))
	assert.Equal(t, "en", Normalize(" EN "))
	assert.Equal(t, "", Normalize(""))
}

func TestMatch(t *testing.T) {
	c := Default()

	assert.Equal(t, "ru", c.Match("ru-RU,ru;q=0.9,en-US;q=0.8"))
	assert.Equal(t, "en", c.Match("de-DE,de;q=0.9"))
	assert.Equal(t, "en", c.Match("en-GB"))
	assert.Equal(t, "ru", c.Match("ru"))
	assert.Equal(t, "en", c.Match(""))
	assert.Equal(t, "en", c.Match(";;;"))
}

func TestDictionaryIsCopy(t *testing.T) {
	c := Default()

	d := c.Dictionary("ru")
	d["Ready"] = "changed"

	assert.Equal(t, "Готов", c.T("ru", "Ready"))
	assert.Empty(t, c.Dictionary("en"))
}

func TestPackageLevelT(t *testing.T) {
	t.Cleanup(func() { SetLanguage("en") })

	SetLanguage("ru-RU")
	assert.Equal(t, "ru", Language())
	assert.Equal(t, "Сеть", T("Network"))

	SetLanguage("fr")
	assert.Equal(t, "Network", T("Network"))
}

func TestDetectPage(t *testing.T) {
	tests := []struct {
		name string
		page string
		want string
	}{
		{"data-lang", `<html lang="en"><body data-lang="ru-RU"></body></html>`, "ru"},
		{"class", `<html><body class="theme lang_ru dark"></body></html>`, "ru"},
		{"html lang", `<html lang="uk"><body></body></html>`, "uk"},
		{"meta", `<html><head><meta name="language" content="de"></head><body></body></html>`, "de"},
		{"english", `<html lang="en"><body></body></html>`, ""},
		{"nothing", `<p>hi</p>`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectPage(strings.NewReader(tt.page)))
		})
	}
}
