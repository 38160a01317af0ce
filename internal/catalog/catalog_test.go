package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogIDsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, c := range Companions() {
		require.NotEmpty(t, c.ID)
		assert.False(t, seen[c.ID], "duplicate companion id %q", c.ID)
		assert.Positive(t, c.Age)
		seen[c.ID] = true
	}

	seenLang := map[string]bool{}
	for _, l := range Languages() {
		require.NotEmpty(t, l.Value)
		assert.False(t, seenLang[l.Value], "duplicate language value %q", l.Value)
		assert.NotEmpty(t, l.AIName)
		seenLang[l.Value] = true
	}
}

func TestDefaultsAreFirstEntries(t *testing.T) {
	assert.Equal(t, Companions()[0].ID, DefaultCompanion().ID)
	assert.Equal(t, Languages()[0].Value, DefaultLanguage().Value)
}

func TestFind(t *testing.T) {
	c, ok := FindCompanion("luna")
	require.True(t, ok)
	assert.Equal(t, "Luna", c.Name)

	_, ok = FindCompanion("no-such-id")
	assert.False(t, ok)

	l, ok := FindLanguage("bn")
	require.True(t, ok)
	assert.Equal(t, "Bengali", l.AIName)

	_, ok = FindLanguage("xx")
	assert.False(t, ok)
}

func TestCatalogReturnsCopies(t *testing.T) {
	list := Companions()
	list[0].Hobbies[0] = "mutated"
	list[0].Name = "mutated"

	fresh := DefaultCompanion()
	assert.NotEqual(t, "mutated", fresh.Name)
	assert.NotEqual(t, "mutated", fresh.Hobbies[0])
}

func TestIsTrait(t *testing.T) {
	assert.True(t, IsTrait("caring"))
	assert.True(t, IsTrait("Playful"))
	assert.False(t, IsTrait("grumpy"))
}
