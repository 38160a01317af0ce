// Package catalog holds the fixed companion, language and trait catalogs.
// The data is seed data compiled into the binary; nothing here is mutable at runtime.
package catalog

import (
	"strings"

	"companion-chat/backend/internal/models"
)

var companions = []models.Companion{
	{
		ID:          "luna",
		Name:        "Luna",
		Age:         24,
		Region:      "Kolkata",
		Persona:     "A warm, playful artist who loves late-night conversations, teases gently, and always remembers the little things you tell her.",
		Hobbies:     []string{"painting", "stargazing", "writing poetry"},
		Favorites:   []string{"rosogolla", "Rabindra Sangeet", "monsoon evenings"},
		AvatarImage: "https://placehold.co/400x400.png?text=Luna",
	},
	{
		ID:          "aria",
		Name:        "Aria",
		Age:         26,
		Region:      "Mumbai",
		Persona:     "A confident, witty software engineer with a big heart, who loves debating movies and cheering you on when work gets hard.",
		Hobbies:     []string{"coding", "cinema", "running by the sea"},
		Favorites:   []string{"vada pav", "thriller films", "sunset at Marine Drive"},
		AvatarImage: "https://placehold.co/400x400.png?text=Aria",
	},
	{
		ID:          "kavya",
		Name:        "Kavya",
		Age:         23,
		Region:      "Chennai",
		Persona:     "A gentle, thoughtful classical dancer who speaks softly, loves old songs, and is a wonderful listener.",
		Hobbies:     []string{"Bharatanatyam", "cooking", "reading novels"},
		Favorites:   []string{"filter coffee", "Ilaiyaraaja songs", "jasmine flowers"},
		AvatarImage: "https://placehold.co/400x400.png?text=Kavya",
	},
	{
		ID:          "meera",
		Name:        "Meera",
		Age:         25,
		Region:      "Jaipur",
		Persona:     "A cheerful, adventurous travel blogger full of stories, who is curious about your day and loves making plans together.",
		Hobbies:     []string{"travelling", "photography", "folk music"},
		Favorites:   []string{"dal baati", "desert nights", "old forts"},
		AvatarImage: "https://placehold.co/400x400.png?text=Meera",
	},
}

var languages = []models.LanguageOption{
	{Value: "en", Label: "English", AIName: "English"},
	{Value: "bn", Label: "বাংলা (Bengali)", AIName: "Bengali"},
	{Value: "hi", Label: "हिन्दी (Hindi)", AIName: "Hindi"},
	{Value: "ta", Label: "தமிழ் (Tamil)", AIName: "Tamil"},
	{Value: "es", Label: "Español (Spanish)", AIName: "Spanish"},
}

var traits = []string{
	"caring", "playful", "romantic", "shy", "witty",
	"adventurous", "intellectual", "supportive", "flirty", "calm",
}

// Companions returns the companion catalog in display order.
func Companions() []models.Companion {
	out := make([]models.Companion, len(companions))
	for i, c := range companions {
		out[i] = cloneCompanion(c)
	}
	return out
}

// Languages returns the language catalog in display order.
func Languages() []models.LanguageOption {
	return append([]models.LanguageOption(nil), languages...)
}

// Traits returns the vocabulary a customization may select from.
func Traits() []string {
	return append([]string(nil), traits...)
}

// DefaultCompanion is the first catalog companion.
func DefaultCompanion() models.Companion {
	return cloneCompanion(companions[0])
}

// DefaultLanguage is the first catalog language.
func DefaultLanguage() models.LanguageOption {
	return languages[0]
}

// FindCompanion looks a companion up by id.
func FindCompanion(id string) (models.Companion, bool) {
	for _, c := range companions {
		if c.ID == id {
			return cloneCompanion(c), true
		}
	}
	return models.Companion{}, false
}

// FindLanguage looks a language up by its short code.
func FindLanguage(value string) (models.LanguageOption, bool) {
	for _, l := range languages {
		if l.Value == value {
			return l, true
		}
	}
	return models.LanguageOption{}, false
}

// IsTrait reports whether t belongs to the trait vocabulary. Matching ignores case.
func IsTrait(t string) bool {
	for _, known := range traits {
		if strings.EqualFold(known, t) {
			return true
		}
	}
	return false
}

func cloneCompanion(c models.Companion) models.Companion {
	c.Hobbies = append([]string(nil), c.Hobbies...)
	c.Favorites = append([]string(nil), c.Favorites...)
	return c
}
