package settings

import (
	"encoding/json"
	"strings"

	"companion-chat/backend/internal/catalog"
	"companion-chat/backend/internal/models"
)

// Defaults returns the settings of a profile that has never saved anything.
func Defaults() models.ChatSettings {
	return models.ChatSettings{
		UserName:                models.DefaultUserName,
		SelectedCompanionID:     catalog.DefaultCompanion().ID,
		SelectedLanguage:        catalog.DefaultLanguage().Value,
		CompanionCustomizations: map[string]models.CompanionCustomization{},
	}
}

// rawSettings mirrors the persisted shape with every field optional, so missing and
// wrongly typed fields can be told apart from zero values.
type rawSettings struct {
	UserName                *string                     `json:"userName"`
	SelectedCompanionID     *string                     `json:"selectedCompanionId"`
	SelectedLanguage        *string                     `json:"selectedLanguage"`
	CompanionCustomizations map[string]*json.RawMessage `json:"companionCustomizations"`
}

type rawCustomization struct {
	SelectedTraits  []string `json:"selectedTraits"`
	CustomAvatarURL *string  `json:"customAvatarUrl"`
	AffectionLevel  *int     `json:"affectionLevel"`
}

// Parse turns a persisted blob into fully populated settings. It is the single place
// that tolerates corrupt data: anything it cannot use is replaced by the default for
// that field, and a blob that is not a JSON object yields Defaults().
func Parse(raw []byte) models.ChatSettings {
	out := Defaults()
	if len(raw) == 0 {
		return out
	}

	var in rawSettings
	if err := json.Unmarshal(raw, &in); err != nil {
		return out
	}

	if in.UserName != nil && strings.TrimSpace(*in.UserName) != "" {
		out.UserName = strings.TrimSpace(*in.UserName)
	}
	if in.SelectedCompanionID != nil {
		if _, ok := catalog.FindCompanion(*in.SelectedCompanionID); ok {
			out.SelectedCompanionID = *in.SelectedCompanionID
		}
	}
	if in.SelectedLanguage != nil {
		if _, ok := catalog.FindLanguage(*in.SelectedLanguage); ok {
			out.SelectedLanguage = *in.SelectedLanguage
		}
	}

	for id, msg := range in.CompanionCustomizations {
		if strings.TrimSpace(id) == "" || msg == nil {
			continue
		}
		var rc rawCustomization
		if err := json.Unmarshal(*msg, &rc); err != nil {
			continue
		}
		out.CompanionCustomizations[id] = repairCustomization(rc)
	}

	return out
}

func repairCustomization(rc rawCustomization) models.CompanionCustomization {
	c := models.DefaultCustomization()
	for _, t := range rc.SelectedTraits {
		if t = strings.TrimSpace(t); t != "" {
			c.SelectedTraits = append(c.SelectedTraits, t)
		}
	}
	if rc.CustomAvatarURL != nil && *rc.CustomAvatarURL != "" {
		avatar := *rc.CustomAvatarURL
		c.CustomAvatarURL = &avatar
	}
	if rc.AffectionLevel != nil {
		c.AffectionLevel = ClampAffection(*rc.AffectionLevel)
	}
	return c
}

// ClampAffection bounds an affection level to 0..100.
func ClampAffection(level int) int {
	switch {
	case level < 0:
		return 0
	case level > 100:
		return 100
	default:
		return level
	}
}
