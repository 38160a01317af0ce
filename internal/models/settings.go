package models

// DefaultAffectionLevel is the affection a companion starts with before any customization.
const DefaultAffectionLevel = 20

// DefaultUserName is used until the user enters a name.
const DefaultUserName = "User"

// CompanionCustomization holds one profile's mutable preferences for one companion.
type CompanionCustomization struct {
	SelectedTraits  []string `json:"selectedTraits"`
	CustomAvatarURL *string  `json:"customAvatarUrl,omitempty"`
	AffectionLevel  int      `json:"affectionLevel"`
}

// DefaultCustomization is the implicit value for companions never customized.
func DefaultCustomization() CompanionCustomization {
	return CompanionCustomization{
		SelectedTraits: []string{},
		AffectionLevel: DefaultAffectionLevel,
	}
}

// Clone returns a deep copy.
func (c CompanionCustomization) Clone() CompanionCustomization {
	out := CompanionCustomization{AffectionLevel: c.AffectionLevel}
	out.SelectedTraits = append([]string{}, c.SelectedTraits...)
	if c.CustomAvatarURL != nil {
		avatar := *c.CustomAvatarURL
		out.CustomAvatarURL = &avatar
	}
	return out
}

// CustomizationPatch is a partial CompanionCustomization. Nil fields are left untouched
// by a merge.
type CustomizationPatch struct {
	SelectedTraits  *[]string `json:"selectedTraits,omitempty"`
	CustomAvatarURL *string   `json:"customAvatarUrl,omitempty"`
	AffectionLevel  *int      `json:"affectionLevel,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p CustomizationPatch) IsEmpty() bool {
	return p.SelectedTraits == nil && p.CustomAvatarURL == nil && p.AffectionLevel == nil
}

// ChatSettings is the root persisted record, one per profile.
type ChatSettings struct {
	UserName                string                            `json:"userName"`
	SelectedCompanionID     string                            `json:"selectedCompanionId"`
	SelectedLanguage        string                            `json:"selectedLanguage"`
	CompanionCustomizations map[string]CompanionCustomization `json:"companionCustomizations"`
}

// Clone returns a deep copy so callers can derive new values without aliasing maps.
func (s ChatSettings) Clone() ChatSettings {
	out := s
	out.CompanionCustomizations = make(map[string]CompanionCustomization, len(s.CompanionCustomizations))
	for id, c := range s.CompanionCustomizations {
		out.CompanionCustomizations[id] = c.Clone()
	}
	return out
}

// SettingsUpdate carries the top-level fields a client may change in one request.
type SettingsUpdate struct {
	UserName            *string `json:"userName,omitempty"`
	SelectedCompanionID *string `json:"selectedCompanionId,omitempty"`
	SelectedLanguage    *string `json:"selectedLanguage,omitempty"`
}
