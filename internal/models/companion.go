package models

// Companion is a read-only catalog entry describing one selectable persona.
// Persona is used verbatim in prompts.
type Companion struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Age         int      `json:"age"`
	Region      string   `json:"region"`
	Persona     string   `json:"persona"`
	Hobbies     []string `json:"hobbies"`
	Favorites   []string `json:"favorites"`
	AvatarImage string   `json:"avatarImage"`
}

// LanguageOption is a read-only catalog entry for a conversation language.
type LanguageOption struct {
	Value  string `json:"value"`
	Label  string `json:"label"`
	AIName string `json:"aiName"`
}

// ResolvedCompanion is a catalog companion with the profile's customization applied.
type ResolvedCompanion struct {
	Companion
	Customization CompanionCustomization `json:"customization"`
	// DisplayAvatar is the custom avatar when one is set, else the catalog avatar.
	DisplayAvatar string `json:"displayAvatar"`
}
