// Package settings owns the canonical chat configuration of a profile: loading it with
// defaults, resolving catalog references and merging per-companion customizations.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"companion-chat/backend/internal/catalog"
	"companion-chat/backend/internal/models"
	"companion-chat/backend/internal/storage"
	"companion-chat/backend/pkg/logger"
)

// Key is the storage key of the settings record inside every profile namespace.
const Key = "companionChatSettings"

var (
	// ErrStorageQuotaExceeded means the store refused the write for lack of space.
	// Nothing was saved and the previous record is intact.
	ErrStorageQuotaExceeded = errors.New("storage quota exceeded")
	// ErrSerialization means the record could not be encoded. Nothing was saved.
	ErrSerialization = errors.New("settings serialization failed")
	// ErrStorageUnavailable means the current record could not be read before an update.
	// Nothing was saved.
	ErrStorageUnavailable = errors.New("settings storage unavailable")
)

// Store loads and saves ChatSettings through a storage.KV.
type Store struct {
	kv  storage.KV
	log *logger.Logger
}

// NewStore creates a Store over kv.
func NewStore(kv storage.KV, log *logger.Logger) *Store {
	return &Store{kv: kv, log: log.WithComponent("settings")}
}

// Load returns the profile's settings. It never fails: absent, corrupt or unreadable
// records all come back as defaults.
func (s *Store) Load(ctx context.Context, profileID string) models.ChatSettings {
	raw, err := s.kv.Get(ctx, profileID, Key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logger.FromContext(ctx, s.log).Warn("Reading settings failed, using defaults",
				"profile_id", profileID,
				"error", err.Error(),
			)
		}
		return Defaults()
	}
	return Parse(raw)
}

// LoadForUpdate reads the record that an update will be merged into. Absent or corrupt
// records come back as defaults, but a failed read is returned so the caller does not
// overwrite a record it never saw.
func (s *Store) LoadForUpdate(ctx context.Context, profileID string) (models.ChatSettings, error) {
	raw, err := s.kv.Get(ctx, profileID, Key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return Defaults(), nil
	case err != nil:
		return models.ChatSettings{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return Parse(raw), nil
}

// Save persists the whole record in a single write. Missing customizations and nil trait
// lists are written as empty, the way Load returns them.
func (s *Store) Save(ctx context.Context, profileID string, settings models.ChatSettings) error {
	settings = settings.Clone()

	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSerialization, err)
	}

	if err := s.kv.Set(ctx, profileID, Key, raw); err != nil {
		if errors.Is(err, storage.ErrQuotaExceeded) {
			return fmt.Errorf("%w: %v", ErrStorageQuotaExceeded, err)
		}
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// Clear removes everything stored for the profile.
func (s *Store) Clear(ctx context.Context, profileID string) error {
	if err := s.kv.Clear(ctx, profileID); err != nil {
		return fmt.Errorf("clear profile: %w", err)
	}
	return nil
}

// ResolveCompanion returns the catalog entry for companionID, or for the selected
// companion when companionID is empty. Unknown ids resolve to the first catalog entry.
func ResolveCompanion(settings models.ChatSettings, companionID string) models.Companion {
	if companionID == "" {
		companionID = settings.SelectedCompanionID
	}
	if c, ok := catalog.FindCompanion(companionID); ok {
		return c
	}
	return catalog.DefaultCompanion()
}

// ResolveLanguage returns the selected language, falling back to the first catalog entry.
func ResolveLanguage(settings models.ChatSettings) models.LanguageOption {
	if l, ok := catalog.FindLanguage(settings.SelectedLanguage); ok {
		return l
	}
	return catalog.DefaultLanguage()
}

// ResolveCustomization returns the stored customization or the implicit default.
func ResolveCustomization(settings models.ChatSettings, companionID string) models.CompanionCustomization {
	if c, ok := settings.CompanionCustomizations[companionID]; ok {
		if c.SelectedTraits == nil {
			c.SelectedTraits = []string{}
		}
		return c.Clone()
	}
	return models.DefaultCustomization()
}

// MergeCustomization returns a copy of settings whose customization for companionID is
// the current value (or default) overridden by the non-nil fields of patch. Nothing else
// changes, and settings itself is not modified.
func MergeCustomization(settings models.ChatSettings, companionID string, patch models.CustomizationPatch) models.ChatSettings {
	out := settings.Clone()
	current := ResolveCustomization(settings, companionID)

	if patch.SelectedTraits != nil {
		current.SelectedTraits = append([]string{}, (*patch.SelectedTraits)...)
	}
	if patch.CustomAvatarURL != nil {
		avatar := *patch.CustomAvatarURL
		current.CustomAvatarURL = &avatar
	}
	if patch.AffectionLevel != nil {
		current.AffectionLevel = *patch.AffectionLevel
	}

	out.CompanionCustomizations[companionID] = current
	return out
}
