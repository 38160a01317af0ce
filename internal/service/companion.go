// Package service resolves a profile's settings into the plain inputs of the
// generation flows and applies validated settings changes.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"companion-chat/backend/internal/ai"
	"companion-chat/backend/internal/catalog"
	"companion-chat/backend/internal/models"
	"companion-chat/backend/internal/settings"
	"companion-chat/backend/pkg/logger"
	"companion-chat/backend/pkg/observability"
)

// MaxUserNameLength bounds userName in runes.
const MaxUserNameLength = 50

var (
	// ErrValidation is returned for requests rejected before anything is read or written.
	ErrValidation = errors.New("validation failed")
	// ErrCompanionNotFound is returned when an explicit companion id is not in the catalog.
	ErrCompanionNotFound = errors.New("companion not found")
)

// Flows is the subset of the AI flows the service drives.
type Flows interface {
	Dialogue(ctx context.Context, in ai.DialogueInput) (ai.DialogueOutput, error)
	Compliment(ctx context.Context, in ai.ComplimentInput) (ai.ComplimentOutput, error)
	Image(ctx context.Context, in ai.ImageInput) (ai.ImageOutput, error)
}

// CompanionService ties settings to the generation flows.
type CompanionService struct {
	store *settings.Store
	flows Flows
	log   *logger.Logger
}

// NewCompanionService creates the service.
func NewCompanionService(store *settings.Store, flows Flows, log *logger.Logger) *CompanionService {
	return &CompanionService{store: store, flows: flows, log: log.WithComponent("companion")}
}

// Chat sends a message to the requested companion, or the selected one when
// companionID is empty, in the profile's language.
func (s *CompanionService) Chat(ctx context.Context, profileID, userID string, req models.DialogueRequest) (models.DialogueResponse, error) {
	current := s.store.Load(ctx, profileID)
	companion := settings.ResolveCompanion(current, req.CompanionID)
	language := settings.ResolveLanguage(current)

	out, err := s.flows.Dialogue(ctx, ai.DialogueInput{
		UserID:           userID,
		Message:          req.Message,
		UserName:         current.UserName,
		CompanionID:      companion.ID,
		CompanionName:    companion.Name,
		CompanionPersona: companion.Persona,
		Language:         language.AIName,
	})
	if err != nil {
		return models.DialogueResponse{}, err
	}
	return models.DialogueResponse{Response: out.Response, CompanionID: companion.ID}, nil
}

// Compliment asks the companion for a compliment about the photo.
func (s *CompanionService) Compliment(ctx context.Context, profileID string, req models.ComplimentRequest) (models.ComplimentResponse, error) {
	current := s.store.Load(ctx, profileID)
	companion := settings.ResolveCompanion(current, req.CompanionID)
	language := settings.ResolveLanguage(current)

	out, err := s.flows.Compliment(ctx, ai.ComplimentInput{
		PhotoDataURI:     req.PhotoDataURI,
		UserName:         current.UserName,
		CompanionName:    companion.Name,
		CompanionPersona: companion.Persona,
		Language:         language.AIName,
	})
	if err != nil {
		return models.ComplimentResponse{}, err
	}
	return models.ComplimentResponse{Compliment: out.Compliment, CompanionID: companion.ID}, nil
}

// GenerateImage generates an image for a free text prompt.
func (s *CompanionService) GenerateImage(ctx context.Context, req models.ImageRequest) (models.ImageResponse, error) {
	out, err := s.flows.Image(ctx, ai.ImageInput{Prompt: req.Prompt})
	if err != nil {
		return models.ImageResponse{}, err
	}
	return models.ImageResponse{ImageURL: out.ImageURL}, nil
}

// GetSettings returns the profile's settings with defaults applied.
func (s *CompanionService) GetSettings(ctx context.Context, profileID string) models.ChatSettings {
	return s.store.Load(ctx, profileID)
}

// UpdateSettings applies the non-nil fields of update and saves the whole record.
func (s *CompanionService) UpdateSettings(ctx context.Context, profileID string, update models.SettingsUpdate) (models.ChatSettings, error) {
	current, err := s.store.LoadForUpdate(ctx, profileID)
	if err != nil {
		return models.ChatSettings{}, s.readFailed(ctx, profileID, err)
	}
	next := current.Clone()

	if update.UserName != nil {
		name := strings.TrimSpace(*update.UserName)
		if name == "" {
			return models.ChatSettings{}, fmt.Errorf("%w: userName must not be empty", ErrValidation)
		}
		if utf8.RuneCountInString(name) > MaxUserNameLength {
			return models.ChatSettings{}, fmt.Errorf("%w: userName is longer than %d characters", ErrValidation, MaxUserNameLength)
		}
		next.UserName = name
	}
	if update.SelectedCompanionID != nil {
		if _, ok := catalog.FindCompanion(*update.SelectedCompanionID); !ok {
			return models.ChatSettings{}, fmt.Errorf("%w: unknown companion %q", ErrValidation, *update.SelectedCompanionID)
		}
		next.SelectedCompanionID = *update.SelectedCompanionID
	}
	if update.SelectedLanguage != nil {
		if _, ok := catalog.FindLanguage(*update.SelectedLanguage); !ok {
			return models.ChatSettings{}, fmt.Errorf("%w: unknown language %q", ErrValidation, *update.SelectedLanguage)
		}
		next.SelectedLanguage = *update.SelectedLanguage
	}

	if err := s.save(ctx, profileID, next); err != nil {
		return models.ChatSettings{}, err
	}
	return next, nil
}

// Customize merges patch into the companion's customization and saves. An empty
// customAvatarUrl removes the custom avatar.
func (s *CompanionService) Customize(ctx context.Context, profileID, companionID string, patch models.CustomizationPatch) (models.ResolvedCompanion, error) {
	companion, ok := catalog.FindCompanion(companionID)
	if !ok {
		return models.ResolvedCompanion{}, fmt.Errorf("%w: %q", ErrCompanionNotFound, companionID)
	}
	if patch.IsEmpty() {
		return models.ResolvedCompanion{}, fmt.Errorf("%w: nothing to change", ErrValidation)
	}

	patch, err := normalizePatch(patch)
	if err != nil {
		return models.ResolvedCompanion{}, err
	}

	current, err := s.store.LoadForUpdate(ctx, profileID)
	if err != nil {
		return models.ResolvedCompanion{}, s.readFailed(ctx, profileID, err)
	}
	next := settings.MergeCustomization(current, companionID, patch)
	if c := next.CompanionCustomizations[companionID]; c.CustomAvatarURL != nil && *c.CustomAvatarURL == "" {
		c.CustomAvatarURL = nil
		next.CompanionCustomizations[companionID] = c
	}

	if err := s.save(ctx, profileID, next); err != nil {
		return models.ResolvedCompanion{}, err
	}
	return resolve(companion, next), nil
}

// ResolvedCompanion returns the catalog companion with the profile's customization.
func (s *CompanionService) ResolvedCompanion(ctx context.Context, profileID, companionID string) (models.ResolvedCompanion, error) {
	companion, ok := catalog.FindCompanion(companionID)
	if !ok {
		return models.ResolvedCompanion{}, fmt.Errorf("%w: %q", ErrCompanionNotFound, companionID)
	}
	return resolve(companion, s.store.Load(ctx, profileID)), nil
}

// ClearSettings removes everything stored for the profile.
func (s *CompanionService) ClearSettings(ctx context.Context, profileID string) error {
	return s.store.Clear(ctx, profileID)
}

func (s *CompanionService) save(ctx context.Context, profileID string, next models.ChatSettings) error {
	metrics := observability.Global().SettingsWrites
	err := s.store.Save(ctx, profileID, next)
	switch {
	case err == nil:
		metrics.WithLabelValues("ok").Inc()
	case errors.Is(err, settings.ErrStorageQuotaExceeded):
		metrics.WithLabelValues("quota_exceeded").Inc()
		logger.FromContext(ctx, s.log).Warn("Settings not saved, quota exceeded", "profile_id", profileID)
	default:
		metrics.WithLabelValues("error").Inc()
	}
	return err
}

func (s *CompanionService) readFailed(ctx context.Context, profileID string, err error) error {
	observability.Global().SettingsWrites.WithLabelValues("error").Inc()
	logger.FromContext(ctx, s.log).Warn("Settings not saved, current record unreadable",
		"profile_id", profileID,
		"error", err.Error(),
	)
	return err
}

func resolve(companion models.Companion, current models.ChatSettings) models.ResolvedCompanion {
	custom := settings.ResolveCustomization(current, companion.ID)
	display := companion.AvatarImage
	if custom.CustomAvatarURL != nil {
		display = *custom.CustomAvatarURL
	}
	return models.ResolvedCompanion{
		Companion:     companion,
		Customization: custom,
		DisplayAvatar: display,
	}
}

// normalizePatch validates a patch and maps traits onto the catalog spelling, dropping
// duplicates.
func normalizePatch(patch models.CustomizationPatch) (models.CustomizationPatch, error) {
	if patch.AffectionLevel != nil && (*patch.AffectionLevel < 0 || *patch.AffectionLevel > 100) {
		return patch, fmt.Errorf("%w: affectionLevel must be between 0 and 100", ErrValidation)
	}

	if patch.SelectedTraits != nil {
		seen := make(map[string]bool)
		traits := make([]string, 0, len(*patch.SelectedTraits))
		for _, t := range *patch.SelectedTraits {
			canonical, ok := canonicalTrait(t)
			if !ok {
				return patch, fmt.Errorf("%w: unknown trait %q", ErrValidation, t)
			}
			if !seen[canonical] {
				seen[canonical] = true
				traits = append(traits, canonical)
			}
		}
		patch.SelectedTraits = &traits
	}

	if patch.CustomAvatarURL != nil {
		avatar := strings.TrimSpace(*patch.CustomAvatarURL)
		if avatar != "" && !validAvatar(avatar) {
			return patch, fmt.Errorf("%w: customAvatarUrl must be an http(s) URL or an image data URI", ErrValidation)
		}
		patch.CustomAvatarURL = &avatar
	}

	return patch, nil
}

func canonicalTrait(t string) (string, bool) {
	t = strings.TrimSpace(t)
	for _, known := range catalog.Traits() {
		if strings.EqualFold(known, t) {
			return known, true
		}
	}
	return "", false
}

func validAvatar(avatar string) bool {
	if strings.HasPrefix(avatar, "data:") {
		_, err := ai.ParseImageDataURI(avatar)
		return err == nil
	}
	u, err := url.Parse(avatar)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
