package settings

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"companion-chat/backend/internal/catalog"
	"companion-chat/backend/internal/models"
	"companion-chat/backend/internal/storage"
	"companion-chat/backend/pkg/logger"
)

func intPtr(v int) *int               { return &v }
func strPtr(v string) *string         { return &v }
func traitsPtr(v ...string) *[]string { return &v }

// unreliableKV fails every read while failReads is set.
type unreliableKV struct {
	*storage.MemoryKV
	failReads bool
}

func (kv *unreliableKV) Get(ctx context.Context, profileID, key string) ([]byte, error) {
	if kv.failReads {
		return nil, errors.New("connection reset")
	}
	return kv.MemoryKV.Get(ctx, profileID, key)
}

func newTestStore(quota int64) (*Store, *storage.MemoryKV) {
	kv := storage.NewMemoryKV(quota)
	return NewStore(kv, logger.Discard()), kv
}

func sampleSettings() models.ChatSettings {
	return models.ChatSettings{
		UserName:            "Riya",
		SelectedCompanionID: "kavya",
		SelectedLanguage:    "ta",
		CompanionCustomizations: map[string]models.CompanionCustomization{
			"kavya": {SelectedTraits: []string{"calm", "witty"}, AffectionLevel: 70},
			"aria":  {SelectedTraits: []string{}, CustomAvatarURL: strPtr("data:image/png;base64,AAAA"), AffectionLevel: 20},
		},
	}
}

func TestLoadEmptyStoreReturnsDefaults(t *testing.T) {
	store, _ := newTestStore(0)

	got := store.Load(context.Background(), "p1")

	assert.Equal(t, catalog.Companions()[0].ID, got.SelectedCompanionID)
	assert.Equal(t, catalog.Languages()[0].Value, got.SelectedLanguage)
	assert.Equal(t, "User", got.UserName)
	assert.Empty(t, got.CompanionCustomizations)
	assert.NotNil(t, got.CompanionCustomizations)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	store, _ := newTestStore(0)
	ctx := context.Background()
	want := sampleSettings()

	require.NoError(t, store.Save(ctx, "p1", want))
	got := store.Load(ctx, "p1")
	assert.Equal(t, want, got)

	// Saving what was loaded changes nothing.
	require.NoError(t, store.Save(ctx, "p1", got))
	assert.Equal(t, want, store.Load(ctx, "p1"))
}

func TestLoadCorruptRecordReturnsDefaults(t *testing.T) {
	store, kv := newTestStore(0)
	ctx := context.Background()

	for _, raw := range []string{"not json", "[1,2,3]", "\"string\"", "null", "{"} {
		require.NoError(t, kv.Set(ctx, "p1", Key, []byte(raw)))
		assert.Equal(t, Defaults(), store.Load(ctx, "p1"), raw)
	}
}

func TestSaveNilTraitsRoundTrips(t *testing.T) {
	store, _ := newTestStore(0)
	ctx := context.Background()

	in := sampleSettings()
	in.CompanionCustomizations["luna"] = models.CompanionCustomization{AffectionLevel: 40}
	require.NoError(t, store.Save(ctx, "p1", in))
	assert.Nil(t, in.CompanionCustomizations["luna"].SelectedTraits)

	loaded := store.Load(ctx, "p1")
	assert.Equal(t, []string{}, loaded.CompanionCustomizations["luna"].SelectedTraits)

	require.NoError(t, store.Save(ctx, "p1", loaded))
	assert.Equal(t, loaded, store.Load(ctx, "p1"))
}

func TestLoadForUpdate(t *testing.T) {
	kv := &unreliableKV{MemoryKV: storage.NewMemoryKV(0)}
	store := NewStore(kv, logger.Discard())
	ctx := context.Background()

	got, err := store.LoadForUpdate(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), got)

	require.NoError(t, kv.Set(ctx, "p1", Key, []byte("not json")))
	got, err = store.LoadForUpdate(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), got)

	require.NoError(t, store.Save(ctx, "p1", sampleSettings()))
	got, err = store.LoadForUpdate(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, sampleSettings(), got)

	kv.failReads = true
	_, err = store.LoadForUpdate(ctx, "p1")
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.Equal(t, Defaults(), store.Load(ctx, "p1"))
}

func TestSaveQuotaExceededKeepsPreviousRecord(t *testing.T) {
	store, _ := newTestStore(512)
	ctx := context.Background()

	original := sampleSettings()
	require.NoError(t, store.Save(ctx, "p1", original))

	huge := sampleSettings()
	huge.CompanionCustomizations = map[string]models.CompanionCustomization{
		"luna": {SelectedTraits: []string{}, CustomAvatarURL: strPtr("data:image/png;base64," + strings.Repeat("A", 1024)), AffectionLevel: 20},
	}
	err := store.Save(ctx, "p1", huge)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStorageQuotaExceeded))

	assert.Equal(t, original, store.Load(ctx, "p1"))
}

func TestClearRemovesEverything(t *testing.T) {
	store, kv := newTestStore(0)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "p1", sampleSettings()))
	require.NoError(t, kv.Set(ctx, "p1", "isGuestMode", []byte("true")))
	require.NoError(t, store.Clear(ctx, "p1"))

	assert.Equal(t, Defaults(), store.Load(ctx, "p1"))
	_, err := kv.Get(ctx, "p1", "isGuestMode")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestResolveCustomizationDefaultsWhenMissing(t *testing.T) {
	s := sampleSettings()

	for _, c := range catalog.Companions() {
		if _, ok := s.CompanionCustomizations[c.ID]; ok {
			continue
		}
		got := ResolveCustomization(s, c.ID)
		assert.Equal(t, 20, got.AffectionLevel)
		assert.Equal(t, []string{}, got.SelectedTraits)
		assert.Nil(t, got.CustomAvatarURL)
	}
	assert.Equal(t, models.DefaultCustomization(), ResolveCustomization(s, "no-such-id"))
}

func TestResolveCustomizationReturnsCopy(t *testing.T) {
	s := sampleSettings()

	got := ResolveCustomization(s, "kavya")
	got.SelectedTraits[0] = "shy"

	assert.Equal(t, "calm", s.CompanionCustomizations["kavya"].SelectedTraits[0])
}

func TestResolveCompanion(t *testing.T) {
	s := sampleSettings()
	first := catalog.Companions()[0]

	assert.Equal(t, ResolveCompanion(s, first.ID), ResolveCompanion(s, "no-such-id"))
	assert.Equal(t, "kavya", ResolveCompanion(s, "").ID)
	assert.Equal(t, "meera", ResolveCompanion(s, "meera").ID)

	s.SelectedCompanionID = "retired"
	assert.Equal(t, first.ID, ResolveCompanion(s, "").ID)
}

func TestResolveLanguage(t *testing.T) {
	s := sampleSettings()
	assert.Equal(t, "Tamil", ResolveLanguage(s).AIName)

	s.SelectedLanguage = "xx"
	assert.Equal(t, catalog.Languages()[0], ResolveLanguage(s))
}

func TestMergeCustomizationAffectionOnly(t *testing.T) {
	s := Defaults()
	s.UserName = "Riya"

	got := MergeCustomization(s, "luna", models.CustomizationPatch{AffectionLevel: intPtr(45)})

	assert.Equal(t, models.CompanionCustomization{SelectedTraits: []string{}, AffectionLevel: 45}, got.CompanionCustomizations["luna"])
	assert.Equal(t, s.UserName, got.UserName)
	assert.Equal(t, s.SelectedCompanionID, got.SelectedCompanionID)
	assert.Equal(t, s.SelectedLanguage, got.SelectedLanguage)
	assert.Len(t, got.CompanionCustomizations, 1)
	assert.Empty(t, s.CompanionCustomizations, "input must not be mutated")
}

func TestMergeCustomizationNoCrossContamination(t *testing.T) {
	s := sampleSettings()
	patches := []models.CustomizationPatch{
		{},
		{AffectionLevel: intPtr(99)},
		{SelectedTraits: traitsPtr("shy")},
		{CustomAvatarURL: strPtr("https://example.com/a.png")},
		{SelectedTraits: traitsPtr(), CustomAvatarURL: strPtr("x"), AffectionLevel: intPtr(0)},
	}

	for _, p := range patches {
		for _, c1 := range []string{"kavya", "aria", "luna"} {
			got := MergeCustomization(s, c1, p)
			for id, want := range s.CompanionCustomizations {
				if id == c1 {
					continue
				}
				assert.Equal(t, want, got.CompanionCustomizations[id])
			}
		}
	}
}

func TestMergeCustomizationRetainsUnspecifiedFields(t *testing.T) {
	s := sampleSettings()

	got := MergeCustomization(s, "aria", models.CustomizationPatch{SelectedTraits: traitsPtr("playful")})

	aria := got.CompanionCustomizations["aria"]
	assert.Equal(t, []string{"playful"}, aria.SelectedTraits)
	require.NotNil(t, aria.CustomAvatarURL)
	assert.Equal(t, "data:image/png;base64,AAAA", *aria.CustomAvatarURL)
	assert.Equal(t, 20, aria.AffectionLevel)
	assert.Equal(t, []string{}, s.CompanionCustomizations["aria"].SelectedTraits)
}
