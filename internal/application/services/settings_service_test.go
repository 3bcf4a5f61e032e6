package services

import (
	"testing"

	persistuser "github.com/pixreview/pixreview-go/internal/infrastructure/persistence/user"
)

func newSettingsFixture(t *testing.T) *SettingsService {
	t.Helper()
	return NewSettingsService(newTestLogger(t), newTestTracker(), persistuser.NewMemorySettingsRepository())
}

func TestSettingsUpdateAndReadBack(t *testing.T) {
	svc := newSettingsFixture(t)

	err := svc.Update(map[string]string{
		SettingPixelID:             "1234567890",
		SettingWelcomeVideoEmbed:   "<iframe src=\"https://player.example/welcome\"></iframe>",
		SettingExplainerVideoEmbed: "<iframe src=\"https://player.example/explainer\"></iframe>",
		SettingInterludeVideoEmbed: "<iframe src=\"https://player.example/interlude\"></iframe>",
	})
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	all, err := svc.All()
	if err != nil {
		t.Fatalf("All() error: %v", err)
	}
	if all[SettingPixelID] != "1234567890" {
		t.Errorf("pixel_id = %q", all[SettingPixelID])
	}
	for _, key := range []string{SettingWelcomeVideoEmbed, SettingExplainerVideoEmbed, SettingInterludeVideoEmbed} {
		if all[key] == "" {
			t.Errorf("%s not stored", key)
		}
	}
}

func TestSettingsUpdateRejectsUnknownKeys(t *testing.T) {
	svc := newSettingsFixture(t)

	err := svc.Update(map[string]string{
		SettingPixelID: "123",
		"evil_key":     "payload",
	})
	if err == nil {
		t.Fatal("Update() with unknown key succeeded, want error")
	}

	// Nothing from the rejected batch may have been written.
	all, _ := svc.All()
	if len(all) != 0 {
		t.Errorf("rejected update wrote %v", all)
	}
}
