package i18n

import (
	"context"
	"testing"
)

func loadBundle(t *testing.T) *Bundle {
	t.Helper()
	b, err := Load("en")
	if err != nil {
		t.Fatalf("load bundle: %v", err)
	}
	return b
}

func TestMatchPrefersCookieOverHeader(t *testing.T) {
	b := loadBundle(t)

	if got := b.Match("uk", "en-US,en;q=0.9"); got != "uk" {
		t.Errorf("cookie should win, got %s", got)
	}
	if got := b.Match("", "uk-UA,uk;q=0.9,en;q=0.5"); got != "uk" {
		t.Errorf("header should be used without cookie, got %s", got)
	}
	if got := b.Match("", ""); got != "en" {
		t.Errorf("expected default language, got %s", got)
	}
	if got := b.Match("de", "de-DE"); got != "en" {
		t.Errorf("unsupported language should fall back, got %s", got)
	}
}

func TestTranslatorFallsBack(t *testing.T) {
	b := loadBundle(t)

	uk := b.Translator("uk")
	if uk.T("mapTitle") != "Мапа дефектів" {
		t.Errorf("unexpected uk mapTitle: %s", uk.T("mapTitle"))
	}
	if uk.T("no_such_key") != "no_such_key" {
		t.Errorf("missing key should echo: %s", uk.T("no_such_key"))
	}

	// Unknown language degrades to the default table.
	fr := b.Translator("fr")
	if fr.Lang() != "en" {
		t.Errorf("expected fallback to en, got %s", fr.Lang())
	}
}

func TestDefectLabels(t *testing.T) {
	b := loadBundle(t)

	en := b.Translator("en")
	if en.DefectLabel("alligator_crack") != "Alligator Crack" {
		t.Errorf("unexpected label: %s", en.DefectLabel("alligator_crack"))
	}
	// Unknown categories are prettified from the raw key.
	if en.DefectLabel("surface_wear") != "Surface Wear" {
		t.Errorf("unexpected prettified label: %s", en.DefectLabel("surface_wear"))
	}

	uk := b.Translator("uk")
	if uk.DefectLabel("pothole") != "Вибоїна" {
		t.Errorf("unexpected uk label: %s", uk.DefectLabel("pothole"))
	}
}

func TestContextCarriage(t *testing.T) {
	b := loadBundle(t)

	ctx := WithTranslator(context.Background(), b.Translator("uk"))
	if got := FromContext(ctx).Lang(); got != "uk" {
		t.Errorf("translator lost in context, got %q", got)
	}

	// Zero-value translator echoes keys rather than panicking.
	if got := FromContext(context.Background()).T("mapTitle"); got != "mapTitle" {
		t.Errorf("zero translator should echo keys, got %q", got)
	}
}
