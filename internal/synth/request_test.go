package synth

import "testing"

func mustSingleVoice(t *testing.T, name string) VoiceConfig {
	t.Helper()
	v, err := NewSingleVoice(name)
	if err != nil {
		t.Fatalf("build voice: %v", err)
	}
	return v
}

func TestNewRequest(t *testing.T) {
	req, err := NewRequest("  Have a wonderful day!  ", mustSingleVoice(t, "Kore"), "valid-key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Text != "Have a wonderful day!" {
		t.Fatalf("expected trimmed text, got %q", req.Text)
	}
	if req.APIKey != "valid-key" {
		t.Fatalf("unexpected api key %q", req.APIKey)
	}
}

func TestNewRequestRejectsEmptyCredential(t *testing.T) {
	_, err := NewRequest("hello", mustSingleVoice(t, "Kore"), "")
	assertKind(t, err, KindValidation)
}

func TestNewRequestRejectsEmptyText(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := NewRequest(text, mustSingleVoice(t, "Kore"), "valid-key")
		assertKind(t, err, KindValidation)
	}
}

func TestStylePrompt(t *testing.T) {
	got := StylePrompt("cheerful", "Have a wonderful day!")
	want := "Say in a cheerful way: Have a wonderful day!"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if StylePrompt("", "plain") != "plain" {
		t.Fatal("empty style must leave text untouched")
	}
	if StylePrompt("  ", "plain") != "plain" {
		t.Fatal("blank style must leave text untouched")
	}
}
