package i18n

import (
	"os"
	"path/filepath"
	"testing"
)

func writeLocale(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write locale: %v", err)
	}
}

func TestTranslatorFallbackChain(t *testing.T) {
	dir := t.TempDir()
	writeLocale(t, dir, "en.yaml", "greeting: \"Hello\"\nonly.en: \"English only\"\n")
	writeLocale(t, dir, "nl.yaml", "greeting: \"Hallo\"\n")

	tr, err := NewTranslator(dir, "en")
	if err != nil {
		t.Fatalf("new translator: %v", err)
	}

	if got := tr.T("nl", "greeting"); got != "Hallo" {
		t.Fatalf("nl greeting = %q", got)
	}
	if got := tr.T("nl", "only.en"); got != "English only" {
		t.Fatalf("fallback to default = %q", got)
	}
	if got := tr.T("nl", "missing.key"); got != "missing.key" {
		t.Fatalf("missing key = %q, want the key itself", got)
	}
	if got := tr.T("", "greeting"); got != "Hello" {
		t.Fatalf("empty lang = %q, want default", got)
	}
}

func TestFallbackTranslatorEchoesKeys(t *testing.T) {
	tr := NewFallback("en")
	if got := tr.T("nl", "anything"); got != "anything" {
		t.Fatalf("got %q, want the key", got)
	}
}
