package lang

import (
	"strings"
	"testing"
)

func TestLookup(t *testing.T) {
	if got := T("en", "success"); got != "Success" {
		t.Errorf("T(en, success) = %q", got)
	}
	if got := T("ru", "success"); got == "" || got == "success" {
		t.Errorf("T(ru, success) = %q", got)
	}
}

func TestFallbackToRussian(t *testing.T) {
	// The Ukrainian catalog is partial; missing keys come from ru.
	if got := T("ua", "admin.withdraw_list"); got != T("ru", "admin.withdraw_list") {
		t.Errorf("ua fallback = %q", got)
	}
	// Unknown locales fall back entirely.
	if got := T("de", "success"); got != T("ru", "success") {
		t.Errorf("unknown locale = %q", got)
	}
}

func TestMissingKeyReturnsKey(t *testing.T) {
	if got := T("en", "no_such_key_anywhere"); got != "no_such_key_anywhere" {
		t.Errorf("got %q", got)
	}
}

func TestTf(t *testing.T) {
	got := Tf("en", "the_ticket_was_closed", "refund")
	if !strings.Contains(got, "refund") {
		t.Errorf("Tf = %q", got)
	}
}

func TestEveryEnglishKeyHasRussian(t *testing.T) {
	for key := range en {
		if _, ok := ru[key]; !ok {
			t.Errorf("ru catalog missing %q", key)
		}
	}
}
