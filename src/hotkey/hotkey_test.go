package hotkey

import (
	"reflect"
	"testing"
)

func TestParseHotkey(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Ctrl+Alt+S", []string{"ctrl", "alt", "s"}},
		{"control + shift + F5", []string{"ctrl", "shift", "f5"}},
		{"Win+Space", []string{"cmd", "space"}},
		{"super+option+q", []string{"cmd", "alt", "q"}},
		{"Ctrl++S", []string{"ctrl", "s"}},
		{"", nil},
	}
	for _, tt := range tests {
		if got := parseHotkey(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseHotkey(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewMatcherRejectsUnknownKeys(t *testing.T) {
	for _, combo := range []string{"", "Ctrl+Banana", "Alt+F25", "Ctrl+f1x"} {
		if _, err := newMatcher(combo); err == nil {
			t.Errorf("newMatcher(%q) should fail", combo)
		}
	}
}

func TestMatcherFiresOnFullCombination(t *testing.T) {
	m, err := newMatcher("Ctrl+Alt+S")
	if err != nil {
		t.Fatalf("newMatcher: %v", err)
	}
	ctrl := keyNameToRawcodes("ctrl")
	alt := keyNameToRawcodes("alt")
	s := keyNameToRawcodes("s")

	if m.press(ctrl[0]) || m.press(alt[1]) {
		t.Fatal("fired before the combination was complete")
	}
	if !m.press(s[0]) {
		t.Fatal("did not fire on full combination")
	}
	// Holding the last key does not refire until the combination is pressed again.
	if m.press(s[0]) {
		t.Fatal("refired without modifiers")
	}
}

func TestMatcherRelease(t *testing.T) {
	m, err := newMatcher("Ctrl+Q")
	if err != nil {
		t.Fatalf("newMatcher: %v", err)
	}
	ctrl := keyNameToRawcodes("ctrl")[0]
	q := keyNameToRawcodes("q")[0]

	m.press(ctrl)
	m.release(ctrl)
	if m.press(q) {
		t.Fatal("fired after modifier was released")
	}
	if !m.press(ctrl) {
		t.Fatal("expected fire once both keys are held")
	}
}

func TestKeyNameToRawcodesCoversNamedKeys(t *testing.T) {
	names := []string{"ctrl", "alt", "shift", "cmd", "space", "enter", "esc", "tab", "left", "a", "z", "0", "9", "f1", "f12"}
	for _, name := range names {
		if len(keyNameToRawcodes(name)) == 0 {
			t.Errorf("%q has no rawcodes", name)
		}
	}
	if keyNameToRawcodes("notakey") != nil {
		t.Error("unknown key should map to nil")
	}
}
