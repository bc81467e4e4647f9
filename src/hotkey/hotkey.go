package hotkey

import (
	"fmt"
	"log"
	"strings"
	"sync"

	gohook "github.com/robotn/gohook"
)

var stopOnce sync.Once

// Listen registers a global hotkey such as "Ctrl+Alt+S" and invokes callback
// each time the full combination goes down. The callback runs on the hook
// goroutine and must not block; the event loop hands it a channel send.
func Listen(combo string, callback func()) error {
	m, err := newMatcher(combo)
	if err != nil {
		return err
	}
	log.Printf("Hotkey listener configured for: %s (%d keys)", combo, len(m.keys))

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC in hotkey goroutine: %v", r)
			}
		}()

		evChan := gohook.Start()
		if evChan == nil {
			log.Printf("ERROR: gohook.Start() returned nil channel")
			return
		}
		for ev := range evChan {
			switch ev.Kind {
			case gohook.KeyDown:
				if m.press(ev.Rawcode) {
					log.Printf("Hotkey activated: %s", combo)
					if callback != nil {
						callback()
					}
				}
			case gohook.KeyUp:
				m.release(ev.Rawcode)
			}
		}
		log.Printf("Hotkey event channel closed")
	}()
	return nil
}

// Stop ends the global hook. Safe to call more than once.
func Stop() {
	stopOnce.Do(gohook.End)
}

type keyState struct {
	name     string
	rawcodes []uint16
	pressed  bool
}

// matcher tracks which keys of a combination are currently held.
type matcher struct {
	mu   sync.Mutex
	keys []keyState
}

func newMatcher(combo string) (*matcher, error) {
	names := parseHotkey(combo)
	if len(names) == 0 {
		return nil, fmt.Errorf("empty hotkey %q", combo)
	}
	m := &matcher{}
	for _, name := range names {
		codes := keyNameToRawcodes(name)
		if len(codes) == 0 {
			return nil, fmt.Errorf("hotkey %q: unknown key %q", combo, name)
		}
		m.keys = append(m.keys, keyState{name: name, rawcodes: codes})
	}
	return m, nil
}

// press records a key down and reports whether the whole combination is held.
// A completed combination resets, so holding the keys fires once.
func (m *matcher) press(raw uint16) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.keys {
		if m.keys[i].matches(raw) {
			m.keys[i].pressed = true
		}
	}
	for i := range m.keys {
		if !m.keys[i].pressed {
			return false
		}
	}
	for i := range m.keys {
		m.keys[i].pressed = false
	}
	return true
}

func (m *matcher) release(raw uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.keys {
		if m.keys[i].matches(raw) {
			m.keys[i].pressed = false
		}
	}
}

func (k keyState) matches(raw uint16) bool {
	for _, c := range k.rawcodes {
		if c == raw {
			return true
		}
	}
	return false
}

// parseHotkey converts a hotkey string like "Ctrl+Alt+q" to normalized key names.
func parseHotkey(combo string) []string {
	var keys []string
	for _, part := range strings.Split(strings.ToLower(combo), "+") {
		part = strings.TrimSpace(part)
		switch part {
		case "":
			continue
		case "control":
			part = "ctrl"
		case "option":
			part = "alt"
		case "win", "super", "meta":
			part = "cmd"
		}
		keys = append(keys, part)
	}
	return keys
}

// keyNameToRawcodes maps a normalized key name to the platform rawcodes gohook
// reports for it, left and right variants included for modifiers.
func keyNameToRawcodes(name string) []uint16 {
	name = strings.ToLower(strings.TrimSpace(name))
	if codes, ok := namedKeys[name]; ok {
		return codes
	}
	if len(name) == 1 {
		c := name[0]
		switch {
		case c >= 'a' && c <= 'z':
			return letterRawcodes(c)
		case c >= '0' && c <= '9':
			return digitRawcodes(c)
		}
	}
	if n, ok := functionKeyNumber(name); ok {
		return functionRawcodes(n)
	}
	log.Printf("WARNING: Unknown key name '%s', cannot map to rawcode", name)
	return nil
}

func functionKeyNumber(name string) (int, bool) {
	if len(name) < 2 || name[0] != 'f' {
		return 0, false
	}
	var n int
	if _, err := fmt.Sscanf(name[1:], "%d", &n); err != nil || n < 1 || n > 24 {
		return 0, false
	}
	if fmt.Sprintf("f%d", n) != name {
		return 0, false
	}
	return n, true
}
