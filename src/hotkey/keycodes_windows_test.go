//go:build windows

package hotkey

import (
	"reflect"
	"testing"
)

func TestVirtualKeyCodes(t *testing.T) {
	tests := []struct {
		name string
		want []uint16
	}{
		{"ctrl", []uint16{162, 163}},
		{"alt", []uint16{164, 165}},
		{"cmd", []uint16{91, 92}},
		{"q", []uint16{81}},
		{"0", []uint16{48}},
		{"f1", []uint16{112}},
		{"f24", []uint16{135}},
		{"pgdn", []uint16{34}},
	}
	for _, tt := range tests {
		if got := keyNameToRawcodes(tt.name); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
		}
	}
}
