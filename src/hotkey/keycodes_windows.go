//go:build windows

package hotkey

// Windows virtual-key codes.
var namedKeys = map[string][]uint16{
	"ctrl":      {162, 163}, // VK_LCONTROL, VK_RCONTROL
	"alt":       {164, 165}, // VK_LMENU, VK_RMENU
	"shift":     {160, 161}, // VK_LSHIFT, VK_RSHIFT
	"cmd":       {91, 92},   // VK_LWIN, VK_RWIN
	"space":     {32},
	"enter":     {13},
	"return":    {13},
	"esc":       {27},
	"escape":    {27},
	"tab":       {9},
	"backspace": {8},
	"delete":    {46},
	"del":       {46},
	"insert":    {45},
	"ins":       {45},
	"home":      {36},
	"end":       {35},
	"pageup":    {33},
	"pgup":      {33},
	"pagedown":  {34},
	"pgdn":      {34},
	"left":      {37},
	"up":        {38},
	"right":     {39},
	"down":      {40},
}

func letterRawcodes(c byte) []uint16 { return []uint16{uint16('A' + c - 'a')} }

func digitRawcodes(c byte) []uint16 { return []uint16{uint16(c)} }

// VK_F1 is 0x70 and F1..F24 are contiguous.
func functionRawcodes(n int) []uint16 { return []uint16{uint16(0x70 + n - 1)} }
