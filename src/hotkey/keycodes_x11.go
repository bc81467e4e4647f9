//go:build !windows && !darwin

package hotkey

// X11 keysyms, which is what gohook reports as the rawcode on Linux.
var namedKeys = map[string][]uint16{
	"ctrl":      {0xffe3, 0xffe4}, // Control_L, Control_R
	"alt":       {0xffe9, 0xffea, 0xfe03},
	"shift":     {0xffe1, 0xffe2},
	"cmd":       {0xffeb, 0xffec}, // Super_L, Super_R
	"space":     {0x0020},
	"enter":     {0xff0d},
	"return":    {0xff0d},
	"esc":       {0xff1b},
	"escape":    {0xff1b},
	"tab":       {0xff09},
	"backspace": {0xff08},
	"delete":    {0xffff},
	"del":       {0xffff},
	"insert":    {0xff63},
	"ins":       {0xff63},
	"home":      {0xff50},
	"end":       {0xff57},
	"pageup":    {0xff55},
	"pgup":      {0xff55},
	"pagedown":  {0xff56},
	"pgdn":      {0xff56},
	"left":      {0xff51},
	"up":        {0xff52},
	"right":     {0xff53},
	"down":      {0xff54},
}

// With Shift held the keysym is the upper-case letter.
func letterRawcodes(c byte) []uint16 { return []uint16{uint16(c), uint16(c - 'a' + 'A')} }

func digitRawcodes(c byte) []uint16 { return []uint16{uint16(c)} }

// XK_F1 is 0xffbe and F1..F24 are contiguous.
func functionRawcodes(n int) []uint16 { return []uint16{uint16(0xffbe + n - 1)} }
