//go:build darwin

package hotkey

// macOS virtual key codes (kVK_*).
var namedKeys = map[string][]uint16{
	"ctrl":      {0x3B, 0x3E},
	"alt":       {0x3A, 0x3D},
	"shift":     {0x38, 0x3C},
	"cmd":       {0x37, 0x36},
	"space":     {0x31},
	"enter":     {0x24},
	"return":    {0x24},
	"esc":       {0x35},
	"escape":    {0x35},
	"tab":       {0x30},
	"backspace": {0x33},
	"delete":    {0x75},
	"del":       {0x75},
	"home":      {0x73},
	"end":       {0x77},
	"pageup":    {0x74},
	"pgup":      {0x74},
	"pagedown":  {0x79},
	"pgdn":      {0x79},
	"left":      {0x7B},
	"right":     {0x7C},
	"down":      {0x7D},
	"up":        {0x7E},
}

var letterCodes = [26]uint16{
	0x00, 0x0B, 0x08, 0x02, 0x0E, 0x03, 0x05, 0x04, 0x22, 0x26, 0x28, 0x25, 0x2E,
	0x2D, 0x1F, 0x23, 0x0C, 0x0F, 0x01, 0x11, 0x20, 0x09, 0x0D, 0x07, 0x10, 0x06,
}

var digitCodes = [10]uint16{0x1D, 0x12, 0x13, 0x14, 0x15, 0x17, 0x16, 0x1A, 0x1C, 0x19}

var functionCodes = [12]uint16{0x7A, 0x78, 0x63, 0x76, 0x60, 0x61, 0x62, 0x64, 0x65, 0x6D, 0x67, 0x6F}

func letterRawcodes(c byte) []uint16 { return []uint16{letterCodes[c-'a']} }

func digitRawcodes(c byte) []uint16 { return []uint16{digitCodes[c-'0']} }

func functionRawcodes(n int) []uint16 {
	if n > len(functionCodes) {
		return nil
	}
	return []uint16{functionCodes[n-1]}
}
