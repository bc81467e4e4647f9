//go:build windows

package tray

import (
	"bytes"
	"encoding/binary"
)

// iconBytes wraps the PNG in a single-image ICO container, which is what the
// Windows tray loader expects.
func iconBytes(png []byte) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, struct {
		Reserved, Type, Count uint16
	}{0, 1, 1})
	_ = binary.Write(&buf, binary.LittleEndian, struct {
		Width, Height, Colors, Reserved uint8
		Planes, BitCount                uint16
		Size, Offset                    uint32
	}{iconSize, iconSize, 0, 0, 1, 32, uint32(len(png)), 6 + 16})
	buf.Write(png)
	return buf.Bytes()
}
