//go:build !windows

package tray

func iconBytes(png []byte) []byte { return png }
