//go:build windows

package notification

import (
	"golang.org/x/sys/windows"
)

const (
	mbOK              = 0x00000000
	mbIconInformation = 0x00000040
	mbTopMost         = 0x00040000
)

func deliver(title, body string) error {
	t, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return err
	}
	b, err := windows.UTF16PtrFromString(body)
	if err != nil {
		return err
	}
	_, err = windows.MessageBox(0, b, t, mbOK|mbIconInformation|mbTopMost)
	return err
}
