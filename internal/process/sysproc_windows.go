//go:build windows

package process

import (
	"syscall"

	"golang.org/x/sys/windows"
)

// sysProcAttr keeps helper tools from opening a console window.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: windows.CREATE_NO_WINDOW,
	}
}
