//go:build windows

package cli

import "golang.org/x/sys/windows"

const cpUTF8 = 65001

var (
	kernel32DLL       = windows.NewLazySystemDLL("kernel32.dll")
	procSetConsoleCP  = kernel32DLL.NewProc("SetConsoleCP")
	procSetConsoleOCP = kernel32DLL.NewProc("SetConsoleOutputCP")
)

// setConsoleUTF8 switches an attached console to UTF-8 so paths and user
// names print intact. Without a console the calls fail and are ignored.
func setConsoleUTF8() {
	if procSetConsoleOCP.Find() != nil || procSetConsoleCP.Find() != nil {
		return
	}
	procSetConsoleOCP.Call(cpUTF8)
	procSetConsoleCP.Call(cpUTF8)
}
