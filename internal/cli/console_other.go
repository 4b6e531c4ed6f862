//go:build !windows

package cli

func setConsoleUTF8() {}
