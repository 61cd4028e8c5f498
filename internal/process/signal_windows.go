//go:build windows

package process

import (
	"syscall"
)

var (
	kernel32             = syscall.NewLazyDLL("kernel32.dll")
	procOpenProcess      = kernel32.NewProc("OpenProcess")
	procTerminateProcess = kernel32.NewProc("TerminateProcess")
	procCloseHandle      = kernel32.NewProc("CloseHandle")
)

const (
	processTerminate        = 0x0001
	processQueryInformation = 0x0400
)

// killProcess terminates a Windows process by PID. There is no graceful
// signal on Windows, so every signal other than 0 terminates.
func killProcess(pid int, signal syscall.Signal) error {
	if signal == 0 {
		return checkProcessExists(pid)
	}
	handle, err := openProcess(processTerminate, uint32(pid))
	if err != nil {
		return err
	}
	defer closeHandle(handle)
	ret, _, err := procTerminateProcess.Call(uintptr(handle), uintptr(1))
	if ret == 0 {
		return err
	}
	return nil
}

func checkProcessExists(pid int) error {
	handle, err := openProcess(processQueryInformation, uint32(pid))
	if err != nil {
		return err
	}
	closeHandle(handle)
	return nil
}

func openProcess(access uint32, pid uint32) (syscall.Handle, error) {
	ret, _, err := procOpenProcess.Call(uintptr(access), 0, uintptr(pid))
	if ret == 0 {
		return 0, err
	}
	return syscall.Handle(ret), nil
}

func closeHandle(handle syscall.Handle) {
	_, _, _ = procCloseHandle.Call(uintptr(handle))
}

func processExists(pid int) bool {
	return pid > 0 && checkProcessExists(pid) == nil
}

func reapChild(int) bool { return false }
