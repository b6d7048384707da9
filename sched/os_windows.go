package sched

import (
	"golang.org/x/sys/windows"
)

type osProcess struct{}

func (osProcess) Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		return err == windows.ERROR_ACCESS_DENIED
	}
	defer windows.CloseHandle(h)
	var code uint32
	if err := windows.GetExitCodeProcess(h, &code); err != nil {
		return true
	}
	return code == 259 // STILL_ACTIVE
}

func (osProcess) Interrupt(pid int) error {
	return windows.GenerateConsoleCtrlEvent(windows.CTRL_C_EVENT, uint32(pid))
}

var procSetProcessAffinityMask = windows.NewLazySystemDLL("kernel32.dll").NewProc("SetProcessAffinityMask")

func (osProcess) Pin(cpu int) error {
	r, _, err := procSetProcessAffinityMask.Call(uintptr(windows.CurrentProcess()), uintptr(1)<<cpu)
	if r == 0 {
		return err
	}
	return nil
}
