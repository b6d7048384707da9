package sched

import (
	"os"
	"strconv"

	"golang.org/x/sys/unix"
)

// Pin binds every thread of the process to cpu.
func (osProcess) Pin(cpu int) error {
	var set unix.CPUSet
	set.Set(cpu)
	tasks, err := os.ReadDir("/proc/self/task")
	if err != nil {
		return unix.SchedSetaffinity(0, &set)
	}
	var first error
	for _, t := range tasks {
		tid, err := strconv.Atoi(t.Name())
		if err != nil {
			continue
		}
		if err := unix.SchedSetaffinity(tid, &set); err != nil && first == nil {
			first = err
		}
	}
	return first
}
