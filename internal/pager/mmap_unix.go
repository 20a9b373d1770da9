//go:build unix || darwin || linux

package pager

import (
	"syscall"
	"unsafe"
)

func (m *mmapFile) mapFile() error {
	if m.data != nil {
		return errMmapAlreadyMapped
	}
	prot := syscall.PROT_READ
	if !m.readOnly {
		prot |= syscall.PROT_WRITE
	}
	data, err := syscall.Mmap(int(m.file.Fd()), 0, int(m.size), prot, syscall.MAP_SHARED)
	if err != nil {
		return err
	}
	m.data = data
	return nil
}

func (m *mmapFile) unmapFile() error {
	if m.data == nil {
		return nil
	}
	err := syscall.Munmap(m.data)
	m.data = nil
	return err
}

func (m *mmapFile) syncFile() error {
	if m.data == nil {
		return errMmapNotMapped
	}
	_, _, errno := syscall.Syscall(syscall.SYS_MSYNC,
		uintptr(unsafe.Pointer(&m.data[0])),
		uintptr(len(m.data)),
		uintptr(syscall.MS_SYNC))
	if errno != 0 {
		return errno
	}
	return nil
}
