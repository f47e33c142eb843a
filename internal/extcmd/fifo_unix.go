//go:build !windows

package extcmd

import "golang.org/x/sys/unix"

func mkfifoImpl(path string) error {
	return unix.Mkfifo(path, 0660)
}
