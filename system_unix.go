//go:build aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris

package yarel

import (
	"bytes"
	"fmt"

	"golang.org/x/sys/unix"
)

// platformVersion reports the kernel version and release via uname.
func platformVersion() string {
	var uname unix.Utsname
	if unix.Uname(&uname) != nil {
		return ""
	}
	v, r := uname.Version[:], uname.Release[:]
	return fmt.Sprintf("%s.%s", bytes.Trim(v, "\x00"), bytes.Trim(r, "\x00"))
}
