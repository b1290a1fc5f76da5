// SPDX-License-Identifier: MPL-2.0

//go:build unix

package runner

import "golang.org/x/sys/unix"

func currentUserIDs() (uid, gid int) {
	return unix.Getuid(), unix.Getgid()
}
