// SPDX-License-Identifier: MPL-2.0

//go:build !unix

package runner

import "os"

// currentUserIDs returns -1 for both ids where the concept does not exist.
func currentUserIDs() (uid, gid int) {
	return os.Getuid(), os.Getgid()
}
