//go:build unix

package myftp

import (
	"fmt"
	"os"
	"os/user"
	"strconv"
	"syscall"
)

func lsLinksUIDGID(fi os.FileInfo) (numLinks, uid, gid string) {
	numLinks, uid, gid = "1", "0", "0"

	switch sys := fi.Sys().(type) {
	case *syscall.Stat_t:
		numLinks = fmt.Sprint(sys.Nlink)
		uid = lsOwner(uint64(sys.Uid))
		gid = lsGroup(uint64(sys.Gid))
	}

	return
}

// lsOwner returns the user name for id, or the number itself if it has no name.
func lsOwner(id uint64) string {
	s := strconv.FormatUint(id, 10)
	if u, err := user.LookupId(s); err == nil {
		return u.Username
	}
	return s
}

func lsGroup(id uint64) string {
	s := strconv.FormatUint(id, 10)
	if g, err := user.LookupGroupId(s); err == nil {
		return g.Name
	}
	return s
}
