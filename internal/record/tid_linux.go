//go:build linux

package record

import "golang.org/x/sys/unix"

func threadID() int32 {
	return int32(unix.Gettid())
}
