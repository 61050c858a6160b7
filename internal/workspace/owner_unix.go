//go:build unix

package workspace

import (
	"fmt"
	"os"
	"syscall"
)

func fileOwner(info os.FileInfo) (int, int, error) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, 0, fmt.Errorf("no ownership information for %s", info.Name())
	}
	return int(st.Uid), int(st.Gid), nil
}
