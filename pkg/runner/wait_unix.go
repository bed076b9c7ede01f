//go:build unix

package runner

import (
	"os"
	"syscall"
)

func signaledBy(state *os.ProcessState) (os.Signal, bool) {
	ws, ok := state.Sys().(syscall.WaitStatus)
	if !ok || !ws.Signaled() {
		return nil, false
	}
	return ws.Signal(), true
}
