//go:build !unix

package runner

import "os"

func signaledBy(state *os.ProcessState) (os.Signal, bool) {
	return nil, false
}
