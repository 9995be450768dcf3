//go:build !unix

package procexec

import (
	"os/exec"
	"time"
)

// killGroupOnCancel keeps the default behaviour of killing the direct child
// only, as process groups are a unix notion.
func killGroupOnCancel(_ *exec.Cmd, _ time.Duration) (stop func()) {
	return func() {}
}
