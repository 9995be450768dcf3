//go:build unix

package procexec

import (
	"errors"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// killGroupOnCancel starts cmd in its own process group so cancellation
// reaches its children too (yt-dlp spawns ffmpeg). The group gets SIGTERM
// first and SIGKILL once grace has passed.
func killGroupOnCancel(cmd *exec.Cmd, grace time.Duration) (stop func()) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true} //nolint:exhaustruct

	var (
		mux   sync.Mutex
		timer *time.Timer
	)

	cmd.Cancel = func() error {
		p := cmd.Process
		if nil == p {
			return nil
		}

		mux.Lock()
		timer = time.AfterFunc(grace, func() { _ = syscall.Kill(-p.Pid, syscall.SIGKILL) })
		mux.Unlock()

		if err := syscall.Kill(-p.Pid, syscall.SIGTERM); nil != err {
			if errors.Is(err, syscall.ESRCH) {
				return os.ErrProcessDone
			}

			return err
		}

		return nil
	}

	return func() {
		mux.Lock()
		defer mux.Unlock()

		if nil != timer {
			timer.Stop()
		}
	}
}
