// Package procexectest provides a scripted procexec.Runner for tests.
package procexectest

import (
	"context"
	"slices"
	"sync"

	"github.com/xeptore/tubecast/procexec"
)

type HandlerFunc func(ctx context.Context, c procexec.Cmd) (procexec.Result, error)

// Fake records every command and answers with Handler. A nil Handler answers
// every command with a successful empty result.
type Fake struct {
	Handler HandlerFunc

	mux   sync.Mutex
	calls []procexec.Cmd
}

func New(h HandlerFunc) *Fake {
	return &Fake{Handler: h} //nolint:exhaustruct
}

func (f *Fake) Run(ctx context.Context, c procexec.Cmd) (procexec.Result, error) {
	f.mux.Lock()
	f.calls = append(f.calls, procexec.Cmd{
		Name:    c.Name,
		Args:    slices.Clone(c.Args),
		Dir:     c.Dir,
		Timeout: c.Timeout,
	})
	f.mux.Unlock()

	if nil == f.Handler {
		return procexec.Result{}, nil //nolint:exhaustruct
	}

	return f.Handler(ctx, c)
}

func (f *Fake) Calls() []procexec.Cmd {
	f.mux.Lock()
	defer f.mux.Unlock()

	return slices.Clone(f.calls)
}

// CallsTo returns the recorded commands running the named binary.
func (f *Fake) CallsTo(name string) []procexec.Cmd {
	out := make([]procexec.Cmd, 0)
	for _, c := range f.Calls() {
		if c.Name == name {
			out = append(out, c)
		}
	}

	return out
}

// Flag returns the value following flag in args, if present.
func Flag(args []string, flag string) (string, bool) {
	i := slices.Index(args, flag)
	if i < 0 || i+1 >= len(args) {
		return "", false
	}

	return args[i+1], true
}

func Ok(stdout string) procexec.Result {
	return procexec.Result{ExitCode: 0, Stdout: stdout, Stderr: "", TimedOut: false}
}

func Fail(code int, stderr string) procexec.Result {
	return procexec.Result{ExitCode: code, Stdout: "", Stderr: stderr, TimedOut: false}
}
