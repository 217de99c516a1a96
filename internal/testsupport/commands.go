package testsupport

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Call is one recorded external command invocation.
type Call struct {
	Name string
	Args []string
}

// Flag returns the value following the first occurrence of flag in the
// arguments, or "" when absent.
func (c Call) Flag(flag string) string {
	for i := 0; i < len(c.Args)-1; i++ {
		if c.Args[i] == flag {
			return c.Args[i+1]
		}
	}
	return ""
}

// HasArg reports whether value appears anywhere in the arguments.
func (c Call) HasArg(value string) bool {
	for _, arg := range c.Args {
		if arg == value {
			return true
		}
	}
	return false
}

// Output returns the output path for ffmpeg: the final argument, skipping a
// trailing overwrite flag.
func (c Call) Output() string {
	for i := len(c.Args) - 1; i >= 0; i-- {
		if c.Args[i] == "-y" || c.Args[i] == "-n" {
			continue
		}
		return c.Args[i]
	}
	return ""
}

// CommandRecorder captures external command invocations in place of exec.
// When OnRun is set it is called for every invocation and its error returned;
// otherwise the recorder writes a small placeholder file at the output path so
// rename steps downstream succeed.
type CommandRecorder struct {
	mu    sync.Mutex
	Calls []Call
	OnRun func(call Call) error
}

// Run satisfies the func(ctx, name, args...) error runner signature.
func (r *CommandRecorder) Run(_ context.Context, name string, args ...string) error {
	call := Call{Name: name, Args: append([]string(nil), args...)}
	r.mu.Lock()
	r.Calls = append(r.Calls, call)
	onRun := r.OnRun
	r.mu.Unlock()

	if onRun != nil {
		return onRun(call)
	}
	if out := call.Output(); out != "" && !strings.HasPrefix(out, "-") && filepath.Ext(out) != "" {
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return err
		}
		return os.WriteFile(out, []byte("stub output"), 0o644)
	}
	return nil
}

// Last returns the most recent call.
func (r *CommandRecorder) Last() Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Calls) == 0 {
		return Call{}
	}
	return r.Calls[len(r.Calls)-1]
}
