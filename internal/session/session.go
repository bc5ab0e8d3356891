// Package session binds one dispatch state to one client and serializes
// access to it.
package session

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ashwch/vterm/internal/dispatch"
	"github.com/ashwch/vterm/internal/normalize"
	"github.com/ashwch/vterm/internal/router"
	"github.com/ashwch/vterm/internal/runtime"
)

// Recorder receives every non-empty input a session executes.
type Recorder interface {
	Append(command string) error
}

type Status struct {
	ID               string
	WorkingDirectory string
	Timestamp        time.Time
}

// Preview describes what an input would do without running it.
type Preview struct {
	Input     string
	Canonical string
	Verb      router.Verb
	HighRisk  bool
}

type Session struct {
	ID string

	mu         sync.Mutex
	state      dispatch.State
	dispatcher *dispatch.Dispatcher
	recorder   Recorder
	now        func() time.Time
	lastUsed   time.Time
	ended      bool
}

func New(id string, dir string, dispatcher *dispatch.Dispatcher, recorder Recorder) *Session {
	return newWithClock(id, dir, dispatcher, recorder, time.Now)
}

func newWithClock(id string, dir string, dispatcher *dispatch.Dispatcher, recorder Recorder, now func() time.Time) *Session {
	return &Session{
		ID:         id,
		state:      dispatch.State{WorkingDirectory: dir},
		dispatcher: dispatcher,
		recorder:   recorder,
		now:        now,
		lastUsed:   now(),
	}
}

func canonicalize(input string) (string, string) {
	cleaned := runtime.TrimPrompt(input)
	return cleaned, normalize.Normalize(cleaned)
}

func (s *Session) Preview(input string) Preview {
	_, canonical := canonicalize(input)
	cmd := dispatch.Parse(canonical)
	return Preview{
		Input:     input,
		Canonical: canonical,
		Verb:      cmd.Verb,
		HighRisk:  highRisk(cmd, s.WorkingDirectory(), userHome()),
	}
}

// literalSweeps are rm operands the host shell would expand into a whole tree.
var literalSweeps = map[string]struct{}{
	"~": {}, "~/": {}, "*": {},
}

func userHome() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Clean(dir)
}

func highRisk(cmd dispatch.Command, cwd, home string) bool {
	switch cmd.Verb {
	case router.VerbPassthrough:
		return runtime.HighRisk(cmd.Raw)
	case router.VerbRm:
		for _, arg := range cmd.Args {
			if _, ok := literalSweeps[arg]; ok {
				return true
			}
		}
		target, ok := dispatch.RemoveTarget(cmd.Args, cwd)
		if !ok {
			return false
		}
		return sweepingPath(target, cwd, home)
	}
	return false
}

// sweepingPath flags the filesystem root, its direct children, the user's
// home and anything enclosing the session directory.
func sweepingPath(target, cwd, home string) bool {
	parent := filepath.Dir(target)
	if parent == target || filepath.Dir(parent) == parent {
		return true
	}
	if home != "" && target == home {
		return true
	}
	return dispatch.Encloses(target, cwd)
}

// Execute normalizes input and dispatches it. Normalized is set only when
// normalization changed the input.
func (s *Session) Execute(ctx context.Context, input string) dispatch.Result {
	cleaned, canonical := canonicalize(input)

	s.mu.Lock()
	defer s.mu.Unlock()

	result, next := s.dispatcher.Dispatch(ctx, canonical, s.state)
	s.state = next
	s.lastUsed = s.now()
	if result.Exit {
		s.ended = true
	}
	if canonical != strings.TrimSpace(input) {
		result.Normalized = canonical
	}
	if s.recorder != nil && cleaned != "" {
		_ = s.recorder.Append(cleaned)
	}
	return result
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{ID: s.ID, WorkingDirectory: s.state.WorkingDirectory, Timestamp: s.now()}
}

func (s *Session) WorkingDirectory() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.WorkingDirectory
}

// Ended reports whether an exit command has been dispatched.
func (s *Session) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}
