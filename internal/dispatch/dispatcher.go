// Package dispatch executes canonical commands against an explicit session
// state. The dispatcher never fails: every error becomes an output line.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/ashwch/vterm/internal/router"
	"github.com/ashwch/vterm/internal/runtime"
	"github.com/ashwch/vterm/internal/safety"
	"github.com/ashwch/vterm/internal/sysinfo"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const DefaultTimeout = 10 * time.Second

// State is the per-session working directory. It is always an absolute path
// to a directory that existed when it was set.
type State struct {
	WorkingDirectory string
}

// Result is the outcome of one dispatch.
type Result struct {
	Lines            []string
	Normalized       string
	WorkingDirectory string
	Timestamp        time.Time
	Exit             bool
	Kind             Kind
}

type Executor interface {
	Run(ctx context.Context, command string, dir string) (runtime.Output, error)
}

type Metrics interface {
	Snapshot(ctx context.Context, diskPath string) sysinfo.Snapshot
}

// Dispatcher is stateless; callers serialize dispatches per State.
type Dispatcher struct {
	fs      afero.Fs
	exec    Executor
	metrics Metrics
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

type Option func(*Dispatcher)

func WithFs(fs afero.Fs) Option {
	return func(d *Dispatcher) { d.fs = fs }
}

func WithExecutor(exec Executor) Option {
	return func(d *Dispatcher) { d.exec = exec }
}

func WithMetrics(metrics Metrics) Option {
	return func(d *Dispatcher) { d.metrics = metrics }
}

func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		fs:      afero.NewOsFs(),
		exec:    runtime.NewShellExecutor(""),
		metrics: sysinfo.NewCollector(),
		timeout: DefaultTimeout,
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) Timeout() time.Duration {
	return d.timeout
}

// Dispatch runs canonical against state and returns the result together with
// the next state. A failed command returns state unchanged.
func (d *Dispatcher) Dispatch(ctx context.Context, canonical string, state State) (result Result, next State) {
	next = state
	cmd := Parse(canonical)

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("dispatch panicked", zap.String("verb", cmd.Name), zap.Any("panic", r))
			next = state
			result.Lines = append(result.Lines, fmt.Sprintf("Unexpected error: %v", r))
			result.Kind = KindIO
			result.WorkingDirectory = next.WorkingDirectory
			result.Timestamp = d.now()
		}
	}()

	var (
		lines []string
		err   error
	)
	switch cmd.Verb {
	case router.VerbNone:
	case router.VerbExit:
		result.Exit = true
		lines = []string{"Goodbye!"}
	case router.VerbPwd:
		lines = []string{next.WorkingDirectory}
	case router.VerbLs:
		lines, err = d.list(ctx, cmd, next)
	case router.VerbCd:
		lines, next, err = d.changeDirectory(cmd, next)
	case router.VerbMkdir:
		lines, err = d.makeDirectory(cmd, next)
	case router.VerbTouch:
		lines, err = d.touch(cmd, next)
	case router.VerbRm:
		lines, err = d.remove(cmd, next)
	case router.VerbSysinfo:
		lines = d.systemInfo(ctx, next)
	case router.VerbPassthrough:
		lines, err = d.passthrough(ctx, cmd.Raw, next)
	}

	if err != nil {
		lines = append(lines, err.Error())
		result.Kind = KindOf(err)
		d.logger.Debug("dispatch failed",
			zap.String("verb", cmd.Name),
			zap.String("kind", string(result.Kind)),
			zap.Error(err))
	}
	result.Lines = lines
	result.WorkingDirectory = next.WorkingDirectory
	result.Timestamp = d.now()
	return result, next
}

func (d *Dispatcher) logCommand(msg string, command string, state State, fields ...zap.Field) {
	base := []zap.Field{
		zap.String("command", safety.RedactCommand(command)),
		zap.String("cwd", state.WorkingDirectory),
	}
	d.logger.Info(msg, append(base, fields...)...)
}
