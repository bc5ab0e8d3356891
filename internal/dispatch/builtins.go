package dispatch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/ashwch/vterm/internal/sysinfo"
	"github.com/spf13/afero"
)

// resolve returns target as an absolute path, anchored at the session
// directory when relative.
func resolve(dir, target string) string {
	if filepath.IsAbs(target) {
		return filepath.Clean(target)
	}
	return filepath.Join(dir, target)
}

func (d *Dispatcher) isDir(path string) bool {
	info, err := d.fs.Stat(path)
	return err == nil && info.IsDir()
}

func (d *Dispatcher) list(ctx context.Context, cmd Command, state State) ([]string, error) {
	if len(cmd.Args) > 0 && strings.HasPrefix(cmd.Args[0], "-") {
		// Flags belong to the host ls.
		return d.passthrough(ctx, cmd.Raw, state)
	}
	target := "."
	if len(cmd.Args) > 0 {
		target = cmd.Joined()
	}
	path := resolve(state.WorkingDirectory, target)
	if !d.isDir(path) {
		return nil, fail(ErrNotFound, nil, "No such directory: %s", target)
	}
	entries, err := afero.ReadDir(d.fs, path)
	if err != nil {
		return nil, fail(ErrIO, err, "Error: %v", err)
	}
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		isDir := entry.IsDir()
		if entry.Mode()&os.ModeSymlink != 0 {
			isDir = d.isDir(filepath.Join(path, entry.Name()))
		}
		if isDir {
			lines = append(lines, fmt.Sprintf("📁 %s/", entry.Name()))
		} else {
			lines = append(lines, fmt.Sprintf("📄 %s", entry.Name()))
		}
	}
	return lines, nil
}

func (d *Dispatcher) changeDirectory(cmd Command, state State) ([]string, State, error) {
	if len(cmd.Args) == 0 {
		return nil, state, fail(ErrUsage, nil, "Usage: cd <directory>")
	}
	target := cmd.Joined()
	path := resolve(state.WorkingDirectory, target)
	if !filepath.IsAbs(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, state, fail(ErrIO, err, "Error: %v", err)
		}
		path = abs
	}
	if !d.isDir(path) {
		return nil, state, fail(ErrNotFound, nil, "No such directory: %s", target)
	}
	next := State{WorkingDirectory: path}
	return []string{"Changed to: " + path}, next, nil
}

func (d *Dispatcher) makeDirectory(cmd Command, state State) ([]string, error) {
	if len(cmd.Args) == 0 {
		return nil, fail(ErrUsage, nil, "Usage: mkdir <directory>")
	}
	name := cmd.Joined()
	err := d.fs.Mkdir(resolve(state.WorkingDirectory, name), 0o755)
	switch {
	case errors.Is(err, os.ErrExist):
		return nil, fail(ErrAlreadyExists, err, "Directory already exists: %s", name)
	case err != nil:
		return nil, fail(ErrIO, err, "Error: %v", err)
	}
	return []string{"Directory created: " + name}, nil
}

func (d *Dispatcher) touch(cmd Command, state State) ([]string, error) {
	if len(cmd.Args) == 0 {
		return nil, fail(ErrUsage, nil, "Usage: touch <file>")
	}
	name := cmd.Joined()
	// O_APPEND without O_TRUNC leaves existing content untouched.
	f, err := d.fs.OpenFile(resolve(state.WorkingDirectory, name), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fail(ErrIO, err, "Error creating file: %v", err)
	}
	if err := f.Close(); err != nil {
		return nil, fail(ErrIO, err, "Error creating file: %v", err)
	}
	return []string{"File created: " + name}, nil
}

// removeFlags splits leading rm flags (-r, -f, -rf, -R, --) from the target.
func removeFlags(args []string) (recursive bool, rest []string) {
	for i, arg := range args {
		if arg == "--" {
			return recursive, args[i+1:]
		}
		if len(arg) < 2 || arg[0] != '-' || strings.Trim(arg[1:], "rRf") != "" {
			return recursive, args[i:]
		}
		if strings.ContainsAny(arg, "rR") {
			recursive = true
		}
	}
	return recursive, nil
}

// RemoveTarget returns the absolute path rm would remove from dir, or false
// when args name no operand.
func RemoveTarget(args []string, dir string) (string, bool) {
	_, rest := removeFlags(args)
	if len(rest) == 0 {
		return "", false
	}
	return resolve(dir, strings.Join(rest, " ")), true
}

// Encloses reports whether path is dir or one of its ancestors. Both must be
// clean absolute paths.
func Encloses(path, dir string) bool {
	rel, err := filepath.Rel(path, dir)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

var errRemoveWorkingDirectory = errors.New("refusing to remove the current directory or a parent of it")

func (d *Dispatcher) remove(cmd Command, state State) ([]string, error) {
	_, rest := removeFlags(cmd.Args)
	if len(rest) == 0 {
		return nil, fail(ErrUsage, nil, "Usage: rm <file_or_directory>")
	}
	target := strings.Join(rest, " ")
	path := resolve(state.WorkingDirectory, target)
	// The session directory must outlive every dispatch.
	if Encloses(path, state.WorkingDirectory) {
		return nil, fail(ErrIO, errRemoveWorkingDirectory, "Error removing %s: %v", target, errRemoveWorkingDirectory)
	}

	info, err := d.lstat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fail(ErrNotFound, err, "Not found: %s", target)
	}
	if err != nil {
		return nil, fail(ErrIO, err, "Error removing %s: %v", target, err)
	}
	// Directories go recursively whether or not -r was given; a symlink is
	// removed as a link.
	if info.IsDir() {
		if err := d.fs.RemoveAll(path); err != nil {
			return nil, fail(ErrIO, err, "Error removing %s: %v", target, err)
		}
		return []string{"Directory removed: " + target}, nil
	}
	if err := d.fs.Remove(path); err != nil {
		return nil, fail(ErrIO, err, "Error removing %s: %v", target, err)
	}
	return []string{"File removed: " + target}, nil
}

func (d *Dispatcher) lstat(path string) (os.FileInfo, error) {
	if lstater, ok := d.fs.(afero.Lstater); ok {
		info, _, err := lstater.LstatIfPossible(path)
		return info, err
	}
	return d.fs.Stat(path)
}

func (d *Dispatcher) systemInfo(ctx context.Context, state State) []string {
	snapshot := d.metrics.Snapshot(ctx, diskRoot(state.WorkingDirectory))
	percent := func(label string, value float64, err error) string {
		if err != nil {
			return fmt.Sprintf("%s: unavailable (%v)", label, err)
		}
		return fmt.Sprintf("%s: %.1f%%", label, value)
	}
	network := fmt.Sprintf("🌐 Network: %d active connections", snapshot.Connections)
	if err := snapshot.Err(sysinfo.MetricConnections); err != nil {
		network = fmt.Sprintf("🌐 Network: unavailable (%v)", err)
	}
	return []string{
		percent("🖥️  CPU Usage", snapshot.CPUPercent, snapshot.Err(sysinfo.MetricCPU)),
		percent("💾 Memory Usage", snapshot.MemoryPercent, snapshot.Err(sysinfo.MetricMemory)),
		percent("💽 Disk Usage", snapshot.DiskPercent, snapshot.Err(sysinfo.MetricDisk)),
		network,
	}
}

func diskRoot(dir string) string {
	if runtime.GOOS == "windows" {
		if volume := filepath.VolumeName(dir); volume != "" {
			return volume + `\`
		}
	}
	return "/"
}
