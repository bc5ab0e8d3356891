// Package history persists the commands typed into vterm sessions.
//
// Entries use the zsh extended-history line format (": <unix>:0;<command>"),
// one per line, oldest first.
package history

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ashwch/vterm/internal/safety"
)

const (
	DefaultMaxEntries   = 1000
	maxHistoryLineBytes = 1024 * 1024
)

type Entry struct {
	Command   string
	Timestamp time.Time
}

type Store struct {
	path   string
	max    int
	redact bool
	now    func() time.Time

	mu   sync.Mutex
	last string
	// lines counts entries in the file; -1 until the first Append reads it.
	lines int
}

func NewStore(path string, maxEntries int, redact bool) *Store {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Store{path: path, max: maxEntries, redact: redact, now: time.Now, lines: -1}
}

func (s *Store) Path() string {
	return s.path
}

// Append adds command to the history file. Blank commands and immediate
// repeats are skipped. The file is compacted once it exceeds twice the cap;
// the entry count is read once and tracked from then on.
func (s *Store) Append(command string) error {
	command = strings.TrimSpace(strings.ReplaceAll(command, "\n", " "))
	if command == "" {
		return nil
	}
	if s.redact {
		command = safety.RedactCommand(command)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if command == s.last {
		return nil
	}

	if s.lines < 0 {
		entries, err := s.readLocked()
		if err != nil {
			return err
		}
		s.lines = len(entries)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("could not create history dir: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("could not open history file: %w", err)
	}
	line := formatLine(Entry{Command: command, Timestamp: s.now()})
	if _, err := f.WriteString(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("could not write history file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("could not close history file: %w", err)
	}
	s.last = command
	s.lines++
	if s.lines <= 2*s.max {
		return nil
	}
	return s.compactLocked()
}

// Load returns entries oldest first, capped to the newest max entries.
func (s *Store) Load() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.readLocked()
	if err != nil {
		return nil, err
	}
	if len(entries) > s.max {
		entries = entries[len(entries)-s.max:]
	}
	return entries, nil
}

// Commands returns the command text of Load, oldest first.
func (s *Store) Commands() ([]string, error) {
	entries, err := s.Load()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		out = append(out, entry.Command)
	}
	return out, nil
}

func (s *Store) readLocked() ([]Entry, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not open history file: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxHistoryLineBytes)
	for scanner.Scan() {
		if entry, ok := parseLine(scanner.Text()); ok {
			entries = append(entries, entry)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("could not read history file: %w", err)
	}
	return entries, nil
}

func (s *Store) compactLocked() error {
	entries, err := s.readLocked()
	if err != nil {
		return err
	}
	if len(entries) > s.max {
		entries = entries[len(entries)-s.max:]
	}
	s.lines = len(entries)

	var b strings.Builder
	for _, entry := range entries {
		b.WriteString(formatLine(entry))
	}
	tempFile, err := os.CreateTemp(filepath.Dir(s.path), ".vterm-history-*")
	if err != nil {
		return fmt.Errorf("could not create temp history file: %w", err)
	}
	tempPath := tempFile.Name()
	if _, err := tempFile.WriteString(b.String()); err != nil {
		_ = tempFile.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("could not write temp history file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("could not close temp history file: %w", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("could not replace history file: %w", err)
	}
	return nil
}

func formatLine(entry Entry) string {
	return fmt.Sprintf(": %d:0;%s\n", entry.Timestamp.Unix(), entry.Command)
}

func parseLine(line string) (Entry, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Entry{}, false
	}
	if !strings.HasPrefix(line, ": ") {
		return Entry{Command: line}, true
	}
	meta, command, ok := strings.Cut(line[2:], ";")
	if !ok || strings.TrimSpace(command) == "" {
		return Entry{}, false
	}
	stamp, _, _ := strings.Cut(meta, ":")
	entry := Entry{Command: strings.TrimSpace(command)}
	if unix, err := strconv.ParseInt(strings.TrimSpace(stamp), 10, 64); err == nil {
		entry.Timestamp = time.Unix(unix, 0)
	}
	return entry, true
}
