package appdirs

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	AppName = "vterm"
	// HomeEnv relocates both config and state under one directory.
	HomeEnv = "VTERM_HOME"
)

type dirKind int

const (
	configKind dirKind = iota
	stateKind
)

func baseDir(kind dirKind) (string, error) {
	if override := strings.TrimSpace(os.Getenv(HomeEnv)); override != "" {
		if kind == configKind {
			return filepath.Join(override, "config"), nil
		}
		return filepath.Join(override, "state"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not resolve home directory: %w", err)
	}

	switch runtime.GOOS {
	case "darwin":
		dir := filepath.Join(home, "Library", "Application Support", AppName)
		if kind == stateKind {
			dir = filepath.Join(dir, "state")
		}
		return dir, nil
	case "windows":
		env, fallback := "APPDATA", filepath.Join(home, "AppData", "Roaming")
		if kind == stateKind {
			env, fallback = "LOCALAPPDATA", filepath.Join(home, "AppData", "Local")
		}
		if dir := os.Getenv(env); dir != "" {
			return filepath.Join(dir, AppName), nil
		}
		return filepath.Join(fallback, AppName), nil
	default:
		env, fallback := "XDG_CONFIG_HOME", filepath.Join(home, ".config")
		if kind == stateKind {
			env, fallback = "XDG_STATE_HOME", filepath.Join(home, ".local", "state")
		}
		if dir := os.Getenv(env); dir != "" {
			return filepath.Join(dir, AppName), nil
		}
		return filepath.Join(fallback, AppName), nil
	}
}

func ensurePrivate(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("could not create %s: %w", dir, err)
	}
	if err := os.Chmod(dir, 0o700); err != nil {
		return fmt.Errorf("could not secure %s permissions: %w", dir, err)
	}
	return nil
}

func ConfigDir() (string, error) {
	return baseDir(configKind)
}

func ConfigFilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func EnsureConfigDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return dir, ensurePrivate(dir)
}

// StateDir holds history and log files.
func StateDir() (string, error) {
	return baseDir(stateKind)
}

func EnsureStateDir() (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return dir, ensurePrivate(dir)
}

func StateFilePath(name string) (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

func HistoryFilePath() (string, error) {
	return StateFilePath("history")
}

func LogFilePath() (string, error) {
	return StateFilePath(AppName + ".log")
}
