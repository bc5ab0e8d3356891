package ui

import (
	"strings"

	"golang.org/x/term"
)

const (
	BackendAuto      = "auto"
	BackendBubbleTea = "bubbletea"
	BackendHuh       = "huh"
	BackendTView     = "tview"
	BackendPlain     = "plain"
)

var isTerminal = term.IsTerminal

func NormalizeBackend(backend string) string {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case BackendAuto, "":
		return BackendAuto
	case BackendBubbleTea:
		return BackendBubbleTea
	case BackendHuh:
		return BackendHuh
	case BackendTView:
		return BackendTView
	case BackendPlain:
		return BackendPlain
	default:
		return BackendAuto
	}
}

func IsInteractiveBackend(backend string) bool {
	switch NormalizeBackend(backend) {
	case BackendPlain:
		return false
	default:
		return true
	}
}

// ResolveBackend downgrades backend to plain unless every fd is a terminal.
// auto resolves to bubbletea.
func ResolveBackend(backend string, fds ...int) string {
	backend = NormalizeBackend(backend)
	if !IsInteractiveBackend(backend) {
		return BackendPlain
	}
	for _, fd := range fds {
		if !isTerminal(fd) {
			return BackendPlain
		}
	}
	if backend == BackendAuto {
		return BackendBubbleTea
	}
	return backend
}

func backendCandidates(backend string) []string {
	switch NormalizeBackend(backend) {
	case BackendBubbleTea:
		return []string{BackendBubbleTea, BackendHuh, BackendTView}
	case BackendHuh:
		return []string{BackendHuh, BackendBubbleTea, BackendTView}
	case BackendTView:
		return []string{BackendTView, BackendBubbleTea, BackendHuh}
	case BackendPlain:
		return []string{BackendPlain}
	default:
		return []string{BackendBubbleTea, BackendHuh, BackendTView}
	}
}
