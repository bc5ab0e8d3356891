package router

import "strings"

// Verb is the closed set of canonical command verbs the dispatcher handles.
// Anything outside the set is routed to the host shell as VerbPassthrough.
type Verb string

const (
	VerbNone        Verb = ""
	VerbExit        Verb = "exit"
	VerbPwd         Verb = "pwd"
	VerbLs          Verb = "ls"
	VerbCd          Verb = "cd"
	VerbMkdir       Verb = "mkdir"
	VerbTouch       Verb = "touch"
	VerbRm          Verb = "rm"
	VerbSysinfo     Verb = "sysinfo"
	VerbPassthrough Verb = "passthrough"
)

var builtinWords = []struct {
	word string
	verb Verb
}{
	{"pwd", VerbPwd},
	{"ls", VerbLs},
	{"cd", VerbCd},
	{"mkdir", VerbMkdir},
	{"touch", VerbTouch},
	{"rm", VerbRm},
	{"sysinfo", VerbSysinfo},
	{"exit", VerbExit},
	{"quit", VerbExit},
}

// ParseVerb maps the first token of a canonical command to its verb.
// Matching is exact: the canonical grammar is lower-case.
func ParseVerb(word string) Verb {
	if strings.TrimSpace(word) == "" {
		return VerbNone
	}
	for _, candidate := range builtinWords {
		if candidate.word == word {
			return candidate.verb
		}
	}
	return VerbPassthrough
}

// Builtins lists the recognized verb words in grammar order.
func Builtins() []string {
	words := make([]string, 0, len(builtinWords))
	for _, candidate := range builtinWords {
		words = append(words, candidate.word)
	}
	return words
}

func (v Verb) IsBuiltin() bool {
	switch v {
	case VerbExit, VerbPwd, VerbLs, VerbCd, VerbMkdir, VerbTouch, VerbRm, VerbSysinfo:
		return true
	default:
		return false
	}
}
