package dispatch

import (
	"strings"

	"github.com/ashwch/vterm/internal/router"
)

// Command is a canonical command split on whitespace.
type Command struct {
	Verb router.Verb
	Name string
	Args []string
	Raw  string
}

func Parse(canonical string) Command {
	fields := strings.Fields(canonical)
	if len(fields) == 0 {
		return Command{Verb: router.VerbNone, Raw: canonical}
	}
	return Command{
		Verb: router.ParseVerb(fields[0]),
		Name: fields[0],
		Args: fields[1:],
		Raw:  strings.TrimSpace(canonical),
	}
}

// Joined rebuilds a single multi-word argument, e.g. a path with spaces.
func (c Command) Joined() string {
	return strings.Join(c.Args, " ")
}
